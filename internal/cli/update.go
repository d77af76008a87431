/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suparena/recordengine/internal/docmodel"
)

func newUpdateCommand(a *app) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "update <id> <json> --token <token>",
		Short: "Replace a document's fields",
		Long:  "Replace a document's fields. The token is the one printed when the document was last read; the update fails if the document changed since.",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			fields, err := parseFields(args[1])
			if err != nil {
				return err
			}
			repo, err := a.repository(cmd, false)
			if err != nil {
				return err
			}
			stored, err := repo.Update(cmd.Context(), docmodel.Document{ID: args[0], Fields: fields, Token: token})
			if err != nil {
				return err
			}
			return a.printDocument(cmd.OutOrStdout(), stored)
		}),
	}
	cmd.Flags().StringVarP(&token, "token", "t", "", "Concurrency token (required)")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func newDeleteCommand(a *app) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "delete <id> --token <token>",
		Short: "Delete a document",
		Long:  "Delete a document if it is unchanged since it was read. Deleting a missing document succeeds.",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			repo, err := a.repository(cmd, false)
			if err != nil {
				return err
			}
			if err := repo.DeleteByPk(cmd.Context(), args[0], token); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return err
		}),
	}
	cmd.Flags().StringVarP(&token, "token", "t", "", "Concurrency token (required)")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}
