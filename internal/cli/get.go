/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"github.com/spf13/cobra"

	"github.com/suparena/recordengine/errors"
)

func newGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>...",
		Short: "Retrieve documents by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			repo, err := a.repository(cmd, false)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				doc, found, err := repo.GetByPk(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !found {
					return errors.NewNotFoundError("document", args[0])
				}
				return a.printDocument(cmd.OutOrStdout(), doc)
			}

			docs, err := repo.FetchByPks(cmd.Context(), args)
			if err != nil {
				return err
			}
			if a.format == "text" {
				for _, d := range docs {
					if err := a.printDocument(cmd.OutOrStdout(), d); err != nil {
						return err
					}
				}
				return nil
			}
			return printJSON(cmd.OutOrStdout(), docs)
		}),
	}
}
