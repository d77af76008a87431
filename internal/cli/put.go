/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/suparena/recordengine/internal/docmodel"
)

func newPutCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put [id] <json>",
		Short: "Insert a document",
		Long:  "Insert a document. Without an id a ULID is generated. Fails if the id is taken.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, body := "", args[0]
			if len(args) == 2 {
				id, body = args[0], args[1]
			}
			if id == "" {
				id = ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
			}
			fields, err := parseFields(body)
			if err != nil {
				return err
			}

			repo, err := a.repository(cmd, false)
			if err != nil {
				return err
			}
			stored, err := repo.Insert(cmd.Context(), docmodel.Document{ID: id, Fields: fields})
			if err != nil {
				return err
			}
			return a.printDocument(cmd.OutOrStdout(), stored)
		}),
	}
	return cmd
}
