/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/suparena/recordengine/internal/docmodel"
	"github.com/suparena/recordengine/storagemodels"
)

func newFetchCommand(a *app) *cobra.Command {
	var (
		pageSize int
		sorts    []string
		where    string
		has      string
		index    int
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the first page of documents",
		Long: `Fetch the first page of matching documents. If more pages exist a
continuation token is printed; pass it to "next".

Sorting (--sort field or field:desc, repeatable) needs the cached strategy.
The indexed strategy walks --index instead: 0 is the id, 1 the index field.`,
		Args: cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			criteria := &storagemodels.FetchCriteria[docmodel.Document]{
				PageSize: pageSize,
				Index:    index,
			}
			for _, s := range sorts {
				field, dir, _ := strings.Cut(s, ":")
				var err error
				switch strings.ToLower(dir) {
				case "", "asc":
					err = criteria.OrderBy.AddAscending(field)
				case "desc":
					err = criteria.OrderBy.AddDescending(field)
				default:
					err = fmt.Errorf("sort %q: direction must be asc or desc", s)
				}
				if err != nil {
					return err
				}
			}
			switch {
			case where != "" && has != "":
				return fmt.Errorf("use either --where or --has")
			case where != "":
				criteria.FilterName = docmodel.FilterEquals + ":" + where
			case has != "":
				criteria.FilterName = docmodel.FilterHas + ":" + has
			}

			repo, err := a.repository(cmd, criteria.OrderBy.HasOrder())
			if err != nil {
				return err
			}
			page, err := repo.Fetch(cmd.Context(), criteria)
			if err != nil {
				return err
			}
			return a.printPage(cmd.OutOrStdout(), page)
		}),
	}
	cmd.Flags().IntVarP(&pageSize, "page-size", "n", 0, "Documents per page (0 = all)")
	cmd.Flags().StringArrayVar(&sorts, "sort", nil, "Sort clause field[:asc|desc], repeatable")
	cmd.Flags().StringVarP(&where, "where", "w", "", "Only documents with field=value")
	cmd.Flags().StringVar(&has, "has", "", "Only documents that have the field")
	cmd.Flags().IntVar(&index, "index", 0, "Index walked by the indexed strategy")
	return cmd
}

func newNextCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "next <token>",
		Short: "Fetch the page a continuation token points to",
		Long:  "Fetch the next page. Tokens are single use and expire; run with the same --store and --strategy as the fetch that printed it.",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			repo, err := a.repository(cmd, true)
			if err != nil {
				return err
			}
			page, err := repo.FetchNext(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printPage(cmd.OutOrStdout(), page)
		}),
	}
}

func (a *app) printPage(w io.Writer, page storagemodels.FetchResult[docmodel.Document]) error {
	if a.format != "text" {
		return printJSON(w, page)
	}
	for _, d := range page.Items {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", d.ID, renderFields(d)); err != nil {
			return err
		}
	}
	if page.HasMore() {
		_, err := fmt.Fprintf(w, "next: %s\n", page.Token)
		return err
	}
	return nil
}
