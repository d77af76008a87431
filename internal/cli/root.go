/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package cli implements the recordengine commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/suparena/recordengine"
	"github.com/suparena/recordengine/config"
	"github.com/suparena/recordengine/internal/docmodel"
	"github.com/suparena/recordengine/query"
)

type docRepo = recordengine.Repository[docmodel.Document, string]

// app carries the persistent flags and the runtime of one invocation.
type app struct {
	configPath string
	dbPath     string
	storeName  string
	indexField string
	strategy   string
	format     string
	verbose    bool

	rt *recordengine.Runtime
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "recordengine",
		Short:         "Query and edit JSON documents in a record store",
		Long:          "A small front end for the record engine: paginated, filtered and sorted reads with continuation tokens, and optimistic-concurrency writes over a SQLite record store.",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	flags.StringVarP(&a.dbPath, "db", "d", "", "SQLite database path (default: config sqlite.path or $RECORDENGINE_DB)")
	flags.StringVarP(&a.storeName, "store", "s", "documents", "Record store name")
	flags.StringVar(&a.indexField, "index-field", "category", "Document field kept in secondary index 1")
	flags.StringVar(&a.strategy, "strategy", "", "Query strategy: cached or indexed (default: config strategy)")
	flags.StringVarP(&a.format, "format", "f", "json", "Output format: json or text")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Debug logging to stderr")

	root.AddCommand(
		newPutCommand(a),
		newGetCommand(a),
		newFetchCommand(a),
		newNextCommand(a),
		newUpdateCommand(a),
		newDeleteCommand(a),
		newVersionCommand(),
	)
	return root
}

// runtime loads the configuration and opens the runtime once per
// invocation. Tokens are always durable so that next works in a later
// process.
func (a *app) runtime(cmd *cobra.Command) (*recordengine.Runtime, error) {
	if a.rt != nil {
		return a.rt, nil
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.dbPath != "" {
		cfg.SQLite.Path = a.dbPath
	}
	if a.strategy != "" {
		cfg.Strategy = a.strategy
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	cfg.Tokens.Backend = config.TokenBackendSQLite

	rt, err := recordengine.NewRuntime(cmd.Context(), cfg,
		recordengine.WithLogger(cfg.Log.NewLogger(cmd.ErrOrStderr())))
	if err != nil {
		return nil, err
	}
	a.rt = rt
	return rt, nil
}

// repository opens the document store. With sortable set, the cached
// strategy gets a field table covering every field present in the store.
func (a *app) repository(cmd *cobra.Command, sortable bool) (*docRepo, error) {
	ctx := cmd.Context()
	rt, err := a.runtime(cmd)
	if err != nil {
		return nil, err
	}
	store, err := rt.Store(a.storeName)
	if err != nil {
		if store, err = rt.OpenSQLiteStore(ctx, a.storeName, docmodel.Indexes); err != nil {
			return nil, err
		}
	}
	mapper := docmodel.NewMapper(a.indexField)

	repo, err := recordengine.NewRepository[docmodel.Document, string](rt, store, mapper)
	if err != nil || !sortable || repo.Strategy() != query.Cached {
		return repo, err
	}
	// The extent is cached by the shared manager, so the sorted repository
	// below reads it without another scan.
	docs, err := repo.FetchAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	return recordengine.NewRepository[docmodel.Document, string](rt, store, mapper,
		recordengine.WithFields(docmodel.Fields(docmodel.FieldNames(docs)...)))
}

// run wraps a command body so the runtime is closed however it ends.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := a.close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		return fn(cmd, args)
	}
}

func (a *app) close() error {
	if a.rt == nil {
		return nil
	}
	err := a.rt.Close()
	a.rt = nil
	return err
}

// parseFields decodes a JSON object argument.
func parseFields(arg string) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(arg), &fields); err != nil {
		return nil, fmt.Errorf("fields must be a JSON object: %w", err)
	}
	return fields, nil
}

func (a *app) printDocument(w io.Writer, d docmodel.Document) error {
	if a.format == "text" {
		_, err := fmt.Fprintf(w, "%s\ttoken=%s\t%s\n", d.ID, d.Token, renderFields(d))
		return err
	}
	return printJSON(w, d)
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// renderFields prints key=value pairs in key order.
func renderFields(d docmodel.Document) string {
	keys := make([]string, 0, len(d.Fields))
	for k := range d.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + docmodel.Text(d.Fields[k])
	}
	return strings.Join(parts, " ")
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
