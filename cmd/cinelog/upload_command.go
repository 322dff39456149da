package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cinelog/internal/config"
	"cinelog/internal/ingest"
	"cinelog/internal/session"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <csv files...>",
		Short: "Create an enrichment session from Letterboxd export files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			return runUpload(cmd.Context(), cmd.OutOrStdout(), cfg, store, args)
		},
	}
}

// runUpload parses the given export files into one session and queues it
// for enrichment. The daemon picks the session up on its next poll.
func runUpload(ctx context.Context, out io.Writer, cfg *config.Config, store *session.Store, paths []string) error {
	collection := ingest.NewCollection()
	for _, path := range paths {
		kind, ok := ingest.DetectKind(path)
		if !ok {
			return fmt.Errorf("unrecognized export file %q (expected watched, ratings, diary or likes)", path)
		}
		if err := parseExportFile(collection, kind, path); err != nil {
			return err
		}
	}

	movies := collection.Movies()
	if len(movies) == 0 {
		return fmt.Errorf("no valid movies found in %d file(s)", len(paths))
	}

	sess, err := store.CreateSession(ctx, cfg.SessionTTL())
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if err := store.InsertMovies(ctx, sess.ID, movies); err != nil {
		return fmt.Errorf("store movies: %w", err)
	}
	if err := store.SetStatus(ctx, sess.ID, session.StatusEnriching); err != nil {
		return fmt.Errorf("queue session: %w", err)
	}

	fmt.Fprintf(out, "Session %s created with %d movies from %d file(s)\n", sess.ID, len(movies), len(paths))
	for _, rowErr := range collection.Errors {
		fmt.Fprintf(out, "  skipped %s\n", rowErr)
	}
	fmt.Fprintln(out, "Enrichment starts on the daemon's next poll; check progress with `cinelog status`.")
	return nil
}

func parseExportFile(collection *ingest.Collection, kind ingest.Kind, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()
	if err := collection.ParseFile(kind, filepath.Base(path), file); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
