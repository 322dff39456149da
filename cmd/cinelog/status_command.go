package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"cinelog/internal/enrich"
	"cinelog/internal/session"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var showMovies bool
	var limit int

	cmd := &cobra.Command{
		Use:   "status <session-id>",
		Short: "Show one session's enrichment progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			sess, err := resolveSession(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			renderSessionDetail(cmd.OutOrStdout(), sess)

			if showMovies {
				movies, err := store.SessionMovies(cmd.Context(), sess.ID, 0, limit)
				if err != nil {
					return fmt.Errorf("load movies: %w", err)
				}
				renderMovies(cmd.OutOrStdout(), movies)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showMovies, "movies", "m", false, "List the session's movies")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum movies to list")
	return cmd
}

// resolveSession accepts a full session id or an unambiguous prefix.
func resolveSession(ctx context.Context, store *session.Store, id string) (*session.Session, error) {
	sess, err := store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess != nil {
		return sess, nil
	}

	sessions, err := store.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var matches []*session.Session
	for _, candidate := range sessions {
		if strings.HasPrefix(candidate.ID, id) {
			matches = append(matches, candidate)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no session matches %q", id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("session prefix %q is ambiguous (%d matches)", id, len(matches))
	}
}

func renderSessionDetail(out io.Writer, sess *session.Session) {
	fmt.Fprintf(out, "Session:   %s\n", sess.ID)
	fmt.Fprintf(out, "Status:    %s\n", sess.Status)
	fmt.Fprintf(out, "Progress:  %d/%d (%.0f%%)\n", sess.EnrichedCount, sess.TotalMovies, sess.ProgressPercent())
	if sess.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:     %s\n", sess.ErrorMessage)
	}
	fmt.Fprintf(out, "Created:   %s\n", sess.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Expires:   %s\n", sess.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
}

func renderMovies(out io.Writer, movies []*session.Movie) {
	if len(movies) == 0 {
		fmt.Fprintln(out, "No movies in session")
		return
	}

	rows := make([][]string, 0, len(movies))
	for _, movie := range movies {
		year := ""
		if movie.Year != nil {
			year = fmt.Sprintf("%d", *movie.Year)
		}
		enriched := "pending"
		switch {
		case movie.Enriched:
			enriched = "yes"
		case movie.Processed:
			enriched = "no match"
		}
		language := ""
		if movie.OriginalLanguage != nil {
			language = enrich.LanguageName(*movie.OriginalLanguage)
		}
		directors := strings.Join(movie.Directors, ", ")
		rows = append(rows, []string{movie.Title, year, enriched, language, directors})
	}

	headers := []string{"Title", "Year", "Enriched", "Language", "Directors"}
	aligns := []columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
}
