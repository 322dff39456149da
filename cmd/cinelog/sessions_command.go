package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"cinelog/internal/logging"
	"cinelog/internal/session"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List enrichment sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			sessions, err := store.ListSessions(cmd.Context())
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}
			renderSessions(cmd.OutOrStdout(), sessions, all)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include expired sessions")
	return cmd
}

func renderSessions(out io.Writer, sessions []*session.Session, includeExpired bool) {
	now := time.Now()
	rows := make([][]string, 0, len(sessions))
	for _, sess := range sessions {
		if !includeExpired && sess.Expired(now) {
			continue
		}
		rows = append(rows, []string{
			logging.ShortID(sess.ID),
			string(sess.Status),
			fmt.Sprintf("%d", sess.TotalMovies),
			fmt.Sprintf("%d", sess.EnrichedCount),
			fmt.Sprintf("%.0f%%", sess.ProgressPercent()),
			sess.CreatedAt.Local().Format("2006-01-02 15:04"),
			sess.ExpiresAt.Local().Format("2006-01-02"),
		})
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "No sessions found")
		return
	}

	headers := []string{"ID", "Status", "Movies", "Processed", "Progress", "Created", "Expires"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
}
