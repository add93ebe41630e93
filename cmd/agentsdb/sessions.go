package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wesm/agentsdb/internal/db"
)

func newSessionsCommand(flags *globalFlags) *cobra.Command {
	var (
		project string
		limit   int
	)

	cmd := &cobra.Command{
		Use:     "sessions",
		Short:   "List imported sessions, newest first",
		Example: `  agentsdb sessions --project /home/dev/app --limit 10`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _, database, err := openStore(cmd, *flags)
			if err != nil {
				return err
			}
			defer database.Close()

			sessions, err := database.ListSessions(commandContext(cmd),
				db.SessionFilter{ProjectPath: project, Limit: limit})
			if err != nil {
				return err
			}
			return printSessions(cmd.OutOrStdout(), sessions)
		},
	}
	cmd.Flags().StringVar(&project, "project", "",
		"restrict to a project path")
	cmd.Flags().IntVar(&limit, "limit", db.DefaultSessionLimit,
		"maximum sessions")
	return cmd
}

func printSessions(w io.Writer, sessions []db.Session) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "no sessions")
		return err
	}
	for _, s := range sessions {
		if _, err := fmt.Fprintf(w, "%s %s %s %d messages\n",
			s.ID, orDash(s.StartedAt), orDash(s.ProjectPath),
			s.TotalMessages,
		); err != nil {
			return err
		}
	}
	return nil
}

func newTagCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <session-id> <tag>",
		Short: "Attach a manual tag to a session",
		Long: `Manual tags are kept when the session file changes and is
imported again.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, database, err := openStore(cmd, *flags)
			if err != nil {
				return err
			}
			defer database.Close()

			id, tag := args[0], args[1]
			s, err := database.GetSession(commandContext(cmd), id)
			if err != nil {
				return err
			}
			if s == nil {
				return fmt.Errorf("session %s not found", id)
			}
			return database.AddTag(id, tag)
		},
	}
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
