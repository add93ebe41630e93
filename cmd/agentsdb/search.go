package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesm/agentsdb/internal/db"
)

func newSearchCommand(flags *globalFlags) *cobra.Command {
	var (
		prompts bool
		project string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search imported messages or prompts",
		Example: `  agentsdb search "flaky test"
  agentsdb search --prompts refactor`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, database, err := openStore(cmd, *flags)
			if err != nil {
				return err
			}
			defer database.Close()
			if !database.HasFTS() {
				return errors.New("search requires sqlite with FTS5")
			}

			f := db.SearchFilter{
				Query:       strings.Join(args, " "),
				ProjectPath: project,
				Limit:       limit,
			}
			ctx := commandContext(cmd)
			out := cmd.OutOrStdout()
			if prompts {
				page, err := database.SearchPrompts(ctx, f)
				if err != nil {
					return err
				}
				return printPrompts(out, page.Results)
			}
			page, err := database.Search(ctx, f)
			if err != nil {
				return err
			}
			return printMessages(out, page.Results)
		},
	}
	cmd.Flags().BoolVar(&prompts, "prompts", false,
		"search prompt history instead of messages")
	cmd.Flags().StringVar(&project, "project", "",
		"restrict to a project path")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum results")
	return cmd
}

func printMessages(w io.Writer, results []db.SearchResult) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "no matches")
		return err
	}
	for _, r := range results {
		if _, err := fmt.Fprintf(w, "%s #%d %s: %s\n",
			r.SessionID, r.Sequence, r.Role, plainSnippet(r.Snippet),
		); err != nil {
			return err
		}
	}
	return nil
}

func printPrompts(w io.Writer, results []db.PromptResult) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "no matches")
		return err
	}
	for _, r := range results {
		ts := "-"
		if r.Timestamp != nil {
			ts = *r.Timestamp
		}
		if _, err := fmt.Fprintf(w, "%s %s\n",
			ts, plainSnippet(r.Snippet),
		); err != nil {
			return err
		}
	}
	return nil
}

// plainSnippet swaps the HTML highlight markers for brackets.
func plainSnippet(s string) string {
	return strings.NewReplacer(
		"<mark>", "[", "</mark>", "]", "\n", " ",
	).Replace(s)
}
