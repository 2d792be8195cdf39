package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/dan1650/plates-bot/internal/cache"
	"github.com/dan1650/plates-bot/internal/lookup"
	"github.com/dan1650/plates-bot/internal/render"
	"github.com/dan1650/plates-bot/internal/session"
)

func newLookupCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "lookup <plate|number|phone>",
		Short: "Run one lookup against the registry and print the records",
		Example: `  platebot lookup B1000
  platebot lookup 2259
  platebot lookup "+961 3 681 764" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cfg.Lookup.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Lookup.Timeout)
				defer cancel()
			}

			text := strings.Join(args, " ")
			out := cmd.OutOrStdout()
			printer := render.NewPrinter(out, noColor || outputJSON)

			db, err := openDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			// One-shot service: no rate gate, a throwaway selection store.
			svc := lookup.NewService(
				newPlanner(db, cfg, logger),
				session.NewSelections(cache.NewMemoryClient(1), 0),
				nil, logger,
				lookup.ServiceConfig{MaxChoices: cfg.Lookup.MaxChoices},
			)

			var s *spinner.Spinner
			if !outputJSON {
				s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				s.Suffix = " Searching " + text
				s.Writer = os.Stderr
				s.Start()
			}
			res, err := svc.Search(ctx, 0, text, time.Now())
			if s != nil {
				s.Stop()
			}
			if err != nil {
				printer.Error("%v", err)
				return fmt.Errorf("lookup %q: %w", text, err)
			}

			query := res.Intent.Label()
			if res.Kind == lookup.OutcomeUnrecognized {
				query = text
			}
			if outputJSON {
				return render.WriteJSON(out, render.JSONResult{
					Query:   query,
					Kind:    string(res.Intent.Kind),
					Outcome: string(res.Kind),
					Count:   len(res.Records),
					Records: res.Records,
				})
			}
			if res.Kind == lookup.OutcomeUnrecognized {
				printer.Unrecognized(text)
				return nil
			}
			printer.Records(query, res.Records)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}
