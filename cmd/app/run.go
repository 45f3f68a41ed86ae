package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"MarketTiming/internal/di"
	"MarketTiming/internal/domain/models"
	"MarketTiming/pkg/config"
)

func newRunCmd(load func() (*config.Config, error)) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and print the report",
		Long: `Loads every configured series, computes the indicators and prints the
latest signal with its sub-scores, the regime, the per-series load status
and the trailing signal history.

Examples:
  app run
  app run --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}

			runner, cleanup, err := di.InitializeRunner(cfg)
			if err != nil {
				return fmt.Errorf("pipeline initialization failed: %w", err)
			}
			defer cleanup()
			defer runner.Close()

			snap, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSONReport(cmd.OutOrStdout(), snap)
			}
			return writeTextReport(cmd.OutOrStdout(), snap)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

type jsonReport struct {
	models.Summary
	Allocation *models.Allocation       `json:"allocation,omitempty"`
	History    []models.Signal          `json:"history"`
	Sectors    []models.SectorValuation `json:"sectors,omitempty"`
}

func writeJSONReport(w io.Writer, s *models.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		Summary:    s.Summary(),
		Allocation: s.Latest.Allocation,
		History:    s.History,
		Sectors:    s.Sectors,
	})
}

func writeTextReport(w io.Writer, s *models.Snapshot) error {
	sig := s.Latest
	fmt.Fprintf(w, "Signal:  %s (score %+.2f) as of %s\n", sig.Label, sig.Score, sig.Date.Format(time.DateOnly))
	fmt.Fprintf(w, "Regime:  %s\n", sig.Regime)
	if a := sig.Allocation; a != nil {
		fmt.Fprintf(w, "Model:   %s (equity %s, gold %s, debt %s)\n", a.Model, a.Equity, a.Gold, a.Debt)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nINPUT\tVALUE\tLABEL\tSCORE\tWEIGHT")
	for _, ss := range sig.SubScores {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%+.0f\t%.2f\n", ss.Name, formatValue(float64(ss.Value)), ss.Label, ss.Score, ss.Weight)
	}

	fmt.Fprintln(tw, "\nSERIES\tSTATE\tROWS\tLAST\tMESSAGE")
	for _, st := range s.Statuses {
		last := "-"
		if st.Last != nil {
			last = st.Last.Format(time.DateOnly)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", st.Name, st.State, st.Rows, last, st.Message)
	}

	fmt.Fprintln(tw, "\nMONTH\tSIGNAL\tSCORE\tREGIME")
	for _, h := range s.History {
		fmt.Fprintf(tw, "%s\t%s\t%+.2f\t%s\n", h.Date.Format("2006-01"), h.Label, h.Score, h.Regime)
	}
	return tw.Flush()
}

func formatValue(v float64) string {
	if models.IsMissing(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
