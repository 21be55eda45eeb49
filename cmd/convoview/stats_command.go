package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kbukum/convoview/internal/conversation"
	"github.com/kbukum/convoview/internal/stats"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var id uint
	var remote remoteFlags

	cmd := &cobra.Command{
		Use:   "stats [file.json]",
		Short: "Print conversation statistics",
		Long:  "Print the statistics of a local analysis document, or of a stored conversation with --id.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var s *stats.Stats
			switch {
			case len(args) == 1 && id != 0:
				return errors.New("pass either a file or --id, not both")
			case len(args) == 1:
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				data, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read document: %w", err)
				}
				doc, err := conversation.Parse(data)
				if err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
				computed := stats.Compute(doc, stats.Options{ClassLabel: cfg.Analysis.ClassLabel})
				s = &computed
			case id != 0:
				c, err := remote.connect(cmd.Context(), ctx)
				if err != nil {
					return err
				}
				if s, err = c.Stats(cmd.Context(), id); err != nil {
					return err
				}
			default:
				return errors.New("a document file or --id is required")
			}
			printStats(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().UintVar(&id, "id", 0, "Conversation id on the server")
	remote.register(cmd)
	return cmd
}

func printStats(w io.Writer, s *stats.Stats) {
	pct := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) + "%" }

	summary := [][]string{
		{"Total duration", s.TotalDuration},
		{"Speakers", strconv.Itoa(s.SpeakerCount)},
		{"Avg fragment", strconv.FormatFloat(s.AvgFragmentDuration, 'f', 2, 64) + "s"},
		{"Top emotion", s.TopEmotion},
		{"Top class", s.TopClass},
		{"Overlaps", fmt.Sprintf("%d (%s)", s.OverlapDetails.Count, pct(s.OverlapDetails.Percentage))},
	}
	fmt.Fprintln(w, renderTable("Summary", []string{"Metric", "Value"}, summary, []columnAlignment{alignLeft, alignRight}))

	if len(s.SpeakerStats) > 0 {
		rows := make([][]string, 0, len(s.SpeakerStats))
		for _, sp := range s.SpeakerStats {
			rows = append(rows, []string{
				strconv.Itoa(sp.ID),
				stats.FormatClock(sp.DurationMs),
				pct(sp.Percentage),
				strconv.Itoa(sp.Fragments),
				sp.Age,
				sp.Gender,
			})
		}
		fmt.Fprintln(w, renderTable("Speakers",
			[]string{"Speaker", "Duration", "Share", "Fragments", "Age", "Gender"}, rows,
			[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft}))
	}

	if len(s.ClassStats) > 0 {
		rows := make([][]string, 0, len(s.ClassStats))
		for _, c := range s.ClassStats {
			rows = append(rows, []string{c.Class, strconv.Itoa(c.Count), pct(c.Percentage)})
		}
		fmt.Fprintln(w, renderTable("Classes", []string{"Class", "Count", "Share"}, rows,
			[]columnAlignment{alignLeft, alignRight, alignRight}))
	}

	if len(s.EmotionStats) > 0 {
		rows := make([][]string, 0, len(s.EmotionStats))
		for _, e := range s.EmotionStats {
			rows = append(rows, []string{e.Emotion, strconv.Itoa(e.Count), pct(e.Percentage)})
		}
		fmt.Fprintln(w, renderTable("Emotions", []string{"Emotion", "Count", "Share"}, rows,
			[]columnAlignment{alignLeft, alignRight, alignRight}))
	}

	if len(s.OverlapDetails.Intervals) > 0 {
		rows := make([][]string, 0, len(s.OverlapDetails.Intervals))
		for _, o := range s.OverlapDetails.Intervals {
			rows = append(rows, []string{
				stats.FormatClock(o.StartMs),
				stats.FormatClock(o.EndMs),
				strconv.FormatInt(o.DurationMs, 10) + "ms",
				fmt.Sprintf("%d + %d", o.Speakers[0], o.Speakers[1]),
			})
		}
		fmt.Fprintln(w, renderTable("Overlaps", []string{"Start", "End", "Duration", "Speakers"}, rows,
			[]columnAlignment{alignRight, alignRight, alignRight, alignLeft}))
	}
}
