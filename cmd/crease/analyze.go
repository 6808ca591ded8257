package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/crease/internal/app"
	"github.com/ayusman/crease/internal/detector"
	"github.com/ayusman/crease/internal/metrics"
	"github.com/ayusman/crease/internal/technique"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <video>",
	Short: "Score the technique in a recorded clip",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var (
	analyzeType   string
	analyzeHand   string
	analyzeStride int
	analyzeSave   bool
	analyzeJSON   bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeType, "type", "t", "", "Skill to score: batting, bowling or fielding (required)")
	analyzeCmd.Flags().StringVar(&analyzeHand, "hand", "", "Bowling or throwing arm: left or right (default auto)")
	analyzeCmd.Flags().IntVar(&analyzeStride, "stride", 0, "Sample every Nth frame (default from CREASE_BATCH_STRIDE)")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "Save the summary to history")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the summary as JSON")

	if err := analyzeCmd.MarkFlagRequired("type"); err != nil {
		panic(fmt.Sprintf("failed to mark type flag as required: %v", err))
	}

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	skill, err := technique.ParseSkillType(analyzeType)
	if err != nil {
		return err
	}
	hand, err := technique.ParseHand(analyzeHand)
	if err != nil {
		return err
	}
	stride := analyzeStride
	if stride == 0 {
		stride = cfg.BatchStride
	}

	// No mock fallback here; it finds no poses and would report an empty clip.
	det, err := detector.NewMediaPipeDetector(detector.DefaultConfig())
	if err != nil {
		return fmt.Errorf("pose detection unavailable: %w", err)
	}

	metrics.Init()
	appCfg := app.Config{Detector: det}
	if analyzeSave {
		st, err := openStore()
		if err != nil {
			det.Close()
			return err
		}
		defer st.Close()
		appCfg.Store = st
	}
	a := app.New(appCfg)
	defer a.Close()

	path := args[0]
	summary, err := a.Batch().AnalyzeVideo(cmd.Context(), path, app.BatchOptions{
		Skill:  skill,
		Hand:   hand,
		Stride: stride,
	})
	if err != nil {
		return fmt.Errorf("analyze %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
	} else {
		printSummary(out, summary)
	}

	if analyzeSave {
		id, err := a.SaveSummary(filepath.Base(path), summary)
		if err != nil {
			return fmt.Errorf("analysis not saved: %w", err)
		}
		if !analyzeJSON {
			fmt.Fprintf(out, "\nSaved as %s\n", id)
		}
	}
	return nil
}

func printSummary(w io.Writer, s *technique.Summary) {
	fmt.Fprintf(w, "%s: %d/100 over %d frames", s.Type, s.OverallScore, s.FrameCount)
	if s.BowlingHand != "" {
		fmt.Fprintf(w, " (%s-arm)", s.BowlingHand)
	}
	fmt.Fprintln(w)
	if s.FrameCount == 0 {
		fmt.Fprintln(w, "No poses were detected.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nCATEGORY\tSCORE\tFEEDBACK")
	for _, c := range s.Categories {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", c.Category, c.Score, c.Comment)
	}
	tw.Flush()

	fmt.Fprintln(w, "\nWorst moments:")
	for _, kf := range s.KeyFrames {
		fmt.Fprintf(w, "  %6.2fs  %3d  %s\n", kf.Timestamp, kf.Score, kf.Issue)
	}

	fmt.Fprintln(w, "\nDrills:")
	for _, d := range s.Drills {
		fmt.Fprintf(w, "  - %s\n", d)
	}
}

