package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"clicktrack/internal/captions"
	"clicktrack/internal/config"
	"clicktrack/internal/render"
	"clicktrack/internal/schedule"
)

func newCaptionsCommand(ctx *commandContext) *cobra.Command {
	var outPath string
	var totalMs float64

	cmd := &cobra.Command{
		Use:   "captions <song-file>",
		Short: "Write the measure captions of a song without rendering audio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target := strings.TrimSpace(outPath)
			if target == "" {
				return errors.New("--out is required")
			}
			if target, err = config.ExpandPath(target); err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}
			if totalMs < 0 {
				return fmt.Errorf("--total-ms must not be negative, got %v", totalMs)
			}

			s, sched, err := loadSchedule(args[0])
			if err != nil {
				return err
			}
			// Without a song duration the click track is its own reference.
			align := schedule.Align(sched.DurationMs(), sched.DurationMs(), s.InitialOffsetMs)
			total := align.TotalMs
			if totalMs > 0 {
				total = totalMs
			}
			caps := captions.Build(sched, align.CaptionOriginMs(), total)
			header := captions.Header{Title: s.DisplayTitle(), Album: s.Album, Artist: s.Artist}
			if err := captions.WriteFile(target, caps, header, render.CaptionLayout(cfg), total); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d captions to %s (last ends at %s)\n", len(caps), target, formatMs(captions.EndMs(caps)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Caption file path (.srt or .ass)")
	cmd.Flags().Float64Var(&totalMs, "total-ms", 0, "Render duration to stretch the last caption to")
	return cmd
}
