package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"clicktrack/internal/config"
	"clicktrack/internal/history"
	"clicktrack/internal/render"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var job render.Job

	cmd := &cobra.Command{
		Use:   "render <song-file>",
		Short: "Render the click track, captions and optional video for a song",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			job.SongPath = args[0]
			if err := expandJobPaths(&job); err != nil {
				return err
			}

			var opts []render.Option
			if cfg.History.Enabled {
				store, err := history.Open(cfg.History.Path)
				if err != nil {
					return fmt.Errorf("open render history: %w", err)
				}
				defer store.Close()
				opts = append(opts, render.WithHistory(store))
			}

			runner := render.NewRunner(cfg, logger, opts...)
			result, err := runner.Run(cmd.Context(), job)
			if err != nil {
				return err
			}
			printRenderSummary(cmd.OutOrStdout(), result)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&job.AudioPath, "audio", "", "Song audio file (overrides the descriptor)")
	flags.StringVarP(&job.OutputPath, "out", "o", "", "Output WAV path")
	flags.StringVar(&job.CaptionsPath, "captions", "", "Caption file path (.srt or .ass)")
	flags.StringVar(&job.VideoPath, "video", "", "Caption video path (enables video composition)")
	flags.StringVar(&job.CoverArtPath, "cover", "", "Cover art image (overrides the descriptor)")
	flags.StringVar(&job.MIDIPath, "midi", "", "Also export the click schedule as a MIDI file")
	flags.BoolVar(&job.ClickOnly, "click-only", false, "Write only the padded click track")
	return cmd
}

func expandJobPaths(job *render.Job) error {
	for _, target := range []*string{
		&job.SongPath,
		&job.AudioPath,
		&job.OutputPath,
		&job.CaptionsPath,
		&job.VideoPath,
		&job.CoverArtPath,
		&job.MIDIPath,
	} {
		value := strings.TrimSpace(*target)
		if value == "" {
			*target = ""
			continue
		}
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return fmt.Errorf("resolve path %q: %w", value, err)
		}
		*target = expanded
	}
	return nil
}

func printRenderSummary(out io.Writer, result *render.Result) {
	p := message.NewPrinter(language.English)
	p.Fprintf(out, "Rendered %s\n", result.Song.DisplayTitle())
	p.Fprintf(out, "  Render ID: %s\n", result.RenderID)
	p.Fprintf(out, "  Measures:  %d\n", result.Measures)
	p.Fprintf(out, "  Beats:     %d\n", result.Beats)
	p.Fprintf(out, "  Captions:  %d\n", result.Captions)
	p.Fprintf(out, "  Duration:  %s\n", formatMs(result.Alignment.TotalMs))
	p.Fprintf(out, "  Elapsed:   %s\n", result.Elapsed.Round(time.Millisecond))

	fmt.Fprintln(out)
	status := newStatusWriter(out)
	status.section("Outputs")
	status.artifact("Audio", result.AudioPath)
	status.artifact("Captions", result.CaptionsPath)
	status.artifact("Video", result.VideoPath)
	status.artifact("MIDI", result.MIDIPath)
}

// formatMs renders a millisecond duration as m:ss.mmm.
func formatMs(ms float64) string {
	if ms < 0 {
		ms = 0
	}
	total := int64(ms + 0.5)
	minutes := total / 60_000
	seconds := (total % 60_000) / 1000
	millis := total % 1000
	return fmt.Sprintf("%d:%02d.%03d", minutes, seconds, millis)
}
