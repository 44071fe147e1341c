package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"clicktrack/internal/config"
	"clicktrack/internal/midiexport"
)

func newMIDICommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:         "midi <song-file>",
		Short:       "Export the click schedule as a Standard MIDI File",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(outPath)
			if target == "" {
				return errors.New("--out is required")
			}
			target, err := config.ExpandPath(target)
			if err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}
			s, sched, err := loadSchedule(args[0])
			if err != nil {
				return err
			}
			if err := midiexport.WriteFile(target, sched, midiexport.Options{Title: s.DisplayTitle()}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d measures (%d beats) to %s\n", sched.MeasureCount(), sched.BeatCount(), target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "MIDI file path")
	return cmd
}
