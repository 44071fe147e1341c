package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"clicktrack/internal/captions"
	"clicktrack/internal/schedule"
	"clicktrack/internal/song"
)

type measureJSON struct {
	Measure    int     `json:"measure"`
	Segment    int     `json:"segment"`
	StartMs    float64 `json:"start_ms"`
	DurationMs float64 `json:"duration_ms"`
	Signature  string  `json:"signature"`
	BPM        float64 `json:"bpm"`
	Beats      int     `json:"beats"`
}

type beatJSON struct {
	Measure    int     `json:"measure"`
	Beat       int     `json:"beat"`
	Kind       string  `json:"kind"`
	StartMs    float64 `json:"start_ms"`
	DurationMs float64 `json:"duration_ms"`
}

type scheduleJSON struct {
	Title           string        `json:"title"`
	InitialOffsetMs int           `json:"initial_offset_ms"`
	DurationMs      float64       `json:"duration_ms"`
	Measures        []measureJSON `json:"measures"`
	Beats           []beatJSON    `json:"beats,omitempty"`
}

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	var showBeats bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "schedule <song-file>",
		Short:       "Show the measure or beat schedule of a song",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, sched, err := loadSchedule(args[0])
			if err != nil {
				return err
			}
			measures := collectMeasures(sched)
			var beats []beatJSON
			if showBeats {
				if beats, err = collectBeats(sched); err != nil {
					return err
				}
			}

			if asJSON {
				return writeJSON(cmd, scheduleJSON{
					Title:           s.DisplayTitle(),
					InitialOffsetMs: s.InitialOffsetMs,
					DurationMs:      msValue(sched.DurationMs()),
					Measures:        measures,
					Beats:           beats,
				})
			}

			out := cmd.OutOrStdout()
			if showBeats {
				fmt.Fprintln(out, renderBeatTable(s, beats))
				return nil
			}
			fmt.Fprintln(out, renderMeasureTable(s, sched, measures))
			return nil
		},
	}

	cmd.Flags().BoolVar(&showBeats, "beats", false, "List every beat instead of measures")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func collectMeasures(sched *schedule.Schedule) []measureJSON {
	out := make([]measureJSON, 0, sched.MeasureCount())
	for m := range sched.Measures() {
		out = append(out, measureJSON{
			Measure:    m.Measure,
			Segment:    m.Segment + 1,
			StartMs:    msValue(m.StartMs),
			DurationMs: msValue(m.DurationMs),
			Signature:  m.Signature.Label(),
			BPM:        m.Signature.BPM,
			Beats:      m.Signature.BeatsInMeasure,
		})
	}
	return out
}

func collectBeats(sched *schedule.Schedule) ([]beatJSON, error) {
	out := make([]beatJSON, 0, sched.BeatCount())
	for ev, err := range sched.Beats() {
		if err != nil {
			return nil, err
		}
		out = append(out, beatJSON{
			Measure:    ev.Measure,
			Beat:       ev.Beat + 1,
			Kind:       string(ev.Kind),
			StartMs:    msValue(ev.StartMs),
			DurationMs: msValue(ev.DurationMs),
		})
	}
	return out, nil
}

func renderMeasureTable(s *song.Song, sched *schedule.Schedule, measures []measureJSON) string {
	rows := make([][]string, 0, len(measures))
	for _, m := range measures {
		rows = append(rows, []string{
			strconv.Itoa(m.Measure),
			strconv.Itoa(m.Segment),
			m.Signature,
			captions.FormatBPM(m.BPM),
			strconv.Itoa(m.Beats),
			formatMs(m.StartMs),
			formatMs(m.DurationMs),
		})
	}
	return renderTable(tableSpec{
		Title:   s.DisplayTitle(),
		Headers: []string{"Measure", "Segment", "Signature", "BPM", "Beats", "Start", "Length"},
		Rows:    rows,
		Aligns:  []columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight},
		Footer:  []string{"", "", "", "", strconv.Itoa(sched.BeatCount()), "", formatMs(sched.DurationMs())},
	})
}

func renderBeatTable(s *song.Song, beats []beatJSON) string {
	rows := make([][]string, 0, len(beats))
	for _, b := range beats {
		rows = append(rows, []string{
			strconv.Itoa(b.Measure),
			strconv.Itoa(b.Beat),
			b.Kind,
			formatMs(b.StartMs),
			formatMs(b.DurationMs),
		})
	}
	return renderTable(tableSpec{
		Title:   s.DisplayTitle(),
		Headers: []string{"Measure", "Beat", "Kind", "Start", "Length"},
		Rows:    rows,
		Aligns:  []columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignRight},
	})
}
