package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"clicktrack/internal/history"
)

type historyJSON struct {
	RenderID     string  `json:"render_id"`
	Song         string  `json:"song"`
	Source       string  `json:"source"`
	Status       string  `json:"status"`
	AudioPath    string  `json:"audio_path,omitempty"`
	CaptionsPath string  `json:"captions_path,omitempty"`
	VideoPath    string  `json:"video_path,omitempty"`
	MIDIPath     string  `json:"midi_path,omitempty"`
	DurationMs   float64 `json:"duration_ms"`
	Measures     int     `json:"measures"`
	Beats        int     `json:"beats"`
	Error        string  `json:"error,omitempty"`
	StartedAt    string  `json:"started_at"`
	ElapsedMs    int64   `json:"elapsed_ms"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var status string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past renders",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := history.ListOptions{Limit: limit}
			switch s := history.Status(strings.ToLower(strings.TrimSpace(status))); s {
			case "":
			case history.StatusSucceeded, history.StatusFailed:
				opts.Status = s
			default:
				return fmt.Errorf("--status must be %q or %q, got %q", history.StatusSucceeded, history.StatusFailed, status)
			}

			store, err := openHistory(cmd, ctx)
			if err != nil || store == nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if asJSON {
				out := make([]historyJSON, 0, len(entries))
				for _, e := range entries {
					out = append(out, toHistoryJSON(e))
				}
				return writeJSON(cmd, out)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No renders recorded")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderHistoryTable(entries))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of renders to show")
	cmd.Flags().StringVar(&status, "status", "", "Only show renders with this status (succeeded or failed)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	cmd.AddCommand(newHistoryShowCommand(ctx))
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <render-id>",
		Short: "Show one render; the ID may be abbreviated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(cmd, ctx)
			if err != nil || store == nil {
				return err
			}
			defer store.Close()

			entry, err := findRender(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, toHistoryJSON(*entry))
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderHistoryDetail(*entry))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete renders that finished before a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive, got %s", olderThan)
			}
			store, err := openHistory(cmd, ctx)
			if err != nil || store == nil {
				return err
			}
			defer store.Close()

			removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d render(s) older than %s\n", removed, olderThan)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age cutoff, e.g. 72h")
	return cmd
}

// openHistory returns a nil store after printing a notice when history is
// disabled.
func openHistory(cmd *cobra.Command, ctx *commandContext) (*history.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		fmt.Fprintln(cmd.OutOrStdout(), "Render history is disabled (history.enabled = false)")
		return nil, nil
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open render history: %w", err)
	}
	return store, nil
}

// findRender looks up an exact render ID first, then a unique prefix.
func findRender(ctx context.Context, store *history.Store, id string) (*history.Entry, error) {
	id = strings.TrimSpace(id)
	entry, err := store.Get(ctx, id)
	if err != nil || entry != nil {
		return entry, err
	}
	entries, err := store.List(ctx, history.ListOptions{})
	if err != nil {
		return nil, err
	}
	var match *history.Entry
	for i := range entries {
		if !strings.HasPrefix(entries[i].RenderID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("render ID %q is ambiguous", id)
		}
		match = &entries[i]
	}
	if match == nil {
		return nil, fmt.Errorf("no render with ID %q", id)
	}
	return match, nil
}

func toHistoryJSON(e history.Entry) historyJSON {
	return historyJSON{
		RenderID:     e.RenderID,
		Song:         e.SongTitle,
		Source:       e.SourcePath,
		Status:       string(e.Status),
		AudioPath:    e.AudioPath,
		CaptionsPath: e.CaptionsPath,
		VideoPath:    e.VideoPath,
		MIDIPath:     e.MIDIPath,
		DurationMs:   msValue(e.DurationMs),
		Measures:     e.Measures,
		Beats:        e.Beats,
		Error:        e.ErrorMessage,
		StartedAt:    e.StartedAt.UTC().Format(time.RFC3339),
		ElapsedMs:    e.Elapsed().Milliseconds(),
	}
}

func renderHistoryDetail(e history.Entry) string {
	rows := [][]string{
		{"Render ID", e.RenderID},
		{"Song", e.SongTitle},
		{"Source", e.SourcePath},
		{"Status", cases.Title(language.English).String(string(e.Status))},
		{"Started", e.StartedAt.Local().Format("2006-01-02 15:04:05")},
		{"Took", e.Elapsed().Round(time.Millisecond).String()},
		{"Length", formatMs(e.DurationMs)},
		{"Measures", strconv.Itoa(e.Measures)},
		{"Beats", strconv.Itoa(e.Beats)},
	}
	for _, extra := range [][2]string{
		{"Audio", e.AudioPath},
		{"Captions", e.CaptionsPath},
		{"Video", e.VideoPath},
		{"MIDI", e.MIDIPath},
		{"Error", e.ErrorMessage},
	} {
		if extra[1] != "" {
			rows = append(rows, []string{extra[0], extra[1]})
		}
	}
	return renderTable(tableSpec{Headers: []string{"Field", "Value"}, Rows: rows})
}

func renderHistoryTable(entries []history.Entry) string {
	title := cases.Title(language.English)
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		outcome := title.String(string(e.Status))
		if e.Status == history.StatusFailed && e.ErrorMessage != "" {
			outcome += ": " + truncate(e.ErrorMessage, 48)
		}
		rows = append(rows, []string{
			e.StartedAt.Local().Format("2006-01-02 15:04"),
			e.RenderID[:min(8, len(e.RenderID))],
			e.SongTitle,
			strconv.Itoa(e.Measures),
			formatMs(e.DurationMs),
			e.Elapsed().Round(time.Millisecond).String(),
			outcome,
		})
	}
	return renderTable(tableSpec{
		Headers: []string{"Started", "ID", "Song", "Measures", "Length", "Took", "Status"},
		Rows:    rows,
		Aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	})
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
