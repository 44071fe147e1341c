package services

import "context"

type contextKey string

const (
	renderIDKey contextKey = "render_id"
	stageKey    contextKey = "stage"
	songKey     contextKey = "song"
)

// WithRenderID annotates context with the render identifier.
func WithRenderID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, renderIDKey, id)
}

// RenderIDFromContext extracts the render identifier if present.
func RenderIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(renderIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithSong annotates context with the song title being rendered.
func WithSong(ctx context.Context, title string) context.Context {
	if title == "" {
		return ctx
	}
	return context.WithValue(ctx, songKey, title)
}

// SongFromContext returns the song title if present.
func SongFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(songKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
