package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	// timeLayout is fixed width so stored timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy reruns op with exponential backoff while SQLite reports the
// database as locked by another clicktrack process.
func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := range busyRetryAttempts {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = min(delay*2, busyRetryMaxBackoff)
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	return res, err
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		entry        Entry
		songTitle    sql.NullString
		status       string
		audioPath    sql.NullString
		captionsPath sql.NullString
		videoPath    sql.NullString
		midiPath     sql.NullString
		errorMessage sql.NullString
		startedRaw   string
		finishedRaw  string
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.RenderID,
		&songTitle,
		&entry.SourcePath,
		&status,
		&audioPath,
		&captionsPath,
		&videoPath,
		&midiPath,
		&entry.DurationMs,
		&entry.Measures,
		&entry.Beats,
		&errorMessage,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan render: %w", err)
	}
	entry.SongTitle = songTitle.String
	entry.Status = Status(status)
	entry.AudioPath = audioPath.String
	entry.CaptionsPath = captionsPath.String
	entry.VideoPath = videoPath.String
	entry.MIDIPath = midiPath.String
	entry.ErrorMessage = errorMessage.String
	entry.StartedAt = parseTime(startedRaw)
	entry.FinishedAt = parseTime(finishedRaw)
	return &entry, nil
}

func nullableString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func parseTime(raw string) time.Time {
	ts, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}
