package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler writes a header line per record followed by one indented
// line per attribute:
//
//	2026-01-02T15:04:05Z INFO [render] a1b2c3d4 (overlay) – mixed click track
//	    - Total: 3m0s
type consoleHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	attrs     []slog.Attr
	groups    []string
	addSource bool
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, writer: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}

	fields := h.collect(record)
	var header recordHeader
	body := fields[:0]
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			header.component = attrString(f.value)
		case FieldRenderID:
			header.renderID = attrString(f.value)
		case FieldStage:
			header.stage = attrString(f.value)
		default:
			body = append(body, f)
		}
	}

	var buf bytes.Buffer
	buf.Grow(128 + len(body)*32)
	h.writeHeader(&buf, record, header)
	writeFields(&buf, body, record.Level < slog.LevelInfo)

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

type recordHeader struct {
	component string
	renderID  string
	stage     string
}

// collect flattens handler and record attributes into dotted keys. A later
// attribute replaces an earlier one with the same key in place.
func (h *consoleHandler) collect(record slog.Record) []field {
	var fields []field
	index := make(map[string]int)
	add := func(f field) {
		if f.key == "" {
			return
		}
		if pos, ok := index[f.key]; ok {
			fields[pos].value = f.value
			return
		}
		index[f.key] = len(fields)
		fields = append(fields, f)
	}
	for _, attr := range h.attrs {
		flattenAttr(h.groups, attr, add)
	}
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(h.groups, attr, add)
		return true
	})
	return fields
}

func (h *consoleHandler) writeHeader(buf *bytes.Buffer, record slog.Record, header recordHeader) {
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}

	buf.WriteString(formatTimestamp(ts))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(record.Level))
	if header.component != "" {
		fmt.Fprintf(buf, " [%s]", header.component)
	}
	if subject := composeSubject(header.renderID, header.stage); subject != "" {
		buf.WriteByte(' ')
		buf.WriteString(subject)
	}
	buf.WriteString(" – ")
	buf.WriteString(message)
	if h.addSource {
		if src := record.Source(); src != nil {
			fmt.Fprintf(buf, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	buf.WriteByte('\n')
}

// writeFields prints raw key/value pairs at debug level and labelled bullets
// otherwise.
func writeFields(buf *bytes.Buffer, fields []field, raw bool) {
	for _, f := range fields {
		if raw {
			fmt.Fprintf(buf, "    %s: %s\n", f.key, formatValue(f.value))
			continue
		}
		fmt.Fprintf(buf, "    - %s: %s\n", displayLabel(f.key), attrString(f.value))
	}
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	clone.attrs = append(clone.attrs, attrs...)
	return clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *consoleHandler) clone() *consoleHandler {
	return &consoleHandler{
		mu:        h.mu,
		writer:    h.writer,
		level:     h.level,
		addSource: h.addSource,
		attrs:     append([]slog.Attr(nil), h.attrs...),
		groups:    append([]string(nil), h.groups...),
	}
}

// composeSubject renders "a1b2c3d4 (stage)" from a render ID and stage.
func composeSubject(renderID, stage string) string {
	renderID = strings.TrimSpace(renderID)
	if len(renderID) > 8 {
		renderID = renderID[:8]
	}
	stage = strings.TrimSpace(stage)
	switch {
	case renderID != "" && stage != "":
		return renderID + " (" + stage + ")"
	case renderID != "":
		return renderID
	default:
		return stage
	}
}

// displayLabel turns "total_ms" into "Total ms".
func displayLabel(key string) string {
	key = strings.ReplaceAll(key, "_", " ")
	key = strings.ReplaceAll(key, ".", " ")
	if key == "" {
		return key
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

type field struct {
	key   string
	value slog.Value
}

func flattenAttr(prefix []string, attr slog.Attr, add func(field)) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		group := prefix
		if attr.Key != "" {
			group = append(slices.Clone(prefix), attr.Key)
		}
		for _, member := range attr.Value.Group() {
			flattenAttr(group, member, add)
		}
		return
	}
	key := attr.Key
	if len(prefix) > 0 {
		key = strings.Join(prefix, ".") + "." + key
	}
	add(field{key: key, value: attr.Value})
}

func attrString(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return formatTimestamp(v.Time())
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

func formatValue(v slog.Value) string {
	s := attrString(v)
	if v.Kind() == slog.KindString || v.Kind() == slog.KindAny {
		if needsQuotes(s) {
			return strconv.Quote(s)
		}
	}
	return s
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return true
		}
	}
	return false
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
