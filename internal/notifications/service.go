package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clicktrack/internal/config"
)

const userAgent = "clicktrack/0.1"

// Event names a render milestone.
type Event string

const (
	EventRenderStarted   Event = "render_started"
	EventRenderCompleted Event = "render_completed"
	EventRenderFailed    Event = "render_failed"
	EventTest            Event = "test"
)

// Payload carries the string fields an event message is built from.
type Payload map[string]string

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := buildMessage(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

// buildMessage returns false for events that are not worth a push.
func buildMessage(event Event, payload Payload) (message, bool) {
	get := func(key string) string { return strings.TrimSpace(payload[key]) }
	switch event {
	case EventRenderCompleted:
		var b strings.Builder
		fmt.Fprintf(&b, "🥁 Rendered: %s", get("song"))
		if d := get("duration"); d != "" {
			fmt.Fprintf(&b, " (%s)", d)
		}
		if out := get("output"); out != "" {
			fmt.Fprintf(&b, "\nFile: %s", out)
		}
		return message{
			title: "clicktrack - Render Complete",
			body:  b.String(),
			tags:  []string{"clicktrack", "render", "completed"},
		}, true
	case EventRenderFailed:
		song := get("song")
		if song == "" {
			song = "unknown song"
		}
		return message{
			title:    "clicktrack - Render Failed",
			body:     fmt.Sprintf("❌ Render failed for %s: %s", song, get("error")),
			tags:     []string{"clicktrack", "render", "error"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "clicktrack - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"clicktrack", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
