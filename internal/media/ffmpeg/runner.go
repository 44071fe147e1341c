package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"clicktrack/internal/logging"
)

// CommandRunner executes name with args, streaming stdout to the supplied
// writer when it is non-nil.
type CommandRunner func(ctx context.Context, name string, args []string, stdout io.Writer) error

// DefaultTimeout bounds a conversion when no timeout is configured.
const DefaultTimeout = 2 * time.Minute

// Client wraps an ffmpeg binary.
type Client struct {
	binary  string
	workDir string
	timeout time.Duration
	run     CommandRunner
	logger  *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout bounds each audio conversion. Zero keeps DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func WithCommandRunner(r CommandRunner) Option {
	return func(c *Client) {
		if r != nil {
			c.run = r
		}
	}
}

// WithLogger sets the client's logging destination.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "ffmpeg")
	}
}

// New constructs a client that stages intermediate files under workDir.
func New(binary, workDir string, opts ...Option) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	c := &Client{
		binary:  binary,
		workDir: workDir,
		timeout: DefaultTimeout,
		run:     defaultCommandRunner,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func defaultCommandRunner(ctx context.Context, name string, args []string, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if stdout != nil {
		cmd.Stdout = stdout
	}
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s", err, lastLines(stderr.String(), 5))
	}
	return nil
}

// lastLines keeps the tail of ffmpeg's stderr, where the actual error lives.
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
