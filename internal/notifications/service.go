package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"aircheck/internal/config"
)

const userAgent = "Aircheck/0.1.0"

// Service defines the notification surface exposed to the recorder,
// stream tester, and sweep jobs.
type Service interface {
	NotifyRecordingCompleted(ctx context.Context, showName, filename string, sizeBytes int64) error
	NotifyRecordingFailed(ctx context.Context, showName string, cause error) error
	NotifyStationRepaired(ctx context.Context, callLetters, backend string) error
	NotifyStationBroken(ctx context.Context, callLetters string) error
	NotifySweepCompleted(ctx context.Context, kind string, removed int, reclaimedBytes int64) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint:    topic,
		client:      client,
		recordings:  cfg.Notifications.Recordings,
		streamTests: cfg.Notifications.StreamTests,
		sweeps:      cfg.Notifications.Sweeps,
		errors:      cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	recordings  bool
	streamTests bool
	sweeps      bool
	errors      bool
}

func (n *ntfyService) NotifyRecordingCompleted(ctx context.Context, showName, filename string, sizeBytes int64) error {
	if !n.recordings {
		return nil
	}
	showName = strings.TrimSpace(showName)
	filename = strings.TrimSpace(filename)
	message := fmt.Sprintf("📻 Recorded: %s", showName)
	if filename != "" {
		message = fmt.Sprintf("%s\nFile: %s (%s)", message, filename, humanize.Bytes(uint64(sizeBytes)))
	}
	data := payload{
		title:   "Aircheck - Recording Complete",
		message: message,
		tags:    []string{"aircheck", "recording", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRecordingFailed(ctx context.Context, showName string, cause error) error {
	if !n.recordings {
		return nil
	}
	showName = strings.TrimSpace(showName)
	reason := "unknown"
	if cause != nil {
		reason = strings.TrimSpace(cause.Error())
	}
	data := payload{
		title:    "Aircheck - Recording Failed",
		message:  fmt.Sprintf("❌ Recording failed: %s\n%s", showName, reason),
		tags:     []string{"aircheck", "recording", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyStationRepaired(ctx context.Context, callLetters, backend string) error {
	if !n.streamTests {
		return nil
	}
	callLetters = strings.TrimSpace(callLetters)
	backend = strings.TrimSpace(backend)
	if backend == "" {
		backend = "unknown"
	}
	data := payload{
		title:   "Aircheck - Station Repaired",
		message: fmt.Sprintf("🔧 %s is recordable again via %s", callLetters, backend),
		tags:    []string{"aircheck", "station", "repaired"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyStationBroken(ctx context.Context, callLetters string) error {
	if !n.streamTests {
		return nil
	}
	callLetters = strings.TrimSpace(callLetters)
	data := payload{
		title:    "Aircheck - Station Broken",
		message:  fmt.Sprintf("📵 No working capture method for %s", callLetters),
		tags:     []string{"aircheck", "station", "broken"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySweepCompleted(ctx context.Context, kind string, removed int, reclaimedBytes int64) error {
	if !n.sweeps {
		return nil
	}
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = "sweep"
	}
	message := fmt.Sprintf("🧹 %s removed %s items", kind, humanize.Comma(int64(removed)))
	if reclaimedBytes > 0 {
		message = fmt.Sprintf("%s, reclaimed %s", message, humanize.Bytes(uint64(reclaimedBytes)))
	}
	data := payload{
		title:   "Aircheck - Sweep Complete",
		message: message,
		tags:    []string{"aircheck", "sweep", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Aircheck - Error",
		message:  builder.String(),
		tags:     []string{"aircheck", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Aircheck - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"aircheck", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
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

func (noopService) NotifyRecordingCompleted(context.Context, string, string, int64) error { return nil }
func (noopService) NotifyRecordingFailed(context.Context, string, error) error            { return nil }
func (noopService) NotifyStationRepaired(context.Context, string, string) error           { return nil }
func (noopService) NotifyStationBroken(context.Context, string) error                     { return nil }
func (noopService) NotifySweepCompleted(context.Context, string, int, int64) error        { return nil }
func (noopService) NotifyError(context.Context, error, string) error                      { return nil }
func (noopService) TestNotification(context.Context) error                                { return nil }
