package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"burnish/internal/config"
	"burnish/internal/pipeline"
)

const userAgent = "Burnish-Go/0.1.0"

// Service defines the notification surface exposed to the orchestrator.
type Service interface {
	NotifyAccepted(ctx context.Context, result pipeline.Result) error
	NotifyRejected(ctx context.Context, result pipeline.Result) error
	NotifyRetryExhausted(ctx context.Context, result pipeline.Result) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewNop returns a notifier that discards every event.
func NewNop() Service { return noopService{} }

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

	return &ntfyService{
		endpoint:       topic,
		client:         &http.Client{Timeout: timeout},
		sendAccepted:   cfg.Notifications.Accepted,
		sendRejected:   cfg.Notifications.Rejected,
		sendErrorAlert: cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint       string
	client         *http.Client
	sendAccepted   bool
	sendRejected   bool
	sendErrorAlert bool
}

func (n *ntfyService) NotifyAccepted(ctx context.Context, result pipeline.Result) error {
	if !n.sendAccepted {
		return nil
	}
	title := result.SubmissionID
	if result.Metadata != nil && strings.TrimSpace(result.Metadata.Title) != "" {
		title = result.Metadata.Title
	}
	data := payload{
		title:   "Burnish - Accepted",
		message: fmt.Sprintf("Metadata published: %s", title),
		tags:    []string{"burnish", "verdict", "accepted"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRejected(ctx context.Context, result pipeline.Result) error {
	if !n.sendRejected {
		return nil
	}
	reasons := strings.Join(result.Reasons, ", ")
	if reasons == "" {
		reasons = "policy violation"
	}
	data := payload{
		title:   "Burnish - Rejected",
		message: fmt.Sprintf("Submission %s rejected: %s", result.SubmissionID, reasons),
		tags:    []string{"burnish", "verdict", "rejected"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRetryExhausted(ctx context.Context, result pipeline.Result) error {
	if !n.sendErrorAlert {
		return nil
	}
	data := payload{
		title:    "Burnish - Retries Exhausted",
		message:  fmt.Sprintf("Submission %s gave up after %d attempts", result.SubmissionID, result.Attempts),
		tags:     []string{"burnish", "verdict", "exhausted"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, context string) error {
	if !n.sendErrorAlert {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Pipeline error")
	if context = strings.TrimSpace(context); context != "" {
		builder.WriteString(" (" + context + ")")
	}
	if err != nil {
		builder.WriteString(": " + err.Error())
	}
	data := payload{
		title:    "Burnish - Error",
		message:  builder.String(),
		tags:     []string{"burnish", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Burnish - Test",
		message:  "Notification system test",
		tags:     []string{"burnish", "test"},
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

func (noopService) NotifyAccepted(context.Context, pipeline.Result) error       { return nil }
func (noopService) NotifyRejected(context.Context, pipeline.Result) error       { return nil }
func (noopService) NotifyRetryExhausted(context.Context, pipeline.Result) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error            { return nil }
func (noopService) TestNotification(context.Context) error                      { return nil }
