package slack

import (
	"context"
	"log/slog"
	"time"

	"github.com/kikokikok/aeterna-sub003/pkg/approval"
)

// ServiceConfig holds the parameters needed to construct a Service.
type ServiceConfig struct {
	Token        string
	Channel      string
	DashboardURL string
}

// SubmittedInput contains data for a newly submitted approval request
// notification.
type SubmittedInput struct {
	RequestID         string
	RequestType       string
	RiskLevel         approval.RiskLevel
	RequiredApprovals int
}

// DecisionInput contains data for a progress or terminal approval
// workflow notification (approve/reject/apply/expire/cancel).
type DecisionInput struct {
	RequestID         string
	RequestType       string
	State             approval.State
	RequiredApprovals int
	CurrentApprovals  int
	Comment           string
	Reason            string
	ThreadTS          string // cached from the submitted notification
}

// Service handles Slack notification delivery for the approval
// workflow. Nil-safe: all methods are no-ops when service is nil.
type Service struct {
	client       *Client
	dashboardURL string
	logger       *slog.Logger
}

// NewService creates a new Slack notification service.
// Returns nil if Token or Channel is empty.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Token == "" || cfg.Channel == "" {
		return nil
	}
	return &Service{
		client:       NewClient(cfg.Token, cfg.Channel),
		dashboardURL: cfg.DashboardURL,
		logger:       slog.Default().With("component", "slack-service"),
	}
}

// NewServiceWithClient creates a Service backed by a pre-built Client.
// Useful for testing with a mock API server.
func NewServiceWithClient(client *Client, dashboardURL string) *Service {
	return &Service{
		client:       client,
		dashboardURL: dashboardURL,
		logger:       slog.Default().With("component", "slack-service"),
	}
}

// NotifySubmitted sends a "new request needs approval" notification.
// It always returns an empty string: the posted message's timestamp is
// not read back, so NotifyDecision finds the thread by the request ID
// fingerprint instead. Fail-open: errors are logged, never returned.
func (s *Service) NotifySubmitted(ctx context.Context, input SubmittedInput) string {
	if s == nil {
		return ""
	}

	blocks := BuildSubmittedMessage(input, s.dashboardURL)
	var threadTS string
	if err := s.client.PostMessage(ctx, blocks, "", 5*time.Second); err != nil {
		s.logger.Error("failed to send Slack submission notification",
			"request_id", input.RequestID,
			"error", err)
	}
	return threadTS
}

// NotifyDecision sends a progress or terminal notification for an
// approval workflow event. When input.ThreadTS is empty, it looks up
// the original submission message by the request ID fingerprint so
// the decision threads under it. Fail-open: errors are logged, never
// returned.
func (s *Service) NotifyDecision(ctx context.Context, input DecisionInput) {
	if s == nil {
		return
	}

	threadTS := input.ThreadTS
	if threadTS == "" {
		var err error
		threadTS, err = s.client.FindMessageByFingerprint(ctx, input.RequestID)
		if err != nil {
			s.logger.Warn("failed to find Slack thread for request",
				"request_id", input.RequestID,
				"error", err)
		}
	}

	blocks := BuildDecisionMessage(input, s.dashboardURL)
	if err := s.client.PostMessage(ctx, blocks, threadTS, 10*time.Second); err != nil {
		s.logger.Error("failed to send Slack decision notification",
			"request_id", input.RequestID,
			"state", input.State,
			"error", err)
	}
}
