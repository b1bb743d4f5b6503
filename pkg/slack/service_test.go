package slack

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kikokikok/aeterna-sub003/pkg/approval"
)

func TestService_NilReceiver(t *testing.T) {
	var s *Service

	t.Run("NotifySubmitted is no-op", func(t *testing.T) {
		result := s.NotifySubmitted(context.Background(), SubmittedInput{RequestID: "req-1"})
		assert.Empty(t, result)
	})

	t.Run("NotifyDecision is no-op", func(_ *testing.T) {
		s.NotifyDecision(context.Background(), DecisionInput{
			RequestID: "req-1",
			State:     approval.StateApproved,
		})
	})
}

func TestNewService(t *testing.T) {
	t.Run("returns nil when token empty", func(t *testing.T) {
		svc := NewService(ServiceConfig{Token: "", Channel: "C123"})
		assert.Nil(t, svc)
	})

	t.Run("returns nil when channel empty", func(t *testing.T) {
		svc := NewService(ServiceConfig{Token: "xoxb-test", Channel: ""})
		assert.Nil(t, svc)
	})

	t.Run("returns service when configured", func(t *testing.T) {
		svc := NewService(ServiceConfig{
			Token:        "xoxb-test",
			Channel:      "C123",
			DashboardURL: "https://example.com",
		})
		assert.NotNil(t, svc)
	})
}
