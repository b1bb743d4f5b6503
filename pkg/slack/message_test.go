package slack

import (
	"strings"
	"testing"
	"unicode/utf8"

	goslack "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikokikok/aeterna-sub003/pkg/approval"
)

func TestBuildSubmittedMessage(t *testing.T) {
	blocks := BuildSubmittedMessage(SubmittedInput{
		RequestID:         "req-123",
		RequestType:       "note-promotion",
		RiskLevel:         approval.RiskMedium,
		RequiredApprovals: 2,
	}, "https://aeterna.example.com")

	require.Len(t, blocks, 1)

	section, ok := blocks[0].(*goslack.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, section.Text.Text, ":inbox_tray:")
	assert.Contains(t, section.Text.Text, "note-promotion")
	assert.Contains(t, section.Text.Text, "medium")
	assert.Contains(t, section.Text.Text, "req-123")
	assert.Contains(t, section.Text.Text, "https://aeterna.example.com/approvals/req-123")
}

func TestBuildDecisionMessage_Pending(t *testing.T) {
	input := DecisionInput{
		RequestID:         "req-1",
		RequestType:       "policy-override",
		State:             approval.StatePending,
		RequiredApprovals: 2,
		CurrentApprovals:  1,
	}
	blocks := BuildDecisionMessage(input, "https://dash.example.com")

	require.Len(t, blocks, 2)
	header := blocks[0].(*goslack.SectionBlock)
	assert.Contains(t, header.Text.Text, ":hourglass_flowing_sand:")
	assert.Contains(t, header.Text.Text, "Awaiting Approval")
	assert.Contains(t, header.Text.Text, "1/2 approvals")
}

func TestBuildDecisionMessage_Approved(t *testing.T) {
	input := DecisionInput{
		RequestID:   "req-2",
		RequestType: "policy-override",
		State:       approval.StateApproved,
		Comment:     "looks safe",
	}
	blocks := BuildDecisionMessage(input, "https://dash.example.com")

	header := blocks[0].(*goslack.SectionBlock)
	assert.Contains(t, header.Text.Text, ":white_check_mark:")
	assert.Contains(t, header.Text.Text, "Approved")
	assert.Contains(t, header.Text.Text, "looks safe")

	action := blocks[1].(*goslack.ActionBlock)
	require.Len(t, action.Elements.ElementSet, 1)
	btn, ok := action.Elements.ElementSet[0].(*goslack.ButtonBlockElement)
	require.True(t, ok)
	assert.Equal(t, "View Request", btn.Text.Text)
	assert.Contains(t, btn.URL, "https://dash.example.com/approvals/req-2")
}

func TestBuildDecisionMessage_Rejected(t *testing.T) {
	input := DecisionInput{
		RequestID:   "req-3",
		RequestType: "note-promotion",
		State:       approval.StateRejected,
		Reason:      "insufficient evidence",
	}
	blocks := BuildDecisionMessage(input, "https://dash.example.com")

	header := blocks[0].(*goslack.SectionBlock)
	assert.Contains(t, header.Text.Text, ":x:")
	assert.Contains(t, header.Text.Text, "Rejected")
	assert.Contains(t, header.Text.Text, "insufficient evidence")
}

func TestBuildDecisionMessage_UnknownState(t *testing.T) {
	blocks := BuildDecisionMessage(DecisionInput{RequestID: "req-4", State: approval.State("weird")}, "https://dash.example.com")

	header := blocks[0].(*goslack.SectionBlock)
	assert.Contains(t, header.Text.Text, ":question:")
	assert.Contains(t, header.Text.Text, "weird")
}

func TestTruncateForSlack(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "hello", truncateForSlack("hello"))
	})

	t.Run("exact limit unchanged", func(t *testing.T) {
		text := strings.Repeat("a", maxBlockTextLength)
		assert.Equal(t, text, truncateForSlack(text))
	})

	t.Run("over limit truncated", func(t *testing.T) {
		text := strings.Repeat("a", maxBlockTextLength+100)
		result := truncateForSlack(text)
		assert.True(t, len(result) < len(text))
		assert.Contains(t, result, "truncated")
	})

	t.Run("multi-byte runes not split", func(t *testing.T) {
		text := strings.Repeat("🔥", maxBlockTextLength+10)
		result := truncateForSlack(text)
		assert.Contains(t, result, "truncated")
		assert.True(t, utf8.ValidString(result), "result should be valid UTF-8")
		prefix := strings.Split(result, "\n\n_...")[0]
		assert.Equal(t, maxBlockTextLength, utf8.RuneCountInString(prefix))
	})
}
