package slack

import (
	"fmt"

	goslack "github.com/slack-go/slack"

	"github.com/kikokikok/aeterna-sub003/pkg/approval"
)

const maxBlockTextLength = 2900

var stateEmoji = map[approval.State]string{
	approval.StatePending:   ":hourglass_flowing_sand:",
	approval.StateApproved:  ":white_check_mark:",
	approval.StateApplied:   ":rocket:",
	approval.StateRejected:  ":x:",
	approval.StateExpired:   ":alarm_clock:",
	approval.StateCancelled: ":no_entry_sign:",
}

var stateLabel = map[approval.State]string{
	approval.StatePending:   "Awaiting Approval",
	approval.StateApproved:  "Approved",
	approval.StateApplied:   "Applied",
	approval.StateRejected:  "Rejected",
	approval.StateExpired:   "Expired",
	approval.StateCancelled: "Cancelled",
}

func requestURL(requestID, dashboardURL string) string {
	return fmt.Sprintf("%s/approvals/%s", dashboardURL, requestID)
}

// BuildSubmittedMessage creates Block Kit blocks for a newly submitted
// approval request notification.
func BuildSubmittedMessage(input SubmittedInput, dashboardURL string) []goslack.Block {
	url := requestURL(input.RequestID, dashboardURL)
	text := fmt.Sprintf(
		":inbox_tray: *New %s request* (risk: %s) needs %d approval(s).\nRequest ID: `%s`\n<%s|Review request>",
		input.RequestType, input.RiskLevel, input.RequiredApprovals, input.RequestID, url,
	)

	return []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, text, false, false),
			nil, nil,
		),
	}
}

// BuildDecisionMessage creates Block Kit blocks for a terminal or
// progress notification on an approval workflow (approve/reject/apply/
// expire/cancel).
func BuildDecisionMessage(input DecisionInput, dashboardURL string) []goslack.Block {
	emoji := stateEmoji[input.State]
	if emoji == "" {
		emoji = ":question:"
	}
	label := stateLabel[input.State]
	if label == "" {
		label = string(input.State)
	}

	headerText := fmt.Sprintf("%s *%s request %s*", emoji, input.RequestType, label)
	if input.State == approval.StatePending {
		headerText += fmt.Sprintf(" (%d/%d approvals)", input.CurrentApprovals, input.RequiredApprovals)
	}
	if input.Comment != "" {
		headerText += fmt.Sprintf("\n\n*Comment:*\n%s", truncateForSlack(input.Comment))
	}
	if input.Reason != "" {
		headerText += fmt.Sprintf("\n\n*Reason:*\n%s", truncateForSlack(input.Reason))
	}

	blocks := []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, headerText, false, false),
			nil, nil,
		),
	}

	url := requestURL(input.RequestID, dashboardURL)
	btn := goslack.NewButtonBlockElement("", "", goslack.NewTextBlockObject(goslack.PlainTextType, "View Request", false, false))
	btn.URL = url
	blocks = append(blocks, goslack.NewActionBlock("", btn))

	return blocks
}

func truncateForSlack(text string) string {
	runes := []rune(text)
	if len(runes) <= maxBlockTextLength {
		return text
	}
	return string(runes[:maxBlockTextLength]) + "\n\n_... (truncated — view full request in dashboard)_"
}
