package config

// SlackConfig holds resolved Slack notification configuration, used to
// page a reviewer when an approval request needs attention or a note
// gets flagged for human review. Wired by cmd/aeterna into
// pkg/slack.NewService.
type SlackConfig struct {
	Enabled  bool   // Whether to send governance notifications to Slack
	TokenEnv string // Env var name containing the Slack bot token (default: "SLACK_BOT_TOKEN")
	Channel  string // Slack channel to post approval/review notifications to
}
