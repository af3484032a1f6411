package notify

import (
	"fmt"
	"log"
	"strings"

	"github.com/slack-go/slack"

	"github.com/casehq/triage/internal/model"
)

// maxRowErrorLines caps how many rejected rows one summary message lists.
const maxRowErrorLines = 5

// Notifier announces import outcomes and urgent tickets. Implementations
// never return errors to the import path; delivery failures are logged
// and dropped.
type Notifier interface {
	ImportCompleted(source string, summary *model.ImportSummary)
	UrgentTicket(t model.Ticket)
}

// New builds a notifier from configuration. An empty token or channel
// disables Slack and returns the no-op notifier.
func New(cfg model.NotifyConfig) Notifier {
	if cfg.SlackToken == "" || cfg.SlackChannel == "" {
		return NopNotifier{}
	}
	return &SlackNotifier{
		poster:   slack.New(cfg.SlackToken),
		channel:  cfg.SlackChannel,
		onUrgent: cfg.OnUrgent,
	}
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) ImportCompleted(string, *model.ImportSummary) {}
func (NopNotifier) UrgentTicket(model.Ticket)                    {}

// slackPoster is the slice of the Slack API the notifier uses.
type slackPoster interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts to a single Slack channel.
type SlackNotifier struct {
	poster   slackPoster
	channel  string
	onUrgent bool
}

func (n *SlackNotifier) ImportCompleted(source string, summary *model.ImportSummary) {
	n.post(FormatImportSummary(source, summary))
}

func (n *SlackNotifier) UrgentTicket(t model.Ticket) {
	if !n.onUrgent {
		return
	}
	n.post(FormatUrgentAlert(t))
}

func (n *SlackNotifier) post(text string) {
	_, _, err := n.poster.PostMessage(n.channel, slack.MsgOptionText(text, false))
	if err != nil {
		log.Printf("Slack post error: %v", err)
	}
}

// FormatImportSummary renders the channel message for one completed
// import.
func FormatImportSummary(source string, s *model.ImportSummary) string {
	msg := fmt.Sprintf("Import complete (%s): %d rows, %d created, %d rejected.",
		source, s.Total, s.Successful, s.Failed)
	if len(s.Errors) == 0 {
		return msg
	}

	lines := []string{msg, "Rejected rows:"}
	for i, rowErr := range s.Errors {
		if i == maxRowErrorLines {
			lines = append(lines, fmt.Sprintf("and %d more", len(s.Errors)-maxRowErrorLines))
			break
		}
		lines = append(lines, fmt.Sprintf("row %d: %s", rowErr.Row, strings.Join(rowErr.Errors, "; ")))
	}
	return strings.Join(lines, "\n")
}

// FormatUrgentAlert renders the channel message for one urgent ticket.
func FormatUrgentAlert(t model.Ticket) string {
	return fmt.Sprintf("Urgent ticket %s: %s (from %s <%s>)",
		t.ID, t.Subject, t.CustomerName, t.CustomerEmail)
}
