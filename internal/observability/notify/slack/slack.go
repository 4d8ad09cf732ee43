// Package slack posts security alerts to a Slack incoming webhook as Block Kit messages.
package slack

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/caquick/caquick-api/internal/observability/notify"
)

// Config describes the webhook and message presentation.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
	// AccountURLPrefix turns account ids into links, e.g. https://admin.caquick.site/accounts.
	AccountURLPrefix string
}

// Client is a notify.Sink backed by a Slack webhook.
type Client struct {
	webhookURL  string
	channel     string
	username    string
	accountBase *url.URL
	delivery    notify.Delivery
}

var _ notify.Sink = (*Client)(nil)

// NewClient validates the webhook URL and prepares delivery.
func NewClient(cfg Config) (*Client, error) {
	webhook := strings.TrimSpace(cfg.WebhookURL)
	if webhook == "" {
		return nil, errors.New("slack webhook url is required")
	}
	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		username = "caquick"
	}
	return &Client{
		webhookURL:  webhook,
		channel:     strings.TrimSpace(cfg.Channel),
		username:    username,
		accountBase: parseAccountBase(cfg.AccountURLPrefix),
		delivery:    notify.NewDelivery(cfg.Client, cfg.Timeout, cfg.RetryLimit),
	}, nil
}

// SendSecurityEvent renders the event and posts it.
func (c *Client) SendSecurityEvent(ctx context.Context, event notify.SecurityEvent) error {
	return c.delivery.PostJSON(ctx, "slack", c.webhookURL, c.render(event))
}

type message struct {
	Text     string  `json:"text"`
	Username string  `json:"username,omitempty"`
	Channel  string  `json:"channel,omitempty"`
	Blocks   []block `json:"blocks"`
}

type block struct {
	Type     string     `json:"type"`
	Text     *textBlock `json:"text,omitempty"`
	Fields   []textBlock `json:"fields,omitempty"`
	Elements []textBlock `json:"elements,omitempty"`
}

type textBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func mrkdwn(s string) textBlock { return textBlock{Type: "mrkdwn", Text: s} }

// render builds the message. Text is the notification fallback; blocks carry the detail.
func (c *Client) render(event notify.SecurityEvent) message {
	kind := event.Kind
	if kind == "" {
		kind = "security_event"
	}
	severity := event.Severity
	if severity == "" {
		severity = notify.SeverityCritical
	}
	at := event.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}

	headline := fmt.Sprintf(":rotating_light: *Security alert* `%s`", kind)
	if event.Summary != "" {
		headline += "\n" + escape(event.Summary)
	}

	var fields []textBlock
	addField := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			fields = append(fields, mrkdwn("*"+label+"*\n"+value))
		}
	}
	addField("Severity", severity)
	addField("Account", c.accountLink(event.AccountID))
	if event.SessionID > 0 {
		addField("Session", strconv.FormatInt(event.SessionID, 10))
	}
	addField("IP", escape(event.IPAddress))
	addField("User agent", escape(event.UserAgent))

	blocks := []block{{Type: "section", Text: &textBlock{Type: "mrkdwn", Text: headline}}}
	if len(fields) > 0 {
		blocks = append(blocks, block{Type: "section", Fields: fields})
	}
	if meta := metadataLines(event.Metadata); meta != "" {
		blocks = append(blocks, block{Type: "section", Text: &textBlock{Type: "mrkdwn", Text: meta}})
	}
	blocks = append(blocks, block{Type: "context", Elements: []textBlock{mrkdwn(at.UTC().Format(time.RFC3339))}})

	return message{
		Text:     fmt.Sprintf("Security alert %s (%s) for account %d", kind, severity, event.AccountID),
		Username: c.username,
		Channel:  c.channel,
		Blocks:   blocks,
	}
}

func metadataLines(meta map[string]string) string {
	if len(meta) == 0 {
		return ""
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = "• " + escape(k) + ": " + escape(meta[k])
	}
	return strings.Join(lines, "\n")
}

func (c *Client) accountLink(accountID int64) string {
	if accountID <= 0 {
		return ""
	}
	id := strconv.FormatInt(accountID, 10)
	if c.accountBase == nil {
		return id
	}
	return "<" + c.accountBase.JoinPath(id).String() + "|" + id + ">"
}

func parseAccountBase(raw string) *url.URL {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil
	}
	return u
}

var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// escape neutralises Slack control sequences such as <!here> in user-controlled values.
func escape(s string) string {
	return slackEscaper.Replace(s)
}
