package notify

import (
	"context"
	"errors"

	"github.com/slack-go/slack"

	"github.com/eteu-technologies/s3-deployer/internal/config"
	"github.com/eteu-technologies/s3-deployer/internal/deploy"
)

// Slack posts payloads to an incoming webhook.
type Slack struct{}

var _ deploy.Notifier = Slack{}

func (Slack) Send(ctx context.Context, webhook string, payload config.NotificationPayload) error {
	if webhook == "" {
		return errors.New("slack webhook url is not set")
	}
	return slack.PostWebhookContext(ctx, webhook, WebhookMessage(payload))
}

// WebhookMessage converts a payload into the slack wire type.
func WebhookMessage(payload config.NotificationPayload) *slack.WebhookMessage {
	msg := &slack.WebhookMessage{
		Channel:   payload.Channel,
		Text:      payload.Text,
		Username:  payload.Username,
		IconEmoji: payload.IconEmoji,
	}

	for _, a := range payload.Attachments {
		attachment := slack.Attachment{
			Fallback:  a.Fallback,
			Color:     a.Color,
			Title:     a.Title,
			TitleLink: a.TitleLink,
			Text:      a.Text,
		}
		for _, f := range a.Fields {
			attachment.Fields = append(attachment.Fields, slack.AttachmentField{
				Title: f.Title,
				Value: f.Value,
				Short: f.Short,
			})
		}
		msg.Attachments = append(msg.Attachments, attachment)
	}

	return msg
}
