package deploy

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/eteu-technologies/s3-deployer/internal/config"
)

const (
	DefaultNotificationText      = "Application deployed"
	DefaultNotificationUsername  = "Bot"
	DefaultNotificationIconEmoji = ":ghost:"

	deployAttachmentText = "Please notify the corresponding channels if you find any bugs."
)

// BuildPayloads returns one payload per configured channel.
func BuildPayloads(cfg *config.SlackConfig, deployMessage string) (payloads []config.NotificationPayload, err error) {
	if len(cfg.Channels) == 0 {
		err = fmt.Errorf("%w: no channels specified", ErrNotificationFailed)
		return
	}
	if cfg.Payload == nil {
		err = fmt.Errorf("%w: payload data was not found", ErrNotificationFailed)
		return
	}

	for _, channel := range cfg.Channels {
		payload := cfg.Payload.Clone()

		if payload.Text == "" {
			payload.Text = DefaultNotificationText
		}
		if payload.Username == "" {
			payload.Username = DefaultNotificationUsername
		}
		if payload.IconEmoji == "" {
			payload.IconEmoji = DefaultNotificationIconEmoji
		}

		if payload.Attachments == nil && cfg.AppTitle != "" && cfg.AppLink != "" {
			payload.Attachments = []config.Attachment{
				{
					Fallback:  payload.Text,
					Color:     "good",
					Title:     cfg.AppTitle,
					TitleLink: cfg.AppLink,
					Text:      deployAttachmentText,
					Fields: []config.AttachmentField{
						{Title: "Context", Value: deployMessage, Short: false},
					},
				},
			}
		}

		payload.Channel = channel
		payloads = append(payloads, payload)
	}

	return
}

// NotificationDispatcher announces a finished deploy. Every failure it
// returns is soft.
type NotificationDispatcher struct {
	Slack    *config.SlackConfig
	Notifier Notifier
}

func (d *NotificationDispatcher) Dispatch(ctx context.Context, run *Run) (sent int, err error) {
	if d.Slack == nil {
		return
	}

	if d.Notifier == nil {
		err = Soft(fmt.Errorf("%w: no notifier configured", ErrNotificationFailed))
		return
	}

	var payloads []config.NotificationPayload
	if payloads, err = BuildPayloads(d.Slack, run.DeployMessage); err != nil {
		zap.L().Error("slack notifier is aborting", zap.Error(err))
		err = Soft(err)
		return
	}

	zap.L().Info("sending notifications to slack", zap.Int("channels", len(payloads)))

	var errs error
	for _, payload := range payloads {
		if serr := d.Notifier.Send(ctx, d.Slack.Webhook, payload); serr != nil {
			zap.L().Warn("failed to notify channel", zap.String("channel", payload.Channel), zap.Error(serr))
			errs = multierr.Append(errs, fmt.Errorf("%w: %s: %v", ErrNotificationFailed, payload.Channel, serr))
		}
		sent++
	}

	if errs != nil {
		err = Soft(errs)
		return
	}

	zap.L().Info("slack has been notified", zap.Int("channels", sent))
	return
}
