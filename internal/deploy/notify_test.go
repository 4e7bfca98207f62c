package deploy

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/eteu-technologies/s3-deployer/internal/config"
)

func TestBuildPayloads(t *testing.T) {
	t.Parallel()

	cfg := &config.SlackConfig{
		Webhook:  "https://hooks.slack.test/x",
		Channels: config.StringList{"#deploys", "#frontend"},
		AppTitle: "Shop",
		AppLink:  "https://shop.example.com",
		Payload:  &config.NotificationPayload{},
	}

	payloads, err := BuildPayloads(cfg, "fix checkout")
	if err != nil {
		t.Fatalf("BuildPayloads: %v", err)
	}
	if len(payloads) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(payloads))
	}

	if payloads[0].Channel != "#deploys" || payloads[1].Channel != "#frontend" {
		t.Errorf("unexpected channels %q, %q", payloads[0].Channel, payloads[1].Channel)
	}
	if payloads[0].Text != payloads[1].Text || !reflect.DeepEqual(payloads[0].Attachments, payloads[1].Attachments) {
		t.Error("payloads differ in more than the channel")
	}

	p := payloads[0]
	if p.Text != DefaultNotificationText || p.Username != DefaultNotificationUsername || p.IconEmoji != DefaultNotificationIconEmoji {
		t.Errorf("defaults not applied: %+v", p)
	}
	if len(p.Attachments) != 1 {
		t.Fatalf("expected auto attachment, got %+v", p.Attachments)
	}
	a := p.Attachments[0]
	if a.Title != "Shop" || a.TitleLink != "https://shop.example.com" || a.Color != "good" || a.Fallback != DefaultNotificationText {
		t.Errorf("unexpected attachment %+v", a)
	}
	if len(a.Fields) != 1 || a.Fields[0].Title != "Context" || a.Fields[0].Value != "fix checkout" || a.Fields[0].Short {
		t.Errorf("unexpected attachment fields %+v", a.Fields)
	}

	if cfg.Payload.Channel != "" || cfg.Payload.Text != "" || cfg.Payload.Attachments != nil {
		t.Errorf("template was mutated: %+v", cfg.Payload)
	}
}

func TestBuildPayloadsKeepsOperatorFields(t *testing.T) {
	t.Parallel()

	cfg := &config.SlackConfig{
		Channels: config.StringList{"#ops"},
		AppTitle: "Shop",
		AppLink:  "https://shop.example.com",
		Payload: &config.NotificationPayload{
			Text:        "Shop is live",
			Username:    "deploybot",
			IconEmoji:   ":rocket:",
			Attachments: []config.Attachment{{Title: "custom"}},
		},
	}

	payloads, err := BuildPayloads(cfg, "msg")
	if err != nil {
		t.Fatalf("BuildPayloads: %v", err)
	}
	p := payloads[0]
	if p.Text != "Shop is live" || p.Username != "deploybot" || p.IconEmoji != ":rocket:" {
		t.Errorf("operator fields overwritten: %+v", p)
	}
	if len(p.Attachments) != 1 || p.Attachments[0].Title != "custom" {
		t.Errorf("operator attachments replaced: %+v", p.Attachments)
	}
}

func TestBuildPayloadsWithoutAppLinkHasNoAttachment(t *testing.T) {
	t.Parallel()

	cfg := &config.SlackConfig{
		Channels: config.StringList{"#ops"},
		AppTitle: "Shop",
		Payload:  &config.NotificationPayload{},
	}
	payloads, err := BuildPayloads(cfg, "msg")
	if err != nil {
		t.Fatalf("BuildPayloads: %v", err)
	}
	if payloads[0].Attachments != nil {
		t.Errorf("expected no attachment, got %+v", payloads[0].Attachments)
	}
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	notifier := &fakeNotifier{}
	d := &NotificationDispatcher{
		Slack: &config.SlackConfig{
			Webhook:  "https://hooks.slack.test/x",
			Channels: config.StringList{"#a", "#b"},
			Payload:  &config.NotificationPayload{Text: "done"},
		},
		Notifier: notifier,
	}

	sent, err := d.Dispatch(context.Background(), &Run{DeployMessage: "m"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if sent != 2 || len(notifier.sent) != 2 {
		t.Fatalf("expected 2 payloads sent, got %d (%d recorded)", sent, len(notifier.sent))
	}
	for _, s := range notifier.sent {
		if s.webhook != "https://hooks.slack.test/x" {
			t.Errorf("unexpected webhook %q", s.webhook)
		}
	}
}

func TestDispatchSkippedWithoutConfig(t *testing.T) {
	t.Parallel()

	notifier := &fakeNotifier{}
	d := &NotificationDispatcher{Notifier: notifier}
	if _, err := d.Dispatch(context.Background(), &Run{}); err != nil {
		t.Fatalf("expected skip, got %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("expected nothing sent, got %d", len(notifier.sent))
	}
}

func TestDispatchFailuresAreSoft(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		slack    *config.SlackConfig
		failFor  string
		wantSent int
	}{
		{
			name:  "no channels",
			slack: &config.SlackConfig{Payload: &config.NotificationPayload{}},
		},
		{
			name:  "no payload",
			slack: &config.SlackConfig{Channels: config.StringList{"#a"}},
		},
		{
			name: "transport error",
			slack: &config.SlackConfig{
				Channels: config.StringList{"#a", "#b"},
				Payload:  &config.NotificationPayload{},
			},
			failFor:  "#a",
			wantSent: 2,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			notifier := &fakeNotifier{failFor: tt.failFor}
			d := &NotificationDispatcher{Slack: tt.slack, Notifier: notifier}
			sent, err := d.Dispatch(context.Background(), &Run{})
			if !IsSoft(err) || !errors.Is(err, ErrNotificationFailed) {
				t.Fatalf("expected soft ErrNotificationFailed, got %v", err)
			}
			if sent != tt.wantSent {
				t.Errorf("expected %d sent, got %d", tt.wantSent, sent)
			}
		})
	}
}
