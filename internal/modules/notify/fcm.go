// README: FCM pusher; each client subscribes to its own profile topic.
package notify

import (
	"context"

	"firebase.google.com/go/v4/messaging"

	"rally/internal/types"
)

type FCMPusher struct {
	client *messaging.Client
}

func NewFCMPusher(client *messaging.Client) *FCMPusher {
	return &FCMPusher{client: client}
}

// SendPush publishes to the recipient's profile topic. Device-token
// bookkeeping stays on the client side; an uninstalled app simply stops
// listening to its topic.
func (p *FCMPusher) SendPush(ctx context.Context, profileID types.ID, title, body string, data map[string]string) error {
	_, err := p.client.Send(ctx, &messaging.Message{
		Topic: "profile-" + string(profileID),
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	})
	return err
}
