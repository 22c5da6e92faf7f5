package notification

import (
	"context"
	"fmt"

	providerRepo "fixserv/database/repository/provider"
	"fixserv/models"
	"fixserv/utils"

	"firebase.google.com/go/v4/messaging"
)

// PushNotifier sends FCM pushes. Only providers carry FCM tokens in this
// service; other roles fall through to the live channel or are dropped.
type PushNotifier struct {
	ProviderRepo providerRepo.ProviderRepository
}

func (n *PushNotifier) Notify(ctx context.Context, target models.NotifyTarget, msg models.NotifyMessage) error {
	token, err := n.tokenFor(ctx, target)
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("no push token for %s %s", target.Role, target.ID)
	}

	data := map[string]string{"type": msg.Type, "role": string(target.Role)}
	for k, v := range msg.Data {
		data[k] = v
	}

	fcmMsg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	if _, err := utils.FCMClient.Send(ctx, fcmMsg); err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}
	return nil
}

func (n *PushNotifier) tokenFor(ctx context.Context, target models.NotifyTarget) (string, error) {
	switch target.Role {
	case models.RoleProvider, models.RoleWorker:
		p, err := n.ProviderRepo.GetByID(ctx, target.ID)
		if err != nil {
			return "", fmt.Errorf("could not resolve push target %s: %w", target.ID, err)
		}
		return p.FCMToken, nil
	default:
		return "", fmt.Errorf("no push channel for role %s", target.Role)
	}
}
