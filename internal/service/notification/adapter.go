package notification

import (
	"context"
	"fmt"
	"it-asset-tracker/internal/notification"
	"it-asset-tracker/internal/service"
)

// ServiceAdapter adapts the notification client to the service layer interface
type ServiceAdapter struct {
	client notification.Notifier
}

// NewServiceAdapter creates a new notification service adapter
func NewServiceAdapter(client notification.Notifier) *ServiceAdapter {
	return &ServiceAdapter{
		client: client,
	}
}

// SendAssetNotification sends an asset lifecycle notification
func (a *ServiceAdapter) SendAssetNotification(ctx context.Context, assetNotification service.AssetNotification) error {
	metadata := make(map[string]string, len(assetNotification.Metadata)+3)
	for k, v := range assetNotification.Metadata {
		if v != "" {
			metadata[k] = v
		}
	}
	metadata["notification_type"] = string(assetNotification.Type)
	metadata["asset_id"] = assetNotification.AssetID
	metadata["status"] = string(assetNotification.Status)

	return a.client.SendNotificationWithContext(ctx, notification.Notification{
		Level:     mapNotificationLevel(assetNotification.Type),
		Recipient: assetNotification.Recipient,
		Subject:   fmt.Sprintf("Asset %s is now %s", assetNotification.AssetID, assetNotification.Status),
		Message:   assetNotification.Message,
		Metadata:  metadata,
	})
}

// SendPasswordReset asks the mail relay to deliver a reset link
func (a *ServiceAdapter) SendPasswordReset(ctx context.Context, reset service.PasswordResetMessage) error {
	name := reset.Name
	if name == "" {
		name = reset.Email
	}
	message := fmt.Sprintf("Hello %s,\n\nUse the link below to reset your password. It expires at %s.\n\n%s",
		name, reset.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"), reset.Link)

	return a.client.SendNotificationWithContext(ctx, notification.Notification{
		Level:     notification.LevelInfo,
		Recipient: reset.Email,
		Subject:   "Password reset",
		Message:   message,
		Metadata:  map[string]string{"notification_type": "password_reset"},
	})
}

// mapNotificationLevel maps service notification types to client notification levels
func mapNotificationLevel(notificationType service.NotificationType) notification.NotificationLevel {
	switch notificationType {
	case service.NotificationTypeAssetDamaged:
		return notification.LevelWarning
	case service.NotificationTypeAssetAssigned:
		return notification.LevelInfo
	default:
		return notification.LevelInfo
	}
}
