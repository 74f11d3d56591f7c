package service

import (
	"context"
	"fmt"
	"it-asset-tracker/internal/model"
	"time"
)

// NotificationService interface for sending notifications
type NotificationService interface {
	SendAssetNotification(ctx context.Context, notification AssetNotification) error
	SendPasswordReset(ctx context.Context, reset PasswordResetMessage) error
}

// AssetNotification describes a lifecycle event worth telling someone about.
type AssetNotification struct {
	Type      NotificationType
	AssetID   string
	Status    model.Status
	Recipient string
	Message   string
	Metadata  map[string]string
}

// PasswordResetMessage carries a reset link to one user.
type PasswordResetMessage struct {
	Email     string
	Name      string
	Link      string
	ExpiresAt time.Time
}

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationTypeAssetAssigned NotificationType = "asset_assigned"
	NotificationTypeAssetDamaged  NotificationType = "asset_damaged"
)

const notificationTimeout = 30 * time.Second

func assignedNotification(a model.Asset) AssetNotification {
	return AssetNotification{
		Type:      NotificationTypeAssetAssigned,
		AssetID:   a.AssetID,
		Status:    a.Status,
		Recipient: a.EmployeeEmail,
		Message:   fmt.Sprintf("%s %s (%s) has been assigned to %s", a.Category, a.AssetID, a.Model, a.AssigneeName),
		Metadata: map[string]string{
			"asset_uuid": a.ID.String(),
			"department": a.Department,
		},
	}
}

func damagedNotification(a model.Asset) AssetNotification {
	message := fmt.Sprintf("%s %s was marked Damaged", a.Category, a.AssetID)
	if a.DamageDescription != "" {
		message += ": " + a.DamageDescription
	}
	return AssetNotification{
		Type:    NotificationTypeAssetDamaged,
		AssetID: a.AssetID,
		Status:  a.Status,
		Message: message,
		Metadata: map[string]string{
			"asset_uuid": a.ID.String(),
			"location":   a.Location,
		},
	}
}

// notifyAsync sends n in the background. Failures are only logged.
func (s *AssetService) notifyAsync(n AssetNotification) {
	if s.notifier == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
		defer cancel()

		if err := s.notifier.SendAssetNotification(ctx, n); err != nil {
			s.metrics.ObserveNotificationFailure()
			s.logger.Printf("Failed to send %s notification for asset %s: %v", n.Type, n.AssetID, err)
			return
		}
		s.logger.Printf("Sent %s notification for asset %s", n.Type, n.AssetID)
	}()
}
