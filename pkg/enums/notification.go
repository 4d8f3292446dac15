package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeLowStock          NotificationType = "low_stock"
	NotificationTypeBatchExpired      NotificationType = "batch_expired"
	NotificationTypeBatchExpiringSoon NotificationType = "batch_expiring_soon"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeLowStock,
	NotificationTypeBatchExpired,
	NotificationTypeBatchExpiringSoon,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// Title returns the human heading used when persisting a notification row.
func (n NotificationType) Title() string {
	switch n {
	case NotificationTypeLowStock:
		return "Low stock"
	case NotificationTypeBatchExpired:
		return "Batch expired"
	case NotificationTypeBatchExpiringSoon:
		return "Batch expiring soon"
	default:
		return "Stock alert"
	}
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
