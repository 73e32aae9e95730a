package enums

import "fmt"

// NotificationType categorizes buyer notifications.
type NotificationType string

const (
	NotificationTypeOrderCreated       NotificationType = "order_created"
	NotificationTypeOrderStatusChanged NotificationType = "order_status_changed"
	NotificationTypePaymentSucceeded   NotificationType = "payment_succeeded"
	NotificationTypePaymentFailed      NotificationType = "payment_failed"
	NotificationTypeReturnCompleted    NotificationType = "return_completed"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderCreated,
	NotificationTypeOrderStatusChanged,
	NotificationTypePaymentSucceeded,
	NotificationTypePaymentFailed,
	NotificationTypeReturnCompleted,
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
