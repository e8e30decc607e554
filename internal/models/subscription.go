package models

import "time"

// SubscriptionLevel уровень подписки. Имеет смысл только при активной подписке.
type SubscriptionLevel string

const (
	// SubscriptionBasic не открывает платные эксклюзивные материалы.
	SubscriptionBasic SubscriptionLevel = "BASIC"
	// SubscriptionUltra открывает все платные материалы.
	SubscriptionUltra SubscriptionLevel = "ULTRA"
)

// ExpiringSubscription сообщение планировщика о подписке, которая заканчивается завтра.
type ExpiringSubscription struct {
	Email    string            `json:"email"`
	Username string            `json:"username"`
	Level    SubscriptionLevel `json:"level"`
	EndDate  time.Time         `json:"end_date"`
}
