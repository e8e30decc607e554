package rabbitmq

const (
	// ExchangeNotifications direct-обменник для всех уведомлений
	ExchangeNotifications = "notifications"

	// RoutingUpcoming подписка заканчивается завтра
	RoutingUpcoming = "upcoming"
	// RoutingReceipt кредиты списаны за документ
	RoutingReceipt = "receipt"

	QueueUpcoming = "notification.upcoming"
	QueueReceipt  = "notification.receipt"
)

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueUpcoming, RoutingKey: RoutingUpcoming},
		{QueueName: QueueReceipt, RoutingKey: RoutingReceipt},
	}
}
