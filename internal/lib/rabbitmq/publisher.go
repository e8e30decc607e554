package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// Publisher канал, в который можно публиковать сообщения. *amqp.Channel подходит.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// PublishMessage публикует сообщение в RabbitMQ в формате JSON.
// Каждое сообщение получает уникальный MessageId и время публикации.
func PublishMessage(ch Publisher, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
		DeliveryMode: amqp.Persistent,
	}
	if err := ch.Publish(exchange, routingkey, false, false, msg); err != nil {
		return fmt.Errorf("%s: %s/%s: %w", op, exchange, routingkey, err)
	}
	return nil
}

// PublishNotification публикует уведомление в обменник notifications.
func PublishNotification(ch Publisher, routingKey string, message any) error {
	return PublishMessage(ch, ExchangeNotifications, routingKey, message)
}
