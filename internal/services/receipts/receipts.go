// Package receipts публикует уведомления об успешных списаниях в RabbitMQ.
package receipts

import (
	"context"
	"fmt"
	"sync"

	"github.com/magabrotheeeer/chapter-library/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/chapter-library/internal/models"
)

// Publisher пишет в обменник notifications с ключом receipt.
// Канал amqp не рассчитан на конкурентную публикацию, поэтому вызовы сериализуются.
type Publisher struct {
	mu sync.Mutex
	ch rabbitmq.Publisher
}

func New(ch rabbitmq.Publisher) *Publisher {
	return &Publisher{ch: ch}
}

func (p *Publisher) PublishReceipt(ctx context.Context, receipt models.UnlockReceipt) error {
	const op = "receipts.PublishReceipt"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := rabbitmq.PublishNotification(p.ch, rabbitmq.RoutingReceipt, receipt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
