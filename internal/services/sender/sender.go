// Package services содержит отправку писем по событиям из очередей уведомлений.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/chapter-library/internal/lib/sl"
	"github.com/magabrotheeeer/chapter-library/internal/lib/smtp"
	"github.com/magabrotheeeer/chapter-library/internal/models"
)

// lookupTimeout ограничивает поиск адреса получателя в базе.
const lookupTimeout = 5 * time.Second

// UserRepository ищет адрес получателя, если событие пришло без него.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

type SenderService struct {
	repo      UserRepository
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(repo UserRepository, log *slog.Logger, transport smtp.TransportInterface) *SenderService {
	return &SenderService{
		repo:      repo,
		transport: transport,
		log:       log,
	}
}

// SendInfoExpiringSubscription обрабатывает сообщение из notification.upcoming.
func (s *SenderService) SendInfoExpiringSubscription(body []byte) error {
	var message models.ExpiringSubscription
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{message.Email}
	subject := "Подписка заканчивается завтра"
	bodyText := fmt.Sprintf("Здравствуйте, %s!\n\nВаша подписка %s действует до %s.\n"+
		"После окончания эксклюзивные PDF снова будут открываться за кредиты.\n\nПродлите подписку заранее.",
		message.Username, message.Level, message.EndDate.Format("02.01.2006"))

	return s.sendEmail(to, subject, bodyText)
}

// SendUnlockReceipt обрабатывает сообщение из notification.receipt.
func (s *SenderService) SendUnlockReceipt(body []byte) error {
	var receipt models.UnlockReceipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	if receipt.Email == "" {
		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()
		user, err := s.repo.GetUser(ctx, receipt.UserUID)
		if err != nil {
			s.log.Error("failed to get user", slog.String("user_uid", receipt.UserUID), sl.Err(err))
			return fmt.Errorf("failed to get user email: %w", err)
		}
		receipt.Email = user.Email
		receipt.Username = user.Username
	}

	to := []string{receipt.Email}
	subject := fmt.Sprintf("Открыт %s PDF", receipt.VariantKind)
	bodyText := fmt.Sprintf("Здравствуйте, %s!\n\nСписано кредитов: %d.\nОстаток на балансе: %d.\nДата: %s.",
		receipt.Username, receipt.Price, receipt.Balance, receipt.ChargedAt.Format("02.01.2006 15:04"))

	return s.sendEmail(to, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		_ = wc.Close()
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
