// Package smtp предоставляет интерфейсы для работы с SMTP.
package smtp

import (
	"errors"
	"io"
)

// ErrNoStartTLS сервер не поддерживает STARTTLS, письма без шифрования не отправляются.
var ErrNoStartTLS = errors.New("smtp server does not support STARTTLS")

// Client интерфейс для SMTP клиента.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface интерфейс для SMTP транспорта.
type TransportInterface interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
