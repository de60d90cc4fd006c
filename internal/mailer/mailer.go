// Package mailer отправляет почтовые уведомления через SMTP.
package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"go.uber.org/zap"
)

// Sender отправляет письма через внешний SMTP-релей.
type Sender struct {
	host     string
	port     string
	username string
	password string
	from     string
	logger   *zap.Logger
}

// NewSender создаёт отправителя писем с указанными параметрами SMTP.
func NewSender(host, port, username, password, from string, logger *zap.Logger) *Sender {
	return &Sender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		logger:   logger,
	}
}

// SendTempPassword отправляет пользователю письмо с временным паролем.
// Возвращает ссылку на предпросмотр письма, если релей её предоставляет
// (для SMTP всегда пустая строка).
func (s *Sender) SendTempPassword(to, username, tempPassword string) (string, error) {
	e := email.NewEmail()
	e.From = fmt.Sprintf("Pizzas Molina <%s>", s.from)
	e.To = []string{to}
	e.Subject = "Recuperación de contraseña - Pizzas Molina"

	name := username
	if name == "" {
		name = to
	}
	e.Text = []byte(fmt.Sprintf(
		"Estimado %s\n\nSu contraseña temporal es:\n%s\n\nPor favor, cámbiela después de iniciar sesión.",
		name, tempPassword,
	))

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Error("send mail", zap.String("to", to), zap.Error(err))
		return "", fmt.Errorf("send mail: %w", err)
	}

	s.logger.Info("mail sent", zap.String("to", to), zap.String("subject", e.Subject))
	return "", nil
}
