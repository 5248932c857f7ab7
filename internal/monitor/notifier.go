package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/painelclima/api/internal/config"
)

// Notifier envia alertas de indisponibilidade para canais externos.
type Notifier interface {
	Notify(ctx context.Context, msg AlertMessage) error
}

// AlertMessage descreve o alerta emitido pelo monitor.
type AlertMessage struct {
	Title    string
	Text     string
	Severity string
}

// SlackNotifier publica alertas em um webhook do Slack.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier cria o canal Slack; URL vazia desabilita o canal.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	if webhookURL == "" {
		return nil
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *SlackNotifier) Notify(ctx context.Context, msg AlertMessage) error {
	if s == nil || s.webhookURL == "" {
		return errors.New("slack notifier não configurado")
	}

	payload := map[string]any{
		"text": fmt.Sprintf("[%s] %s\n%s", msg.Severity, msg.Title, msg.Text),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook: status %d", resp.StatusCode)
	}
	return nil
}

// EmailNotifier envia alertas por SMTP.
type EmailNotifier struct {
	client *mail.Client
	from   string
	to     []string
}

// NewEmailNotifier cria o canal de e-mail a partir da configuração SMTP.
// Host vazio desabilita o canal.
func NewEmailNotifier(cfg config.MonitorConfig) (*EmailNotifier, error) {
	if cfg.SMTPHost == "" || cfg.AlertFrom == "" || len(cfg.AlertTo) == 0 {
		return nil, nil
	}

	client, err := mail.NewClient(cfg.SMTPHost,
		mail.WithPort(cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.SMTPUser),
		mail.WithPassword(cfg.SMTPPass),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp: %w", err)
	}

	return &EmailNotifier{client: client, from: cfg.AlertFrom, to: cfg.AlertTo}, nil
}

func (e *EmailNotifier) Notify(ctx context.Context, msg AlertMessage) error {
	m := mail.NewMsg()
	if err := m.From(e.from); err != nil {
		return err
	}
	if err := m.To(e.to...); err != nil {
		return err
	}
	m.Subject(fmt.Sprintf("[painel-clima] %s", msg.Title))
	m.SetBodyString(mail.TypeTextPlain, msg.Text)

	return e.client.DialAndSendWithContext(ctx, m)
}
