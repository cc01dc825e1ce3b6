package email

import (
	"bytes"
	"context"
	"html/template"
	"sync"

	"github.com/rs/zerolog/log"
)

// Sender delivers a rendered message
type Sender interface {
	Send(ctx context.Context, msg *EmailMessage) error
}

// Service renders templates and sends them from a background queue
type Service struct {
	sender       Sender
	templates    map[string]*template.Template
	baseTemplate *template.Template
	queue        chan *QueuedEmail
	wg           sync.WaitGroup
}

// QueuedEmail represents an email in the send queue
type QueuedEmail struct {
	To           string
	ToName       string
	Subject      string
	TemplateName string
	Data         interface{}
}

// TokensPurchased is the data rendered into the receipt
type TokensPurchased struct {
	OrderID      string
	Tokens       int64
	Amount       string
	Currency     string
	Provider     string
	DashboardURL string
}

const templateTokensPurchased = "tokens_purchased"

// NewService creates an email service backed by SendGrid
func NewService(config SendGridConfig) *Service {
	return NewServiceWithSender(NewSendGridClient(config))
}

// NewServiceWithSender starts the queue worker around any Sender
func NewServiceWithSender(sender Sender) *Service {
	s := &Service{
		sender:    sender,
		templates: make(map[string]*template.Template),
		queue:     make(chan *QueuedEmail, 100),
	}

	s.baseTemplate = template.Must(template.New("base").Parse(BaseTemplate))
	s.templates[templateTokensPurchased] = template.Must(template.New(templateTokensPurchased).Parse(TokensPurchasedTemplate))

	s.wg.Add(1)
	go s.worker()

	return s
}

// worker processes queued emails asynchronously
func (s *Service) worker() {
	defer s.wg.Done()

	for email := range s.queue {
		if err := s.send(context.Background(), email); err != nil {
			log.Error().Err(err).
				Str("to", email.To).
				Str("template", email.TemplateName).
				Msg("Failed to send email")
		}
	}
}

func (s *Service) send(ctx context.Context, email *QueuedEmail) error {
	tmpl, ok := s.templates[email.TemplateName]
	if !ok {
		log.Warn().Str("template", email.TemplateName).Msg("Template not found")
		return nil
	}

	var contentBuf bytes.Buffer
	if err := tmpl.Execute(&contentBuf, email.Data); err != nil {
		return err
	}

	var htmlBuf bytes.Buffer
	if err := s.baseTemplate.Execute(&htmlBuf, map[string]interface{}{
		"Content": template.HTML(contentBuf.String()),
	}); err != nil {
		return err
	}

	return s.sender.Send(ctx, &EmailMessage{
		To:          email.To,
		ToName:      email.ToName,
		Subject:     email.Subject,
		HTMLContent: htmlBuf.String(),
	})
}

// Queue adds an email to the async send queue; a full queue drops the message
func (s *Service) Queue(to, toName, templateName, subject string, data interface{}) bool {
	select {
	case s.queue <- &QueuedEmail{
		To:           to,
		ToName:       toName,
		Subject:      subject,
		TemplateName: templateName,
		Data:         data,
	}:
		return true
	default:
		log.Warn().Str("to", to).Msg("Email queue full, dropping email")
		return false
	}
}

// Close stops the worker after draining the queue
func (s *Service) Close() {
	close(s.queue)
	s.wg.Wait()
}

// SendTokensPurchased queues the purchase receipt
func (s *Service) SendTokensPurchased(to string, data TokensPurchased) bool {
	if to == "" {
		return false
	}
	return s.Queue(to, "", templateTokensPurchased, "Your tokens are ready", data)
}
