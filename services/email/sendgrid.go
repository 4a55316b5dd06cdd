package emailsvc

import (
	"net/http"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/eduenglish/backend/core"
)

const (
	sendAttempts = 3
	category     = "eduenglish"
)

// mailSender is the part of the SendGrid client used to deliver messages.
type mailSender interface {
	Send(email *sgmail.SGMailV3) (*rest.Response, error)
}

type sendgridService struct {
	conf       *core.Config
	client     mailSender
	from       *sgmail.Email
	subjPrefix string
	backoff    time.Duration
	logger     core.Logger
}

var _ core.EmailService = (*sendgridService)(nil)

// NewSendgridService returns an EmailService delivering messages through the SendGrid v3 API.
func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	return newSendgridService(conf, sendgrid.NewSendClient(conf.SendgridApiKey), logger)
}

func newSendgridService(conf *core.Config, client mailSender, logger core.Logger) *sendgridService {
	return &sendgridService{
		conf:       conf,
		client:     client,
		from:       sgmail.NewEmail(conf.DefaultFromEmail.Name, conf.DefaultFromEmail.Address),
		subjPrefix: "[" + conf.AppName + "] ",
		backoff:    time.Second,
		logger:     logger,
	}
}

func (svc *sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go func() {
			if err := svc.deliver(msg); err != nil {
				svc.logger.Error("sending email", err, map[string]interface{}{"template": msg.TemplateName})
			}
		}()
	}
}

// deliver renders msg and sends it; messages without recipients or content are dropped.
func (svc *sendgridService) deliver(msg *core.EmailMessage) error {
	if err := msg.Render(svc.conf); err != nil {
		return errors.Wrap(err, "rendering email")
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		return nil
	}
	return svc.send(svc.prepare(*msg))
}

func (svc *sendgridService) prepare(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgEmail(to))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	if msg.TextContent != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	}
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	m.AddCategories(category)
	if msg.TemplateName != "" {
		m.AddCategories(msg.TemplateName)
	}
	return m
}

// send retries throttled requests and server errors, waiting a little longer each time.
func (svc *sendgridService) send(m *sgmail.SGMailV3) error {
	var err error
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		var res *rest.Response
		res, err = svc.client.Send(m)
		switch {
		case err != nil:
			err = errors.Wrap(err, "calling sendgrid")
		case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError:
			err = errors.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
		case res.StatusCode >= http.StatusBadRequest:
			return errors.Errorf("sendgrid rejected the message, status %d: %s", res.StatusCode, res.Body)
		default:
			return nil
		}
		if attempt < sendAttempts {
			time.Sleep(time.Duration(attempt) * svc.backoff)
		}
	}
	return err
}

func sgEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}
