// Package email relays notification mail from CoMIT through SMTP.
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/config"
)

// EmailMessage is a relay request.
type EmailMessage struct {
	To       []string `json:"to" binding:"required,min=1" validate:"required,min=1,dive,email"`
	CC       []string `json:"cc" validate:"omitempty,dive,email"`
	BCC      []string `json:"bcc" validate:"omitempty,dive,email"`
	Subject  string   `json:"subject" binding:"required" validate:"required,max=998"`
	Body     string   `json:"body"`
	Markdown bool     `json:"markdown"`
}

// SendFunc delivers a composed message. It matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type EmailService struct {
	cfg      config.EmailConfig
	send     SendFunc
	policy   *bluemonday.Policy
	md       goldmark.Markdown
	validate *validator.Validate
	log      *logrus.Logger
	now      func() time.Time
}

func NewEmailService(cfg config.EmailConfig, log *logrus.Logger) *EmailService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &EmailService{
		cfg:      cfg,
		policy:   bluemonday.UGCPolicy(),
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
		validate: validator.New(),
		log:      log,
		now:      time.Now,
	}
	s.send = s.sendSMTP
	return s
}

// SendEmail validates, composes and delivers the message.
func (s *EmailService) SendEmail(ctx context.Context, message *EmailMessage) error {
	const op = "EmailService.SendEmail"

	if err := s.validate.Struct(message); err != nil {
		return apperrors.Validation(op, "email message is invalid: "+err.Error())
	}
	if err := ctx.Err(); err != nil {
		return apperrors.Upstream(op, err)
	}

	raw, err := s.Compose(message)
	if err != nil {
		return apperrors.Internal(op, err)
	}

	recipients := make([]string, 0, len(message.To)+len(message.CC)+len(message.BCC))
	recipients = append(recipients, message.To...)
	recipients = append(recipients, message.CC...)
	recipients = append(recipients, message.BCC...)

	addr := net.JoinHostPort(s.cfg.SMTP.Host, strconv.Itoa(s.cfg.SMTP.Port))
	var auth smtp.Auth
	if s.cfg.SMTP.User != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTP.User, s.cfg.SMTP.Password, s.cfg.SMTP.Host)
	}

	if err := s.send(addr, auth, s.cfg.From, recipients, raw); err != nil {
		return apperrors.Upstream(op, err)
	}

	s.log.WithFields(logrus.Fields{
		"recipients": len(recipients),
		"markdown":   message.Markdown,
	}).Info("Email relayed")
	return nil
}

// Compose renders the message as MIME. Markdown bodies get a sanitized HTML
// alternative next to the plain text.
func (s *EmailService) Compose(message *EmailMessage) ([]byte, error) {
	from, err := mail.ParseAddress(s.cfg.From)
	if err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	to, err := parseAddresses(message.To)
	if err != nil {
		return nil, err
	}
	cc, err := parseAddresses(message.CC)
	if err != nil {
		return nil, err
	}

	var h mail.Header
	h.SetDate(s.now())
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", to)
	if len(cc) > 0 {
		h.SetAddressList("Cc", cc)
	}
	h.SetSubject(message.Subject)

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	tw, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("failed to create message body: %w", err)
	}

	if err := writePart(tw, "text/plain", message.Body); err != nil {
		return nil, err
	}
	if message.Markdown {
		html, err := s.renderMarkdown(message.Body)
		if err != nil {
			return nil, err
		}
		if err := writePart(tw, "text/html", html); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close message body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close message: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *EmailService) renderMarkdown(body string) (string, error) {
	var out strings.Builder
	if err := s.md.Convert([]byte(body), &out); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return s.policy.Sanitize(out.String()), nil
}

func writePart(tw *mail.InlineWriter, contentType, body string) error {
	var ph mail.InlineHeader
	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	w, err := tw.CreatePart(ph)
	if err != nil {
		return fmt.Errorf("failed to create %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return fmt.Errorf("failed to write %s part: %w", contentType, err)
	}
	return w.Close()
}

func parseAddresses(list []string) ([]*mail.Address, error) {
	addrs := make([]*mail.Address, 0, len(list))
	for _, a := range list {
		addr, err := mail.ParseAddress(a)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", a, err)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// sendSMTP sends through smtp.SendMail, or over implicit TLS when use_tls is set.
func (s *EmailService) sendSMTP(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	if !s.cfg.SMTP.UseTLS {
		return smtp.SendMail(addr, auth, from, to, msg)
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.cfg.SMTP.Host})
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.SMTP.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to add recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start data transfer: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write email data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data transfer: %w", err)
	}
	return client.Quit()
}
