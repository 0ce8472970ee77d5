// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: platform@inkwell.app

/*
Package mail provides outbound templated email delivery for the Inkwell platform.

It is an Infrastructure component injected into the Application layer through
the [Mailer] interface, so domain services never touch SMTP directly and tests
can substitute an in-memory fake.

Delivery model:

  - Single attempt, synchronous. A failed send is reported to the caller;
    there is no retry queue or circuit breaker.
  - Templated bodies rendered with html/template at construction time.
*/
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// Mailer defines the contract for sending account-lifecycle emails.
type Mailer interface {
	// SendActivationCode delivers the activation code to the given address.
	// The expiry is included so the recipient knows how long the code lasts.
	SendActivationCode(ctx context.Context, to, username, code string, expiresAt time.Time) error
}

// activationTemplate is the HTML body of the activation message.
//
// Kept deliberately austere: transactional mail renders in clients that
// strip most styling anyway.
const activationTemplate = `<html>
<body>
  <p>Hi {{.Username}},</p>
  <p>Welcome to Inkwell. Use the code below to activate your account:</p>
  <p><strong>{{.Code}}</strong></p>
  <p>The code is valid until {{.ExpiresAt}}.</p>
  <p>If you did not create this account, you can ignore this message.</p>
</body>
</html>`

// SMTPMailer implements [Mailer] on top of an SMTP relay using go-mail.
type SMTPMailer struct {
	client   *gomail.Client
	from     string
	template *template.Template
}

// SMTPConfig holds the relay settings consumed by [NewSMTPMailer].
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewSMTPMailer constructs an [SMTPMailer] and validates the template and
// relay options eagerly, so misconfiguration fails at startup rather than
// on the first registration.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	parsedTemplate, err := template.New("activation").Parse(activationTemplate)
	if err != nil {
		return nil, fmt.Errorf("mail: failed to parse activation template: %w", err)
	}

	options := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		options = append(options,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, options...)
	if err != nil {
		return nil, fmt.Errorf("mail: failed to create SMTP client: %w", err)
	}

	return &SMTPMailer{
		client:   client,
		from:     cfg.From,
		template: parsedTemplate,
	}, nil
}

// SendActivationCode renders the activation template and delivers it.
//
// # Failure Semantics
//
// Errors are returned verbatim (wrapped) to the caller; the orchestration
// layer decides how a delivery failure maps onto the API response. No
// partial-success is possible: either the relay accepted the message or the
// call failed.
func (mailer *SMTPMailer) SendActivationCode(ctx context.Context, to, username, code string, expiresAt time.Time) error {
	var body bytes.Buffer
	err := mailer.template.Execute(&body, map[string]string{
		"Username":  username,
		"Code":      code,
		"ExpiresAt": expiresAt.Format(time.RFC1123),
	})
	if err != nil {
		return fmt.Errorf("mail: failed to render activation template: %w", err)
	}

	message := gomail.NewMsg()
	if err := message.From(mailer.from); err != nil {
		return fmt.Errorf("mail: invalid from address: %w", err)
	}
	if err := message.To(to); err != nil {
		return fmt.Errorf("mail: invalid recipient address: %w", err)
	}
	message.Subject("Activate your Inkwell account")
	message.SetBodyString(gomail.TypeTextHTML, body.String())

	if err := mailer.client.DialAndSendWithContext(ctx, message); err != nil {
		return fmt.Errorf("mail: failed to send activation message: %w", err)
	}

	return nil
}
