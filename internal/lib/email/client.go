// Package email sends transactional email through Resend.
//
// Bodies are rendered from the HTML templates embedded in the binary.
package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/deppfellow/classroom/internal/config"

	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type Client struct {
	client *resend.Client
	from   string
	logger *zerolog.Logger
}

// NewClient returns nil when no Resend API key is configured.
func NewClient(cfg *config.Config, logger *zerolog.Logger) *Client {
	if cfg.Integration.ResendAPIKey == "" {
		logger.Info().Msg("resend api key not provided, outgoing email disabled")
		return nil
	}

	return &Client{
		client: resend.NewClient(cfg.Integration.ResendAPIKey),
		from:   cfg.Integration.EmailFrom,
		logger: logger,
	}
}

// SendEmail renders templateName with data and sends it to a single recipient.
func (c *Client) SendEmail(ctx context.Context, to, subject string, templateName Template, data map[string]string) error {
	body, err := Render(templateName, data)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}

	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return errors.Wrapf(err, "failed to send %s email", templateName)
	}

	c.logger.Debug().
		Str("template", string(templateName)).
		Str("email_id", sent.Id).
		Msg("email sent")

	return nil
}

// Render executes the named template into an HTML string.
func Render(templateName Template, data map[string]string) (string, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, fmt.Sprintf("%s.html", templateName), data); err != nil {
		return "", errors.Wrapf(err, "failed to execute email template %s", templateName)
	}
	return body.String(), nil
}
