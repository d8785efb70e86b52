package email

import "context"

// SendWelcomeEmail greets a newly registered user.
func (c *Client) SendWelcomeEmail(ctx context.Context, to, name, role string) error {
	return c.SendEmail(ctx, to, "Welcome to Classroom!", TemplateWelcome, map[string]string{
		"UserName": name,
		"UserRole": role,
	})
}
