package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"staffhub/internal/entity"

	"github.com/resend/resend-go/v2"
)

// ResendCodeNotifier delivers one-time codes and reset links through the
// Resend API. The sms and authenticator channels ride the same email
// transport for now since no gateway is provisioned for them.
type ResendCodeNotifier struct {
	Client     *resend.Client
	From       string
	AppBaseURL string
	ResetPath  string
}

func NewResendCodeNotifier(apiKey string, from string, appBaseURL string) *ResendCodeNotifier {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(from) == "" {
		return &ResendCodeNotifier{}
	}
	return &ResendCodeNotifier{
		Client:     resend.NewClient(apiKey),
		From:       from,
		AppBaseURL: strings.TrimRight(appBaseURL, "/"),
		ResetPath:  "/reset-password",
	}
}

func (n *ResendCodeNotifier) SendTwoFactorCode(ctx context.Context, email string, method entity.TwoFactorMethod, code string) error {
	if n.Client == nil {
		return errors.New("code notifier not configured")
	}
	subject := "Your login verification code"
	html := fmt.Sprintf("<p>Your verification code is:</p><p><strong>%s</strong></p><p>It expires in 10 minutes.</p>", code)
	text := fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", code)
	return n.send(ctx, email, subject, html, text)
}

func (n *ResendCodeNotifier) SendPasswordReset(ctx context.Context, email string, token string) error {
	if n.Client == nil {
		return errors.New("code notifier not configured")
	}
	link := n.buildResetURL(token)
	subject := "Reset your password"
	html := fmt.Sprintf("<p>Click to reset your password:</p><p><a href=\"%s\">Reset Password</a></p>", link)
	text := fmt.Sprintf("Reset your password: %s", link)
	return n.send(ctx, email, subject, html, text)
}

func (n *ResendCodeNotifier) buildResetURL(token string) string {
	base := strings.TrimRight(n.AppBaseURL, "/")
	if base == "" {
		return token
	}
	path := n.ResetPath
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("%s%s?token=%s", base, path, token)
}

func (n *ResendCodeNotifier) send(ctx context.Context, to string, subject string, html string, text string) error {
	params := &resend.SendEmailRequest{
		From:    n.From,
		To:      []string{to},
		Subject: subject,
		Html:    html,
		Text:    text,
	}
	_, err := n.Client.Emails.SendWithContext(ctx, params)
	return err
}
