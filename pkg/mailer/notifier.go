package mailer

import (
	"context"
	"fmt"
)

// TemplateOtpEmail is the single code-delivery template used for both
// registration verification and password reset.
const TemplateOtpEmail = "otp_email"

// OTP purposes carried in the email job data; the worker picks the subject
// line from this.
const (
	PurposeVerification  = "verification"
	PurposePasswordReset = "password_reset"
)

// SubjectFor maps an OTP purpose to the email subject.
func SubjectFor(purpose string) string {
	switch purpose {
	case PurposePasswordReset:
		return "Password Reset Code for Your Account"
	default:
		return "OTP Verification for Your Account"
	}
}

// Publisher is the queue the notifier hands jobs to.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueNotifier enqueues OTP emails for the worker to deliver. Delivery is
// at-least-once and unordered; a publish failure is the caller's signal that
// the code was not dispatched.
type QueueNotifier struct {
	Pub     Publisher
	Enabled bool
}

func NewQueueNotifier(pub Publisher, enabled bool) *QueueNotifier {
	return &QueueNotifier{Pub: pub, Enabled: enabled}
}

func (n *QueueNotifier) SendOtp(ctx context.Context, to, name, code, purpose string) error {
	if !n.Enabled {
		return nil
	}
	if n.Pub == nil {
		return fmt.Errorf("email queue not configured")
	}
	job := EmailJob{
		To:       to,
		Template: TemplateOtpEmail,
		Data: map[string]any{
			"Name":    name,
			"Email":   to,
			"Code":    code,
			"Purpose": purpose,
		},
	}
	return n.Pub.PublishJSON(ctx, job)
}
