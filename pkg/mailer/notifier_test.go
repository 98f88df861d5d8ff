package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	jobs []any
	fail error
}

func (p *capturePublisher) PublishJSON(_ context.Context, body any) error {
	if p.fail != nil {
		return p.fail
	}
	p.jobs = append(p.jobs, body)
	return nil
}

func TestQueueNotifierPublishesJob(t *testing.T) {
	pub := &capturePublisher{}
	n := NewQueueNotifier(pub, true)

	require.NoError(t, n.SendOtp(context.Background(), "a@b.co", "A", "123456", PurposeVerification))
	require.Len(t, pub.jobs, 1)

	job, ok := pub.jobs[0].(EmailJob)
	require.True(t, ok)
	assert.Equal(t, "a@b.co", job.To)
	assert.Equal(t, TemplateOtpEmail, job.Template)
	assert.Equal(t, "123456", job.Data["Code"])
	assert.Equal(t, PurposeVerification, job.Data["Purpose"])
}

func TestQueueNotifierDisabledIsNoop(t *testing.T) {
	pub := &capturePublisher{fail: errors.New("should not be called")}
	n := NewQueueNotifier(pub, false)
	assert.NoError(t, n.SendOtp(context.Background(), "a@b.co", "A", "123456", PurposeVerification))
}

func TestQueueNotifierSurfacesPublishFailure(t *testing.T) {
	pub := &capturePublisher{fail: errors.New("broker down")}
	n := NewQueueNotifier(pub, true)
	assert.Error(t, n.SendOtp(context.Background(), "a@b.co", "A", "123456", PurposeVerification))

	// enabled but never wired to a broker
	n = NewQueueNotifier(nil, true)
	assert.Error(t, n.SendOtp(context.Background(), "a@b.co", "A", "123456", PurposeVerification))
}

func TestSubjectFor(t *testing.T) {
	assert.NotEqual(t, SubjectFor(PurposeVerification), SubjectFor(PurposePasswordReset))
	assert.Equal(t, SubjectFor(PurposeVerification), SubjectFor("unknown"))
}
