package mailer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/skyport/config"
	"github.com/oksasatya/skyport/pkg/helpers"
	"github.com/oksasatya/skyport/pkg/mailer/templates"
)

type fakePublisher struct {
	jobs []any
	err  error
}

func (f *fakePublisher) PublishJSON(_ context.Context, body any) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, body)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{AppName: "SkyPort", CompanyName: "SkyPort", SupportURL: "https://skyport.example/help"}
}

func TestQueueNotifier_PublishesConfirmationJob(t *testing.T) {
	pub := &fakePublisher{}
	n := NewQueueNotifier(pub, testConfig())

	require.NoError(t, n.SendConfirmation(context.Background(), "alice@example.com", "http://localhost:8080/confirm_email/tok"))
	require.Len(t, pub.jobs, 1)

	job, ok := pub.jobs[0].(EmailJob)
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", job.To)
	assert.Equal(t, templates.ConfirmEmail, job.Template)
	assert.Equal(t, "http://localhost:8080/confirm_email/tok", job.Data["ConfirmURL"])
	assert.True(t, job.Valid())
}

func TestQueueNotifier_PublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	n := NewQueueNotifier(pub, testConfig())

	err := n.SendConfirmation(context.Background(), "alice@example.com", "link")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel closed")
}

func TestLogNotifier(t *testing.T) {
	n := &LogNotifier{Logger: helpers.NewDiscardLogger()}
	assert.NoError(t, n.SendConfirmation(context.Background(), "a@example.com", "link"))

	n.Fail = true
	assert.ErrorIs(t, n.SendConfirmation(context.Background(), "a@example.com", "link"), ErrMailDisabled)
}

func TestRenderConfirmEmail(t *testing.T) {
	cfg := testConfig()
	cfg.ConfirmTokenTTL = 24 * time.Hour
	job := ConfirmationJob(cfg, "bob@example.com", "http://localhost:8080/confirm_email/abc")

	subject, text, html, err := templates.Render(job.Template, job.Data)
	require.NoError(t, err)
	assert.Equal(t, "Thank You For Joining SkyPort!", subject)
	assert.Contains(t, text, "http://localhost:8080/confirm_email/abc")
	assert.Contains(t, text, "This link expires on")
	assert.Contains(t, html, `href="http://localhost:8080/confirm_email/abc"`)
}

func TestRenderConfirmEmail_NoExpiry(t *testing.T) {
	job := ConfirmationJob(testConfig(), "bob@example.com", "http://x/confirm_email/abc")
	_, text, _, err := templates.Render(job.Template, job.Data)
	require.NoError(t, err)
	assert.NotContains(t, text, "expires")
}

func TestEmailJob_NormalizeAndValid(t *testing.T) {
	j := EmailJob{To: "c@example.com", Template: templates.ConfirmEmail}
	j.Normalize()
	assert.Equal(t, "c@example.com", j.Data["Email"])
	assert.Equal(t, "c@example.com", j.Data["RecipientEmail"])
	assert.True(t, j.Valid())

	assert.False(t, (&EmailJob{To: "c@example.com"}).Valid())
	assert.False(t, (&EmailJob{Template: templates.ConfirmEmail}).Valid())
	assert.True(t, (&EmailJob{To: "c@example.com", Subject: "s", Text: "t"}).Valid())
}

func TestSenderAddress(t *testing.T) {
	assert.Equal(t, "SkyPort <noreply@skyport.example>", SenderAddress("SkyPort", "noreply@skyport.example"))
	assert.Equal(t, "noreply@skyport.example", SenderAddress("", "noreply@skyport.example"))
	assert.Equal(t, "Ops <ops@x>", SenderAddress("SkyPort", "Ops <ops@x>"))
}
