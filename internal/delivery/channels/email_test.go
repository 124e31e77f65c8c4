package channels

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func newTestSender(t *testing.T, send func(msgs ...*gomail.Message) error) *SMTPSender {
	t.Helper()
	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", FromEmail: "noreply@example.com", FromName: "CRM"})
	require.NoError(t, err)
	s.send = send
	return s
}

func TestNewSMTPSender_RequiresHostAndFrom(t *testing.T) {
	_, err := NewSMTPSender(SMTPConfig{FromEmail: "a@b.c"})
	assert.Error(t, err)

	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", FromEmail: "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, 587, s.cfg.Port)
}

func TestSMTPSender_Send(t *testing.T) {
	var got *gomail.Message
	s := newTestSender(t, func(msgs ...*gomail.Message) error {
		got = msgs[0]
		return nil
	})

	err := s.Send(context.Background(), []string{" ops@example.com ", ""}, "Digest", "<p>hi</p>")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"ops@example.com"}, got.GetHeader("To"))
	assert.Equal(t, []string{"Digest"}, got.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = got.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "<p>hi</p>")
}

func TestSMTPSender_Errors(t *testing.T) {
	s := newTestSender(t, func(...*gomail.Message) error { return errors.New("535 auth failed") })

	err := s.Send(context.Background(), nil, "x", "y")
	assert.Error(t, err)

	err = s.Send(context.Background(), []string{"a@b.c"}, "x", "y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "535 auth failed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Send(ctx, []string{"a@b.c"}, "x", "y")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSMTPSender_ContextTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	s := newTestSender(t, func(...*gomail.Message) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Send(ctx, []string{"a@b.c"}, "x", "y")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
