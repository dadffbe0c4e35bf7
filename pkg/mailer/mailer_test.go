package mailer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igdownloader/pkg/config"
	"igdownloader/pkg/errors"
)

func TestMessageValidate(t *testing.T) {
	valid := Message{Name: "Jane", Email: "jane@example.com", Subject: "Hi", Message: "Hello"}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Message)
	}{
		{"missing name", func(m *Message) { m.Name = "" }},
		{"missing email", func(m *Message) { m.Email = "" }},
		{"missing subject", func(m *Message) { m.Subject = "" }},
		{"missing message", func(m *Message) { m.Message = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := valid
			tt.mutate(&msg)
			err := msg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidInput))
		})
	}
}

func TestBuildMessage(t *testing.T) {
	msg := &Message{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Subject: "Broken download",
		Message: "The reel link does not work.",
	}

	raw := string(BuildMessage("noreply@site.test", "support@site.test", msg))

	assert.Contains(t, raw, "From: Website Contact <noreply@site.test>\r\n")
	assert.Contains(t, raw, "To: support@site.test\r\n")
	assert.Contains(t, raw, "Reply-To: jane@example.com\r\n")
	assert.Contains(t, raw, "Subject: [Contact Form] Broken download\r\n")
	assert.Contains(t, raw, "The reel link does not work.")

	// Headers and body are separated by a blank line
	headerEnd := strings.Index(raw, "\r\n\r\n")
	require.Positive(t, headerEnd)
	assert.Contains(t, raw[headerEnd:], "Name: Jane Doe")
}

func TestSendUnconfigured(t *testing.T) {
	m := New(config.SMTPConfig{}, nil)
	err := m.Send(&Message{Name: "a", Email: "b", Subject: "c", Message: "d"})
	require.Error(t, err)
	assert.False(t, errors.IsType(err, errors.ErrorTypeInvalidInput))
}

func TestSendInvalidMessage(t *testing.T) {
	m := New(config.SMTPConfig{Host: "mail.test", User: "u", To: "t"}, nil)
	err := m.Send(&Message{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidInput))
}
