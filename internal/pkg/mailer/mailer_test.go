package mailer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type captureDialer struct {
	sent []*gomail.Message
}

func (c *captureDialer) DialAndSend(m ...*gomail.Message) error {
	c.sent = append(c.sent, m...)
	return nil
}

func TestSMTPMailer_RendersOTP(t *testing.T) {
	m, err := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 25, From: "no-reply@pharmacart.local"})
	require.NoError(t, err)
	d := &captureDialer{}
	m.dialer = d

	err = m.Send(Message{
		To:       "admin@pharmacart.local",
		Subject:  "Código",
		Template: TemplateOTP,
		Data:     map[string]any{"Name": "Ana", "Code": "482913", "TTLMinutes": 10},
	})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	var buf bytes.Buffer
	_, err = d.sent[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "482913")
	assert.Equal(t, []string{"admin@pharmacart.local"}, d.sent[0].GetHeader("To"))
}

func TestSMTPMailer_UnknownTemplate(t *testing.T) {
	m, err := NewSMTPMailer(SMTPConfig{})
	require.NoError(t, err)
	m.dialer = &captureDialer{}

	assert.Error(t, m.Send(Message{To: "x@y.z", Template: "inexistente"}))
}
