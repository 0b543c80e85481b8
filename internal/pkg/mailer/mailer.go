// Package mailer envia e-mails transacionais (OTP, confirmação de pedido, contato) via SMTP.
package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"gopkg.in/gomail.v2"
)

//go:embed templates/*
var templatesFS embed.FS

// Templates disponíveis.
const (
	TemplateOTP               = "otp"
	TemplateOrderConfirmation = "order_confirmation"
	TemplateContact           = "contact"
)

// Message é um e-mail a ser renderizado e enviado.
type Message struct {
	To       string
	Subject  string
	Template string
	Data     any
}

// Mailer é o contrato usado pelos serviços.
type Mailer interface {
	Send(msg Message) error
}

// SMTPConfig são os parâmetros do servidor de saída.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer renderiza os templates embutidos e envia com gomail.
type SMTPMailer struct {
	from   string
	dialer dialer
	html   *htmltemplate.Template
	text   *texttemplate.Template
}

// NewSMTPMailer carrega os templates e prepara o dialer.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	html, err := htmltemplate.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("falha ao carregar templates html: %w", err)
	}
	text, err := texttemplate.ParseFS(templatesFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("falha ao carregar templates txt: %w", err)
	}
	return &SMTPMailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		html:   html,
		text:   text,
	}, nil
}

// Send renderiza as versões texto e HTML e entrega a mensagem.
func (m *SMTPMailer) Send(msg Message) error {
	msgOut, err := m.build(msg)
	if err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(msgOut); err != nil {
		return fmt.Errorf("falha ao enviar e-mail para %s: %w", msg.To, err)
	}
	return nil
}

func (m *SMTPMailer) build(msg Message) (*gomail.Message, error) {
	var plain, html bytes.Buffer
	if err := m.text.ExecuteTemplate(&plain, msg.Template+".txt", msg.Data); err != nil {
		return nil, fmt.Errorf("render txt %s: %w", msg.Template, err)
	}
	if err := m.html.ExecuteTemplate(&html, msg.Template+".html", msg.Data); err != nil {
		return nil, fmt.Errorf("render html %s: %w", msg.Template, err)
	}

	out := gomail.NewMessage()
	out.SetHeader("From", m.from)
	out.SetHeader("To", msg.To)
	out.SetHeader("Subject", msg.Subject)
	out.SetBody("text/plain", plain.String())
	out.AddAlternative("text/html", html.String())
	return out, nil
}

// NopMailer descarta as mensagens (SMTP não configurado).
type NopMailer struct{}

func (NopMailer) Send(Message) error { return nil }
