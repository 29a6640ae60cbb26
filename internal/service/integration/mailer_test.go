package integration

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSMTPMailerRequiresHost(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{From: "noreply@pfe.test"}, zerolog.Nop())
	err := m.Send(context.Background(), []string{"a@pfe.test"}, "subject", "<p>hi</p>")
	if !errors.Is(err, ErrMailerNotConfigured) {
		t.Fatalf("expected ErrMailerNotConfigured, got %v", err)
	}
}

func TestSMTPMailerNoRecipients(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{}, zerolog.Nop())
	if err := m.Send(context.Background(), nil, "subject", "body"); err != nil {
		t.Fatalf("send to nobody: %v", err)
	}
}

func TestRenderMailEscapes(t *testing.T) {
	html := RenderMail("<Sara>", `Your report "x" was rejected`)
	if strings.Contains(html, "<Sara>") {
		t.Fatalf("name not escaped: %s", html)
	}
	if !strings.Contains(html, "&lt;Sara&gt;") || !strings.Contains(html, "rejected") {
		t.Fatalf("html = %s", html)
	}
	if !strings.Contains(RenderMail("", "m"), "Hello there") {
		t.Fatalf("empty name fallback missing")
	}
}
