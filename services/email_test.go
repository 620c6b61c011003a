package services

import (
	"html/template"
	"testing"
)

func TestEmailService_StartWithoutSMTP(t *testing.T) {
	svc := &EmailService{templates: make(map[string]*template.Template)}

	if err := svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if svc.templates["verification"] == nil || svc.templates["password_reset"] == nil {
		t.Fatal("expected email templates to be loaded")
	}
}

func TestTestEmailConfig_RequiresConfiguration(t *testing.T) {
	svc := &EmailService{}
	if err := svc.TestEmailConfig(); err == nil {
		t.Fatal("expected error without an SMTP host")
	}

	svc.smtpHost = "smtp.example.com"
	if err := svc.TestEmailConfig(); err == nil {
		t.Fatal("expected error without a from address")
	}
}

func TestSendPlainEmail_SkipsWhenUnconfigured(t *testing.T) {
	svc := &EmailService{}
	if err := svc.SendPlainEmail("shopper@example.com", "Order update", "hi"); err != nil {
		t.Fatalf("SendPlainEmail: %v", err)
	}
}
