package mail

import (
	"strings"
	"testing"
)

func validResendConfig() Config {
	return Config{
		Provider:  ProviderResend,
		Host:      "smtp.resend.com",
		Port:      "465",
		Username:  "re_key_123",
		Password:  "re_key_123",
		FromEmail: "onboarding@resend.dev",
		Secure:    true,
		Enabled:   true,
	}
}

func TestValidate_DisabledAlwaysPasses(t *testing.T) {
	cfg := Config{Provider: ProviderGmail, Username: "not-an-email", Enabled: false}
	if errs := Validate(cfg); len(errs) != 0 {
		t.Errorf("Disabled config must never produce errors, got %v", errs)
	}
}

func TestValidate_RequiredFields(t *testing.T) {
	cfg := Config{Provider: ProviderCustom, Enabled: true}
	errs := Validate(cfg)
	if len(errs) < 5 {
		t.Fatalf("Expected an error per missing field, got %v", errs)
	}
	for _, want := range []string{"host", "port", "username", "password", "from email"} {
		found := false
		for _, e := range errs {
			if strings.HasPrefix(e, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected an error mentioning %q, got %v", want, errs)
		}
	}
}

func TestValidate_FromEmailPattern(t *testing.T) {
	cfg := Config{
		Provider: ProviderCustom, Host: "mail.example.com", Port: "587",
		Username: "u", Password: "p", FromEmail: "not-an-address", Enabled: true,
	}
	errs := Validate(cfg)
	if len(errs) != 1 || !strings.Contains(errs[0], "not a valid address") {
		t.Errorf("Expected a single from-email pattern error, got %v", errs)
	}
}

func TestValidate_Resend(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid onboarding sender", func(c *Config) {}, ""},
		{
			"valid custom domain",
			func(c *Config) { c.FromEmail = "reports@company.example" },
			"",
		},
		{
			"mismatched api key",
			func(c *Config) { c.Password = "other" },
			"API key",
		},
		{
			"unverified resend.dev sender",
			func(c *Config) { c.FromEmail = "me@resend.dev" },
			"onboarding@resend.dev",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validResendConfig()
			tt.mutate(&cfg)
			errs := Validate(cfg)
			if tt.wantErr == "" {
				if len(errs) != 0 {
					t.Errorf("Expected no errors, got %v", errs)
				}
				return
			}
			found := false
			for _, e := range errs {
				if strings.Contains(e, tt.wantErr) {
					found = true
				}
			}
			if !found {
				t.Errorf("Expected an error containing %q, got %v", tt.wantErr, errs)
			}
		})
	}
}

func TestValidate_GmailUsername(t *testing.T) {
	cfg := Config{
		Provider: ProviderGmail, Host: "smtp.gmail.com", Port: "587",
		Username: "alice@corp.example", Password: "p",
		FromEmail: "alice@corp.example", Enabled: true,
	}
	errs := Validate(cfg)
	if len(errs) != 1 || !strings.Contains(errs[0], "@gmail.com") {
		t.Errorf("Expected a gmail username error, got %v", errs)
	}

	cfg.Username = "alice@gmail.com"
	if errs := Validate(cfg); len(errs) != 0 {
		t.Errorf("Expected valid config, got %v", errs)
	}
}
