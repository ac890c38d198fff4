package mail

import "testing"

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestResolve_ProviderDefaults(t *testing.T) {
	tests := []struct {
		name       string
		provider   Provider
		current    Config
		wantHost   string
		wantPort   string
		wantSecure bool
	}{
		{"gmail", ProviderGmail, Config{}, "smtp.gmail.com", "587", false},
		{"yahoo", ProviderYahoo, Config{}, "smtp.mail.yahoo.com", "465", true},
		{"outlook365", ProviderOutlook365, Config{}, "smtp.office365.com", "587", false},
		{"resend", ProviderResend, Config{}, "smtp.resend.com", "465", true},
		{
			name:     "switch resets stale host",
			provider: ProviderYahoo,
			current:  Config{Provider: ProviderGmail, Host: "smtp.gmail.com", Port: "587"},
			wantHost: "smtp.mail.yahoo.com", wantPort: "465", wantSecure: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.current, Patch{Provider: &tt.provider})
			if got.Host != tt.wantHost || got.Port != tt.wantPort || got.Secure != tt.wantSecure {
				t.Errorf("Resolve() = host=%s port=%s secure=%v, want host=%s port=%s secure=%v",
					got.Host, got.Port, got.Secure, tt.wantHost, tt.wantPort, tt.wantSecure)
			}
		})
	}
}

func TestResolve_Idempotent(t *testing.T) {
	for _, p := range []Provider{ProviderGmail, ProviderYahoo, ProviderOutlook365, ProviderResend, ProviderCustom} {
		once := Resolve(Config{Username: "someone", Password: "secret"}, Patch{Provider: &p})
		twice := Resolve(once, Patch{Provider: &p})
		if once != twice {
			t.Errorf("provider %s: resolving twice differs: %+v vs %+v", p, once, twice)
		}
	}
}

func TestResolve_GmailUsernameSuffix(t *testing.T) {
	p := ProviderGmail
	got := Resolve(Config{Username: "alice"}, Patch{Provider: &p})
	if got.Username != "alice@gmail.com" {
		t.Errorf("Expected auto-suffixed username, got %q", got.Username)
	}

	got = Resolve(Config{Username: "alice@corp.example"}, Patch{Provider: &p})
	if got.Username != "alice@corp.example" {
		t.Errorf("Username with @ must not be touched, got %q", got.Username)
	}
}

func TestResolve_ResendFromDefault(t *testing.T) {
	p := ProviderResend
	got := Resolve(Config{}, Patch{Provider: &p})
	if got.FromEmail != "onboarding@resend.dev" {
		t.Errorf("Expected onboarding@resend.dev default, got %q", got.FromEmail)
	}

	// A verified custom domain must survive the switch.
	got = Resolve(Config{FromEmail: "ops@company.example"}, Patch{Provider: &p})
	if got.FromEmail != "ops@company.example" {
		t.Errorf("Custom domain sender must be kept, got %q", got.FromEmail)
	}
}

func TestResolve_PortDerivesSecure(t *testing.T) {
	cfg := Config{Provider: ProviderCustom, Host: "mail.example.com", Port: "587", Secure: false}

	got := Resolve(cfg, Patch{Port: strPtr("465")})
	if !got.Secure {
		t.Error("port 465 must derive secure=true")
	}

	got = Resolve(got, Patch{Port: strPtr("587")})
	if got.Secure {
		t.Error("port 587 must derive secure=false")
	}

	// Yahoo keeps implicit TLS no matter what the port says.
	p := ProviderYahoo
	yahoo := Resolve(Config{}, Patch{Provider: &p})
	got = Resolve(yahoo, Patch{Port: strPtr("587")})
	if !got.Secure {
		t.Error("yahoo must stay secure=true on port changes")
	}
}

func TestResolve_YahooFromMirrorsUsername(t *testing.T) {
	p := ProviderYahoo
	got := Resolve(Config{Username: "me@yahoo.com"}, Patch{Provider: &p})
	if got.FromEmail != "me@yahoo.com" {
		t.Errorf("Expected fromEmail to mirror username, got %q", got.FromEmail)
	}

	got = Resolve(Config{Username: "me@yahoo.com", FromEmail: "other@yahoo.com"}, Patch{Provider: &p})
	if got.FromEmail != "other@yahoo.com" {
		t.Errorf("Explicit fromEmail must be kept, got %q", got.FromEmail)
	}
}

func TestResolve_EndToEndGmailToYahoo(t *testing.T) {
	gmail := ProviderGmail
	cfg := Resolve(Config{}, Patch{
		Provider:  &gmail,
		Username:  strPtr("a@gmail.com"),
		Password:  strPtr("x"),
		FromEmail: strPtr("a@gmail.com"),
		Enabled:   boolPtr(true),
	})
	if errs := Validate(cfg); len(errs) != 0 {
		t.Fatalf("Expected valid gmail config, got errors: %v", errs)
	}
	if cfg.Port != "587" || cfg.Secure {
		t.Fatalf("Expected gmail 587/secure=false, got %s/%v", cfg.Port, cfg.Secure)
	}

	yahoo := ProviderYahoo
	switched := Resolve(cfg, Patch{Provider: &yahoo})
	if switched.Port != "465" || !switched.Secure {
		t.Errorf("Expected yahoo 465/secure=true, got %s/%v", switched.Port, switched.Secure)
	}
}
