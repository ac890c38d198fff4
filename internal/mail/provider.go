// Package mail owns outbound email: the provider registry and resolver,
// config validation, and the verify-then-send transport client.
package mail

import "strings"

type Provider string

const (
	ProviderGmail      Provider = "gmail"
	ProviderYahoo      Provider = "yahoo"
	ProviderOutlook365 Provider = "outlook365"
	ProviderResend     Provider = "resend"
	ProviderCustom     Provider = "custom"
)

// Config is the fully-resolved transport configuration. It is only ever
// produced by Resolve and only persisted through SettingsStore, so no
// component sees a half-filled config.
type Config struct {
	Provider  Provider `json:"provider"`
	Host      string   `json:"host"`
	Port      string   `json:"port"`
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	FromEmail string   `json:"fromEmail"`
	FromName  string   `json:"fromName"`
	Secure    bool     `json:"secure"`
	Enabled   bool     `json:"enabled"`
}

// Patch is a partial config update. Nil fields keep the current value.
type Patch struct {
	Provider  *Provider `json:"provider,omitempty"`
	Host      *string   `json:"host,omitempty"`
	Port      *string   `json:"port,omitempty"`
	Username  *string   `json:"username,omitempty"`
	Password  *string   `json:"password,omitempty"`
	FromEmail *string   `json:"fromEmail,omitempty"`
	FromName  *string   `json:"fromName,omitempty"`
	Secure    *bool     `json:"secure,omitempty"`
	Enabled   *bool     `json:"enabled,omitempty"`
}

// providerSpec keeps everything provider-specific in one table: the
// connection defaults, the overrides forced after every resolve of that
// provider, and any extra validation. Adding a provider is a table edit.
type providerSpec struct {
	Host     string
	Port     string
	Secure   bool
	Finalize func(cfg *Config)
	Validate func(cfg Config) []string
}

var providers = map[Provider]providerSpec{
	ProviderGmail: {
		Host:   "smtp.gmail.com",
		Port:   "587",
		Secure: false, // STARTTLS on 587
		Finalize: func(cfg *Config) {
			cfg.Port = "587"
			cfg.Secure = false
			if cfg.Username != "" && !strings.Contains(cfg.Username, "@") {
				cfg.Username += "@gmail.com"
			}
		},
		Validate: func(cfg Config) []string {
			if !strings.Contains(cfg.Username, "@gmail.com") {
				return []string{"Gmail requires a full @gmail.com address as the username"}
			}
			return nil
		},
	},
	ProviderYahoo: {
		Host:   "smtp.mail.yahoo.com",
		Port:   "465",
		Secure: true,
		Finalize: func(cfg *Config) {
			// Yahoo only accepts implicit TLS on 465.
			cfg.Port = "465"
			cfg.Secure = true
			if cfg.FromEmail == "" {
				cfg.FromEmail = cfg.Username
			}
		},
	},
	ProviderOutlook365: {
		Host:   "smtp.office365.com",
		Port:   "587",
		Secure: false,
		Finalize: func(cfg *Config) {
			cfg.Port = "587"
			cfg.Secure = false
		},
	},
	ProviderResend: {
		Host:   "smtp.resend.com",
		Port:   "465",
		Secure: true,
		Finalize: func(cfg *Config) {
			cfg.Secure = true
			// Unverified resend.dev senders must use the onboarding address.
			if cfg.FromEmail == "" || strings.HasSuffix(cfg.FromEmail, "@resend.dev") {
				cfg.FromEmail = "onboarding@resend.dev"
			}
		},
		Validate: func(cfg Config) []string {
			var errs []string
			if strings.HasSuffix(cfg.FromEmail, "resend.dev") && cfg.FromEmail != "onboarding@resend.dev" {
				errs = append(errs, "Resend only allows onboarding@resend.dev as a resend.dev sender; use a verified custom domain instead")
			}
			if cfg.Username != cfg.Password {
				errs = append(errs, "Resend uses the API key as both username and password; they must match")
			}
			return errs
		},
	},
	ProviderCustom: {
		Host:   "",
		Port:   "587",
		Secure: false,
	},
}

// Resolve merges a partial patch into the current config and returns a
// fully-formed result. It is pure; persisting is the caller's job.
//
// Selecting a provider (patch.Provider set) resets host, port and secure
// to that provider's defaults before applying its forced overrides, so
// re-selecting the same provider is idempotent. Without a provider
// selection, a port change re-derives the secure flag: 465 means
// implicit TLS, 587 means STARTTLS.
func Resolve(current Config, patch Patch) Config {
	out := current

	if patch.Host != nil {
		out.Host = *patch.Host
	}
	if patch.Port != nil {
		out.Port = *patch.Port
	}
	if patch.Username != nil {
		out.Username = *patch.Username
	}
	if patch.Password != nil {
		out.Password = *patch.Password
	}
	if patch.FromEmail != nil {
		out.FromEmail = *patch.FromEmail
	}
	if patch.FromName != nil {
		out.FromName = *patch.FromName
	}
	if patch.Secure != nil {
		out.Secure = *patch.Secure
	}
	if patch.Enabled != nil {
		out.Enabled = *patch.Enabled
	}

	if patch.Provider != nil {
		out.Provider = *patch.Provider
		spec, ok := providers[out.Provider]
		if !ok {
			out.Provider = ProviderCustom
			spec = providers[ProviderCustom]
		}
		if out.Provider == ProviderCustom {
			// Custom has no hard defaults; fill only what is empty.
			if out.Port == "" {
				out.Port = spec.Port
			}
		} else {
			out.Host = spec.Host
			out.Port = spec.Port
			out.Secure = spec.Secure
		}
		if spec.Finalize != nil {
			spec.Finalize(&out)
		}
		return out
	}

	if patch.Port != nil {
		switch out.Port {
		case "465":
			out.Secure = true
		case "587":
			out.Secure = false
		}
		if out.Provider == ProviderYahoo {
			out.Secure = true
		}
	}

	if out.Provider == "" {
		out.Provider = ProviderCustom
	}
	return out
}
