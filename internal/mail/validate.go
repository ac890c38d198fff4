package mail

import (
	"fmt"
	"regexp"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like a deliverable address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Validate returns the ordered list of problems with a resolved config.
// An empty list means the config may be persisted with Enabled=true.
// Disabled configs are never checked.
func Validate(cfg Config) []string {
	if !cfg.Enabled {
		return nil
	}

	var errs []string
	required := []struct {
		name  string
		value string
	}{
		{"host", cfg.Host},
		{"port", cfg.Port},
		{"username", cfg.Username},
		{"password", cfg.Password},
		{"from email", cfg.FromEmail},
	}
	for _, f := range required {
		if f.value == "" {
			errs = append(errs, fmt.Sprintf("%s is required when email sending is enabled", f.name))
		}
	}
	if cfg.FromEmail != "" && !ValidEmail(cfg.FromEmail) {
		errs = append(errs, fmt.Sprintf("from email %q is not a valid address", cfg.FromEmail))
	}

	if spec, ok := providers[cfg.Provider]; ok && spec.Validate != nil {
		errs = append(errs, spec.Validate(cfg)...)
	}
	return errs
}
