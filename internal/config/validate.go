package config

import (
	"fmt"
	"net/url"
	"strings"

	"gitlab.bluewillows.net/root/dynv6sync/pkg/address"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration error: %s", e.Errors[0])
	}
	return fmt.Sprintf("configuration errors:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// validateConfig performs cross-field validation on the complete configuration.
func validateConfig(cfg *Config) []string {
	var errs []string

	if cfg.Token == "" {
		errs = append(errs, "token is required (-token, "+EnvPrefix+"TOKEN or "+EnvPrefix+"TOKEN_FILE)")
	}

	switch {
	case cfg.Apex && cfg.Prefix != "":
		errs = append(errs, "prefix and apex are mutually exclusive")
	case !cfg.Apex && cfg.Prefix == "":
		errs = append(errs, "prefix is required unless apex is set")
	}

	if cfg.ZoneID < 0 {
		errs = append(errs, fmt.Sprintf("zone id must be positive, got %d", cfg.ZoneID))
	}
	if cfg.CreateZone && cfg.ZoneName == "" {
		errs = append(errs, "create_zone requires a zone name")
	}

	if u, err := url.Parse(cfg.APIEndpoint); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("invalid api endpoint %q", cfg.APIEndpoint))
	}

	errs = append(errs, validateFamily("ipv6", cfg.IPv6)...)
	errs = append(errs, validateFamily("ipv4", cfg.IPv4)...)
	if isDisabled(cfg.IPv6.Method) && isDisabled(cfg.IPv4.Method) {
		errs = append(errs, "at least one of ipv6 and ipv4 discovery must be enabled")
	}

	if cfg.HTTPTimeout <= 0 {
		errs = append(errs, "http timeout must be positive")
	}
	if cfg.Interval < 0 {
		errs = append(errs, "interval must not be negative")
	} else if cfg.Interval > 0 && cfg.Interval < MinInterval {
		errs = append(errs, fmt.Sprintf("interval must be at least %s", MinInterval))
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level %q (must be debug, info, warn, error)", cfg.LogLevel))
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("invalid log format %q (must be json, text)", cfg.LogFormat))
	}

	if cfg.HealthPort < 0 || cfg.HealthPort > 65535 {
		errs = append(errs, fmt.Sprintf("health port must be between 0 and 65535, got %d", cfg.HealthPort))
	}
	if cfg.StatePath == "" {
		errs = append(errs, "state path must not be empty")
	}

	return errs
}

func validateFamily(name string, ac AddressConfig) []string {
	var errs []string
	if !address.ValidMethod(ac.Method) {
		errs = append(errs, fmt.Sprintf("%s: unknown method %q (must be one of %s)",
			name, ac.Method, strings.Join(address.Methods, ", ")))
		return errs
	}
	if ac.Method == address.MethodInterface && ac.Interface == "" {
		errs = append(errs, name+": interface method requires an interface name")
	}
	if ac.Method == address.MethodHTTP && ac.URL != "" {
		if u, err := url.Parse(ac.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("%s: invalid url %q", name, ac.URL))
		}
	}
	return errs
}

func isDisabled(method string) bool {
	return method == "" || method == address.MethodNone
}
