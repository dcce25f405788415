package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// sshEnvKeys maps DYNV6SYNC_SSH_* suffixes to ssh config keys.
var sshEnvKeys = []string{
	"host", "port", "user", "key_file", "key_passphrase", "password",
	"known_hosts", "insecure_ignore_host_key", "timeout",
}

// sshSecretKeys support the _FILE suffix.
var sshSecretKeys = map[string]bool{"key_passphrase": true, "password": true}

// applyEnv overlays DYNV6SYNC_* environment variables onto cfg.
func applyEnv(cfg *Config) []string {
	var errs []string

	token, err := getEnvOrFile(EnvPrefix+"TOKEN", EnvPrefix+"TOKEN_FILE")
	if err != nil {
		errs = append(errs, fmt.Sprintf("%sTOKEN_FILE: %v", EnvPrefix, err))
	}
	setString(&cfg.Token, token)

	setString(&cfg.APIEndpoint, getEnv(EnvPrefix+"API_ENDPOINT"))
	setString(&cfg.Zone, getEnv(EnvPrefix+"ZONE"))
	setString(&cfg.Prefix, getEnv(EnvPrefix+"PREFIX"))
	setString(&cfg.StatePath, getEnv(EnvPrefix+"STATE"))
	setString(&cfg.DNSName, getEnv(EnvPrefix+"DNS_NAME"))
	setString(&cfg.LogLevel, getEnv(EnvPrefix+"LOG_LEVEL"))
	setString(&cfg.LogFormat, getEnv(EnvPrefix+"LOG_FORMAT"))
	setString(&cfg.MetricsFile, getEnv(EnvPrefix+"METRICS_FILE"))

	applyFamilyEnv(&cfg.IPv6, "IPV6_")
	applyFamilyEnv(&cfg.IPv4, "IPV4_")

	for _, b := range []struct {
		key string
		dst *bool
	}{
		{"APEX", &cfg.Apex},
		{"CREATE_ZONE", &cfg.CreateZone},
		{"DRY_RUN", &cfg.DryRun},
	} {
		if err := setBool(b.dst, getEnv(EnvPrefix+b.key)); err != nil {
			errs = append(errs, fmt.Sprintf("%s%s: %v", EnvPrefix, b.key, err))
		}
	}

	for _, d := range []struct {
		key string
		dst *time.Duration
	}{
		{"INTERVAL", &cfg.Interval},
		{"HTTP_TIMEOUT", &cfg.HTTPTimeout},
	} {
		if err := setDuration(d.dst, getEnv(EnvPrefix+d.key)); err != nil {
			errs = append(errs, fmt.Sprintf("%s%s: %v", EnvPrefix, d.key, err))
		}
	}

	if v := getEnv(EnvPrefix + "HEALTH_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%sHEALTH_PORT: invalid port %q", EnvPrefix, v))
		} else {
			cfg.HealthPort = port
		}
	}

	for _, key := range sshEnvKeys {
		envKey := EnvPrefix + "SSH_" + strings.ToUpper(key)
		value := getEnv(envKey)
		if sshSecretKeys[key] {
			v, err := getEnvOrFile(envKey, envKey+"_FILE")
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s_FILE: %v", envKey, err))
			}
			value = v
		}
		if value != "" {
			cfg.SSH[key] = value
		}
	}

	return errs
}

func applyFamilyEnv(ac *AddressConfig, family string) {
	setString(&ac.Method, getEnv(EnvPrefix+family+"METHOD"))
	setString(&ac.Probe, getEnv(EnvPrefix+family+"PROBE"))
	setString(&ac.URL, getEnv(EnvPrefix+family+"URL"))
	setString(&ac.DNSServer, getEnv(EnvPrefix+family+"DNS_SERVER"))
	setString(&ac.Interface, getEnv(EnvPrefix+family+"INTERFACE"))
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v string) error {
	if v == "" {
		return nil
	}
	b, ok := parseBool(v)
	if !ok {
		return fmt.Errorf("invalid boolean %q", v)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid duration %q", v)
	}
	*dst = d
	return nil
}
