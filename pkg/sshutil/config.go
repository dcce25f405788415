package sshutil

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Default SSH client configuration values.
const (
	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultSSHTimeout is the default connection timeout.
	DefaultSSHTimeout = 30 * time.Second
)

// Config holds SSH connection configuration.
type Config struct {
	// Host is the SSH server hostname or IP address (required).
	Host string

	// Port is the SSH server port (default: 22).
	Port int

	// User is the SSH username (required).
	User string

	// KeyFile is the path to the SSH private key file.
	KeyFile string

	// KeyPassphrase is the passphrase for an encrypted KeyFile.
	KeyPassphrase string

	// Password enables password authentication.
	Password string

	// KnownHosts is the path to a known_hosts file used to verify the
	// server. Required unless InsecureIgnoreHostKey is set.
	KnownHosts string

	// InsecureIgnoreHostKey disables host key verification.
	InsecureIgnoreHostKey bool

	// Timeout is the connection timeout (default: 30s).
	Timeout time.Duration
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Host == "" {
		errs = append(errs, "host is required")
	}
	if c.User == "" {
		errs = append(errs, "user is required")
	}
	if c.KeyFile == "" && c.Password == "" {
		errs = append(errs, "key_file or password is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, "port must be between 0 and 65535")
	}
	if c.Timeout < 0 {
		errs = append(errs, "timeout must be non-negative")
	}
	if c.KnownHosts == "" && !c.InsecureIgnoreHostKey {
		errs = append(errs, "known_hosts is required unless insecure_ignore_host_key is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("ssh config validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Address returns the SSH server address in host:port format.
func (c *Config) Address() string {
	port := c.Port
	if port == 0 {
		port = DefaultSSHPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// GetTimeout returns the configured timeout or the default.
func (c *Config) GetTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultSSHTimeout
}

// LoadConfigFromMap creates a Config from lower-case keys as they appear
// in the config file's ssh section.
//
// Required keys: host, user, and key_file or password.
// Optional keys: port, key_passphrase, known_hosts,
// insecure_ignore_host_key, timeout (Go duration).
func LoadConfigFromMap(values map[string]string) (*Config, error) {
	config := &Config{
		Host:          values["host"],
		User:          values["user"],
		KeyFile:       values["key_file"],
		KeyPassphrase: values["key_passphrase"],
		Password:      values["password"],
		KnownHosts:    values["known_hosts"],
		Port:          DefaultSSHPort,
	}

	if portStr := values["port"]; portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid port value %q: %w", portStr, err)
		}
		config.Port = port
	}

	if timeoutStr := values["timeout"]; timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout value %q: %w", timeoutStr, err)
		}
		config.Timeout = timeout
	}

	if insecure := values["insecure_ignore_host_key"]; insecure != "" {
		v, err := strconv.ParseBool(insecure)
		if err != nil {
			return nil, fmt.Errorf("invalid insecure_ignore_host_key value %q: %w", insecure, err)
		}
		config.InsecureIgnoreHostKey = v
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}
