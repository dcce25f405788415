// Package config handles loading and validation of dynv6sync configuration.
//
// Values are layered, later layers winning: built-in defaults, the config
// file (YAML or TOML), DYNV6SYNC_* environment variables, then
// command-line flags.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/dynv6sync/internal/state"
	"gitlab.bluewillows.net/root/dynv6sync/pkg/address"
	"gitlab.bluewillows.net/root/dynv6sync/pkg/dynv6"
	"gitlab.bluewillows.net/root/dynv6sync/pkg/sshutil"
)

// Configuration defaults.
const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultIPv6Method  = address.MethodProbe
	DefaultIPv4Method  = address.MethodNone
	DefaultHTTPTimeout = 30 * time.Second
	DefaultHealthPort  = 8080
	MinInterval        = 10 * time.Second
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DYNV6SYNC_"

// AddressConfig selects and tunes the discovery method for one family.
type AddressConfig struct {
	Method    string // none, probe, http, dns, interface
	Probe     string // probe target address
	URL       string // http endpoint
	DNSServer string // dns resolver host:port
	Interface string // interface name
}

// Config holds the complete runtime configuration.
type Config struct {
	// Provider
	Token       string
	APIEndpoint string

	// Zone is the raw zone setting; exactly one of ZoneName and ZoneID is
	// derived from it.
	Zone     string
	ZoneName string
	ZoneID   int64

	Prefix     string
	Apex       bool
	CreateZone bool
	DryRun     bool

	// Address discovery
	IPv6        AddressConfig
	IPv4        AddressConfig
	DNSName     string
	HTTPTimeout time.Duration

	// State
	StatePath string
	SSH       map[string]string // remote state over SFTP when "host" is set
	SSHConfig *sshutil.Config   // parsed from SSH during validation

	// Scheduling and observability
	Interval    time.Duration
	LogLevel    string
	LogFormat   string
	MetricsFile string
	HealthPort  int

	// ConfigFile is the file the configuration was read from, if any.
	ConfigFile string
}

// Defaults returns a Config populated with default values.
func Defaults() *Config {
	return &Config{
		APIEndpoint: dynv6.DefaultAPIEndpoint,
		IPv6:        AddressConfig{Method: DefaultIPv6Method},
		IPv4:        AddressConfig{Method: DefaultIPv4Method},
		HTTPTimeout: DefaultHTTPTimeout,
		StatePath:   state.DefaultPath,
		SSH:         make(map[string]string),
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
		HealthPort:  DefaultHealthPort,
	}
}

// RemoteState reports whether the snapshot is stored over SFTP.
func (c *Config) RemoteState() bool {
	return c.SSHConfig != nil
}

// Family returns the address configuration for "ipv4" or "ipv6".
func (c *Config) Family(name string) AddressConfig {
	if name == "ipv4" {
		return c.IPv4
	}
	return c.IPv6
}

// Load builds the configuration from args (without the program name) and
// the environment. A -version or -help request is reported through
// ErrVersion and flag.ErrHelp respectively.
func Load(args []string, output io.Writer) (*Config, error) {
	fs, fv := newFlagSet(output)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fv.version {
		return nil, ErrVersion
	}

	cfg := Defaults()
	var errs []string

	path := fv.configFile
	if path == "" {
		path = getEnv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return nil, &ValidationError{Errors: []string{"config file: " + err.Error()}}
		}
		errs = append(errs, fileCfg.apply(cfg)...)
		cfg.ConfigFile = path
	}

	errs = append(errs, applyEnv(cfg)...)
	errs = append(errs, fv.apply(fs, cfg)...)
	errs = append(errs, cfg.normalize()...)
	errs = append(errs, validateConfig(cfg)...)

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return cfg, nil
}

// normalize derives ZoneName/ZoneID and lower-cases enumerations.
func (c *Config) normalize() []string {
	var errs []string

	c.Zone = strings.TrimSpace(c.Zone)
	c.ZoneName, c.ZoneID = "", 0
	if c.Zone != "" {
		if id, err := strconv.ParseInt(c.Zone, 10, 64); err == nil {
			c.ZoneID = id
		} else {
			c.ZoneName = strings.TrimSuffix(c.Zone, ".")
		}
	}

	c.IPv6.Method = strings.ToLower(c.IPv6.Method)
	c.IPv4.Method = strings.ToLower(c.IPv4.Method)
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.LogFormat = strings.ToLower(c.LogFormat)

	if c.SSH["host"] != "" {
		sshCfg, err := sshutil.LoadConfigFromMap(c.SSH)
		if err != nil {
			errs = append(errs, "ssh: "+err.Error())
		} else {
			c.SSHConfig = sshCfg
		}
	}

	return errs
}

// Summary returns a log-friendly description without secrets.
func (c *Config) Summary() string {
	target := c.Prefix
	if c.Apex {
		target = "@"
	}
	storage := c.StatePath
	if c.RemoteState() {
		storage = fmt.Sprintf("sftp://%s%s", c.SSHConfig.Address(), c.StatePath)
	}
	return fmt.Sprintf("zone=%s target=%s ipv6=%s ipv4=%s state=%s interval=%s dry_run=%t",
		c.Zone, target, c.IPv6.Method, c.IPv4.Method, storage, c.Interval, c.DryRun)
}

func getEnv(key string) string {
	return os.Getenv(key)
}
