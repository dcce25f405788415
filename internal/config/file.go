package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileConfig represents the configuration file structure. The same layout
// is accepted as YAML or TOML.
type FileConfig struct {
	Provider   *FileProviderConfig   `yaml:"provider,omitempty" toml:"provider"`
	Target     *FileTargetConfig     `yaml:"target,omitempty" toml:"target"`
	Addresses  *FileAddressesConfig  `yaml:"addresses,omitempty" toml:"addresses"`
	State      *FileStateConfig      `yaml:"state,omitempty" toml:"state"`
	Logging    *FileLoggingConfig    `yaml:"logging,omitempty" toml:"logging"`
	Reconciler *FileReconcilerConfig `yaml:"reconciler,omitempty" toml:"reconciler"`
	Server     *FileServerConfig     `yaml:"server,omitempty" toml:"server"`
}

// FileProviderConfig holds API access settings.
type FileProviderConfig struct {
	Token       string `yaml:"token,omitempty" toml:"token"`
	TokenFile   string `yaml:"token_file,omitempty" toml:"token_file"`
	APIEndpoint string `yaml:"api_endpoint,omitempty" toml:"api_endpoint"`
	HTTPTimeout string `yaml:"http_timeout,omitempty" toml:"http_timeout"` // Go duration
}

// FileTargetConfig selects what is updated.
type FileTargetConfig struct {
	Zone       string `yaml:"zone,omitempty" toml:"zone"` // name or numeric id
	Prefix     string `yaml:"prefix,omitempty" toml:"prefix"`
	Apex       *bool  `yaml:"apex,omitempty" toml:"apex"`
	CreateZone *bool  `yaml:"create_zone,omitempty" toml:"create_zone"`
}

// FileAddressesConfig holds discovery settings.
type FileAddressesConfig struct {
	IPv6    *FileFamilyConfig `yaml:"ipv6,omitempty" toml:"ipv6"`
	IPv4    *FileFamilyConfig `yaml:"ipv4,omitempty" toml:"ipv4"`
	DNSName string            `yaml:"dns_name,omitempty" toml:"dns_name"`
}

// FileFamilyConfig holds discovery settings for one family.
type FileFamilyConfig struct {
	Method    string `yaml:"method,omitempty" toml:"method"`
	Probe     string `yaml:"probe,omitempty" toml:"probe"`
	URL       string `yaml:"url,omitempty" toml:"url"`
	DNSServer string `yaml:"dns_server,omitempty" toml:"dns_server"`
	Interface string `yaml:"interface,omitempty" toml:"interface"`
}

// FileStateConfig holds snapshot storage settings.
type FileStateConfig struct {
	Path string            `yaml:"path,omitempty" toml:"path"`
	SSH  map[string]string `yaml:"ssh,omitempty" toml:"ssh"` // see sshutil.LoadConfigFromMap
}

// FileLoggingConfig holds logging settings.
type FileLoggingConfig struct {
	Level  string `yaml:"level,omitempty" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format,omitempty" toml:"format"` // json, text
}

// FileReconcilerConfig holds scheduling settings.
type FileReconcilerConfig struct {
	Interval string `yaml:"interval,omitempty" toml:"interval"` // Go duration; empty runs once
	DryRun   *bool  `yaml:"dry_run,omitempty" toml:"dry_run"`
}

// FileServerConfig holds health/metrics settings.
type FileServerConfig struct {
	Port        *int   `yaml:"port,omitempty" toml:"port"`
	MetricsFile string `yaml:"metrics_file,omitempty" toml:"metrics_file"`
}

// envVarPattern matches ${VAR} or ${VAR:-default} syntax.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// InterpolateEnvVars replaces ${VAR} patterns with environment variable values.
// Supports ${VAR:-default} syntax for default values.
func InterpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 3 {
			defaultValue = groups[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

func interpolateAll(fields ...*string) {
	for _, f := range fields {
		*f = InterpolateEnvVars(*f)
	}
}

// interpolateEnvVars interpolates environment variables in all string
// fields of the config structure.
func (c *FileConfig) interpolateEnvVars() {
	if p := c.Provider; p != nil {
		interpolateAll(&p.Token, &p.TokenFile, &p.APIEndpoint, &p.HTTPTimeout)
	}
	if t := c.Target; t != nil {
		interpolateAll(&t.Zone, &t.Prefix)
	}
	if a := c.Addresses; a != nil {
		interpolateAll(&a.DNSName)
		for _, fam := range []*FileFamilyConfig{a.IPv6, a.IPv4} {
			if fam != nil {
				interpolateAll(&fam.Method, &fam.Probe, &fam.URL, &fam.DNSServer, &fam.Interface)
			}
		}
	}
	if s := c.State; s != nil {
		interpolateAll(&s.Path)
		for k, v := range s.SSH {
			s.SSH[k] = InterpolateEnvVars(v)
		}
	}
	if l := c.Logging; l != nil {
		interpolateAll(&l.Level, &l.Format)
	}
	if r := c.Reconciler; r != nil {
		interpolateAll(&r.Interval)
	}
	if s := c.Server; s != nil {
		interpolateAll(&s.MetricsFile)
	}
}

// LoadFile reads and parses a configuration file. Files ending in .toml
// are parsed as TOML, anything else as YAML. Environment variables in
// ${VAR} format are interpolated.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg FileConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("parsing TOML config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	}

	cfg.interpolateEnvVars()

	return &cfg, nil
}

// apply overlays the file's values onto cfg. Unset fields leave cfg
// unchanged.
func (c *FileConfig) apply(cfg *Config) []string {
	var errs []string

	if p := c.Provider; p != nil {
		setString(&cfg.Token, p.Token)
		if p.TokenFile != "" {
			token, err := readSecretFile(p.TokenFile)
			if err != nil {
				errs = append(errs, fmt.Sprintf("provider.token_file: %v", err))
			}
			setString(&cfg.Token, token)
		}
		setString(&cfg.APIEndpoint, p.APIEndpoint)
		if err := setDuration(&cfg.HTTPTimeout, p.HTTPTimeout); err != nil {
			errs = append(errs, "provider.http_timeout: "+err.Error())
		}
	}

	if t := c.Target; t != nil {
		setString(&cfg.Zone, t.Zone)
		setString(&cfg.Prefix, t.Prefix)
		if t.Apex != nil {
			cfg.Apex = *t.Apex
		}
		if t.CreateZone != nil {
			cfg.CreateZone = *t.CreateZone
		}
	}

	if a := c.Addresses; a != nil {
		setString(&cfg.DNSName, a.DNSName)
		a.IPv6.applyTo(&cfg.IPv6)
		a.IPv4.applyTo(&cfg.IPv4)
	}

	if s := c.State; s != nil {
		setString(&cfg.StatePath, s.Path)
		for k, v := range s.SSH {
			if v != "" {
				cfg.SSH[strings.ToLower(k)] = v
			}
		}
	}

	if l := c.Logging; l != nil {
		setString(&cfg.LogLevel, l.Level)
		setString(&cfg.LogFormat, l.Format)
	}

	if r := c.Reconciler; r != nil {
		if err := setDuration(&cfg.Interval, r.Interval); err != nil {
			errs = append(errs, "reconciler.interval: "+err.Error())
		}
		if r.DryRun != nil {
			cfg.DryRun = *r.DryRun
		}
	}

	if s := c.Server; s != nil {
		if s.Port != nil {
			cfg.HealthPort = *s.Port
		}
		setString(&cfg.MetricsFile, s.MetricsFile)
	}

	return errs
}

func (f *FileFamilyConfig) applyTo(ac *AddressConfig) {
	if f == nil {
		return
	}
	setString(&ac.Method, f.Method)
	setString(&ac.Probe, f.Probe)
	setString(&ac.URL, f.URL)
	setString(&ac.DNSServer, f.DNSServer)
	setString(&ac.Interface, f.Interface)
}
