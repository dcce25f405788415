package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"
)

// ErrVersion is returned by Load when -version was given.
var ErrVersion = errors.New("version requested")

type flagValues struct {
	token       string
	zone        string
	prefix      string
	apex        bool
	probe6      string
	ipv6Method  string
	ipv4Method  string
	statePath   string
	configFile  string
	dryRun      bool
	interval    time.Duration
	createZone  bool
	logLevel    string
	logFormat   string
	metricsFile string
	healthPort  int
	version     bool
}

func newFlagSet(output io.Writer) (*flag.FlagSet, *flagValues) {
	fv := &flagValues{}
	fs := flag.NewFlagSet("dynv6sync", flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}

	fs.StringVar(&fv.token, "token", "", "dynv6 HTTP token (env "+EnvPrefix+"TOKEN or "+EnvPrefix+"TOKEN_FILE)")
	fs.StringVar(&fv.zone, "zone", "", "zone name (example.dynv6.net) or numeric zone id")
	fs.StringVar(&fv.prefix, "prefix", "", "record name inside the zone to update")
	fs.StringVar(&fv.token, "t", "", "shorthand for -token")
	fs.StringVar(&fv.zone, "z", "", "shorthand for -zone")
	fs.StringVar(&fv.prefix, "p", "", "shorthand for -prefix")
	fs.BoolVar(&fv.apex, "apex", false, "update the zone's own addresses instead of a record")
	fs.StringVar(&fv.probe6, "6", "", "IPv6 address used to discover the local IPv6 address")
	fs.StringVar(&fv.ipv6Method, "ipv6-method", "", "IPv6 discovery method: none, probe, http, dns, interface")
	fs.StringVar(&fv.ipv4Method, "ipv4-method", "", "IPv4 discovery method: none, probe, http, dns, interface")
	fs.StringVar(&fv.statePath, "state", "", "snapshot file path")
	fs.StringVar(&fv.configFile, "config", "", "YAML or TOML config file (env "+EnvPrefix+"CONFIG)")
	fs.BoolVar(&fv.dryRun, "dry-run", false, "log planned changes without applying them")
	fs.DurationVar(&fv.interval, "interval", 0, "repeat every interval; 0 runs once")
	fs.BoolVar(&fv.createZone, "create-zone", false, "create the zone if it does not exist")
	fs.StringVar(&fv.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&fv.logFormat, "log-format", "", "log format: json, text")
	fs.StringVar(&fv.metricsFile, "metrics-file", "", "write Prometheus metrics to this file after each run")
	fs.IntVar(&fv.healthPort, "health-port", 0, fmt.Sprintf("health/metrics port in interval mode, 0 disables (default %d)", DefaultHealthPort))
	fs.BoolVar(&fv.version, "version", false, "print version and exit")

	return fs, fv
}

// apply copies flags that were explicitly set onto cfg.
func (fv *flagValues) apply(fs *flag.FlagSet, cfg *Config) []string {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "token", "t":
			cfg.Token = fv.token
		case "zone", "z":
			cfg.Zone = fv.zone
		case "prefix", "p":
			cfg.Prefix = fv.prefix
		case "apex":
			cfg.Apex = fv.apex
		case "6":
			cfg.IPv6.Probe = fv.probe6
		case "ipv6-method":
			cfg.IPv6.Method = fv.ipv6Method
		case "ipv4-method":
			cfg.IPv4.Method = fv.ipv4Method
		case "state":
			cfg.StatePath = fv.statePath
		case "dry-run":
			cfg.DryRun = fv.dryRun
		case "interval":
			cfg.Interval = fv.interval
		case "create-zone":
			cfg.CreateZone = fv.createZone
		case "log-level":
			cfg.LogLevel = fv.logLevel
		case "log-format":
			cfg.LogFormat = fv.logFormat
		case "metrics-file":
			cfg.MetricsFile = fv.metricsFile
		case "health-port":
			cfg.HealthPort = fv.healthPort
		}
	})

	var errs []string
	if fs.NArg() > 0 {
		errs = append(errs, fmt.Sprintf("unexpected arguments: %v", fs.Args()))
	}
	return errs
}
