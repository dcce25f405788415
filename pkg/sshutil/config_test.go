package sshutil

import (
	"strings"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name: "valid with key and known_hosts",
			config: Config{
				Host: "nas.lan", User: "backup", KeyFile: "/keys/id_ed25519",
				KnownHosts: "/keys/known_hosts",
			},
		},
		{
			name: "valid with password and insecure",
			config: Config{
				Host: "nas.lan", User: "backup", Password: "pw",
				InsecureIgnoreHostKey: true,
			},
		},
		{
			name:    "missing host",
			config:  Config{User: "backup", Password: "pw", InsecureIgnoreHostKey: true},
			wantErr: "host is required",
		},
		{
			name:    "missing user",
			config:  Config{Host: "nas.lan", Password: "pw", InsecureIgnoreHostKey: true},
			wantErr: "user is required",
		},
		{
			name:    "missing auth",
			config:  Config{Host: "nas.lan", User: "backup", InsecureIgnoreHostKey: true},
			wantErr: "key_file or password is required",
		},
		{
			name:    "bad port",
			config:  Config{Host: "nas.lan", User: "backup", Password: "pw", Port: 70000, InsecureIgnoreHostKey: true},
			wantErr: "port must be between",
		},
		{
			name:    "no host key policy",
			config:  Config{Host: "nas.lan", User: "backup", Password: "pw"},
			wantErr: "known_hosts is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Address(t *testing.T) {
	tests := []struct {
		config Config
		want   string
	}{
		{Config{Host: "nas.lan"}, "nas.lan:22"},
		{Config{Host: "nas.lan", Port: 2222}, "nas.lan:2222"},
		{Config{Host: "2001:db8::1", Port: 22}, "[2001:db8::1]:22"},
	}
	for _, tt := range tests {
		if got := tt.config.Address(); got != tt.want {
			t.Errorf("Address() = %q, want %q", got, tt.want)
		}
	}
}

func TestConfig_GetTimeout(t *testing.T) {
	if got := (&Config{}).GetTimeout(); got != DefaultSSHTimeout {
		t.Errorf("GetTimeout() = %v, want %v", got, DefaultSSHTimeout)
	}
	if got := (&Config{Timeout: 5 * time.Second}).GetTimeout(); got != 5*time.Second {
		t.Errorf("GetTimeout() = %v, want 5s", got)
	}
}

func TestLoadConfigFromMap(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		cfg, err := LoadConfigFromMap(map[string]string{
			"host":        "nas.lan",
			"port":        "2222",
			"user":        "backup",
			"key_file":    "/keys/id_ed25519",
			"known_hosts": "/keys/known_hosts",
			"timeout":     "10s",
		})
		if err != nil {
			t.Fatalf("LoadConfigFromMap() error = %v", err)
		}
		if cfg.Port != 2222 || cfg.Timeout != 10*time.Second || cfg.KnownHosts != "/keys/known_hosts" {
			t.Errorf("LoadConfigFromMap() = %+v", cfg)
		}
	})

	t.Run("default port", func(t *testing.T) {
		cfg, err := LoadConfigFromMap(map[string]string{
			"host": "nas.lan", "user": "backup", "password": "pw",
			"insecure_ignore_host_key": "true",
		})
		if err != nil {
			t.Fatalf("LoadConfigFromMap() error = %v", err)
		}
		if cfg.Port != DefaultSSHPort || !cfg.InsecureIgnoreHostKey {
			t.Errorf("LoadConfigFromMap() = %+v", cfg)
		}
	})

	invalid := []map[string]string{
		{"host": "nas.lan", "user": "u", "password": "pw", "insecure_ignore_host_key": "true", "port": "abc"},
		{"host": "nas.lan", "user": "u", "password": "pw", "insecure_ignore_host_key": "true", "timeout": "soon"},
		{"host": "nas.lan", "user": "u", "password": "pw", "insecure_ignore_host_key": "maybe"},
		{"user": "u", "password": "pw", "insecure_ignore_host_key": "true"},
	}
	for i, values := range invalid {
		if _, err := LoadConfigFromMap(values); err == nil {
			t.Errorf("case %d: LoadConfigFromMap() expected error", i)
		}
	}
}
