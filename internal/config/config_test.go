package config

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg, err := New(nil)
	if err != nil {
		t.Fatalf("New(nil) returned error: %v", err)
	}
	if cfg.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q, want default", cfg.UserAgent)
	}
	if !cfg.EmulateProxy || !cfg.FollowLocation || cfg.Debug {
		t.Errorf("unexpected boolean defaults: %+v", cfg)
	}
	if cfg.ConnectTimeout != 60 || cfg.MaxRedirects != 15 || cfg.MaxTries != 10 || cfg.Cooldown != 300 {
		t.Errorf("unexpected numeric defaults: %+v", cfg)
	}
	if len(cfg.Interfaces) != 0 {
		t.Errorf("Interfaces = %v, want empty", cfg.Interfaces)
	}
	if cfg.CooldownDuration() != 5*time.Minute {
		t.Errorf("CooldownDuration = %v, want 5m", cfg.CooldownDuration())
	}
}

func TestNewOverrides(t *testing.T) {
	cfg, err := New(map[string]any{
		OptUserAgent:      "Test",
		OptInterfaces:     []any{"127.0.0.1", "127.0.0.2"},
		OptConnectTimeout: "30",
		OptFollowLocation: "false",
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if cfg.UserAgent != "Test" {
		t.Errorf("UserAgent = %q, want Test", cfg.UserAgent)
	}
	if want := []string{"127.0.0.1", "127.0.0.2"}; !reflect.DeepEqual(cfg.Interfaces, want) {
		t.Errorf("Interfaces = %v, want %v", cfg.Interfaces, want)
	}
	if cfg.ConnectTimeout != 30 {
		t.Errorf("ConnectTimeout = %d, want 30", cfg.ConnectTimeout)
	}
	if cfg.FollowLocation {
		t.Error("FollowLocation should be false")
	}
}

func TestNewSingleInterfaceString(t *testing.T) {
	cfg, err := New(map[string]any{OptInterfaces: "127.0.0.1"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if want := []string{"127.0.0.1"}; !reflect.DeepEqual(cfg.Interfaces, want) {
		t.Errorf("Interfaces = %v, want %v", cfg.Interfaces, want)
	}
}

func TestNewRejectsUnknownKeys(t *testing.T) {
	_, err := New(map[string]any{"proxy_pool": "Test"})
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	var unrecognized *UnrecognizedOptionError
	if !errors.As(err, &unrecognized) {
		t.Fatalf("error %v is not an UnrecognizedOptionError", err)
	}
	if unrecognized.Name != "proxy_pool" {
		t.Errorf("Name = %q, want proxy_pool", unrecognized.Name)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
		wantErr   bool
	}{
		{name: "defaults", overrides: nil},
		{name: "zero_tries", overrides: map[string]any{OptMaxTries: 0}},
		{name: "negative_tries", overrides: map[string]any{OptMaxTries: -1}, wantErr: true},
		{name: "negative_cooldown", overrides: map[string]any{OptCooldown: -5}, wantErr: true},
		{name: "negative_redirects", overrides: map[string]any{OptMaxRedirects: -1}, wantErr: true},
		{name: "empty_signature", overrides: map[string]any{OptBanSignatures: []string{""}}, wantErr: true},
		{name: "not_a_number", overrides: map[string]any{OptConnectTimeout: "soon"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.overrides)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAccessors(t *testing.T) {
	cfg := Default()

	if err := cfg.Set(OptUserAgent, "Test2"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	v, err := cfg.Get(OptUserAgent)
	if err != nil || v != "Test2" {
		t.Errorf("Get(user_agent) = %v, %v; want Test2", v, err)
	}

	on, err := cfg.Enabled(OptFollowLocation)
	if err != nil || !on {
		t.Errorf("Enabled(follow_location) = %v, %v; want true", on, err)
	}
	on, err = cfg.Enabled(OptInterfaces)
	if err != nil || on {
		t.Errorf("Enabled(interfaces) = %v, %v; want false", on, err)
	}

	if _, err := cfg.Get("proxy_pool"); !IsUnrecognizedOption(err) {
		t.Errorf("Get(proxy_pool) error = %v, want unrecognized option", err)
	}
	if _, err := cfg.Enabled("proxy_pool"); !IsUnrecognizedOption(err) {
		t.Errorf("Enabled(proxy_pool) error = %v, want unrecognized option", err)
	}
	if err := cfg.Set("proxy_pool", "Test"); !IsUnrecognizedOption(err) {
		t.Errorf("Set(proxy_pool) error = %v, want unrecognized option", err)
	}
}

func TestSetRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		opt   string
		value any
	}{
		{name: "negative_max_tries", opt: OptMaxTries, value: -1},
		{name: "negative_cooldown", opt: OptCooldown, value: -5},
		{name: "negative_connect_timeout", opt: OptConnectTimeout, value: -1},
		{name: "negative_max_redirects", opt: OptMaxRedirects, value: -1},
		{name: "empty_ban_signature", opt: OptBanSignatures, value: []string{""}},
		{name: "undecodable", opt: OptMaxTries, value: "many"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			before := cfg.Clone()

			err := cfg.Set(tt.opt, tt.value)
			var invalid *InvalidOptionError
			if !errors.As(err, &invalid) {
				t.Fatalf("Set(%s, %v) error = %v, want InvalidOptionError", tt.opt, tt.value, err)
			}
			if invalid.Name != tt.opt {
				t.Errorf("error names %q, want %q", invalid.Name, tt.opt)
			}
			if !reflect.DeepEqual(cfg, before) {
				t.Errorf("rejected Set modified config: %+v", cfg)
			}
		})
	}
}

func TestGetReturnsCopies(t *testing.T) {
	cfg := Default()
	cfg.Interfaces = []string{"eth0"}

	v, _ := cfg.Get(OptInterfaces)
	v.([]string)[0] = "eth1"
	if cfg.Interfaces[0] != "eth0" {
		t.Error("Get leaked the interface slice")
	}

	clone := cfg.Clone()
	clone.Interfaces[0] = "eth2"
	if cfg.Interfaces[0] != "eth0" {
		t.Error("Clone shares the interface slice")
	}
}

func TestNamesCoverEveryField(t *testing.T) {
	names := Names()
	if got, want := len(names), reflect.TypeOf(Config{}).NumField(); got != want {
		t.Errorf("len(Names()) = %d, Config has %d fields", got, want)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("Names() not sorted: %v", names)
		}
	}
}
