package config

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// DefaultUserAgent is sent when no user agent is configured
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; U; Intel Mac OS X; en) AppleWebKit/523.12 (KHTML, like Gecko) Version/3.0.4 Safari/523.12"

// DefaultBanSignature is the challenge sentence served to clients flagged as automated
const DefaultBanSignature = "your query looks similar to automated requests from a computer virus or spyware application"

// Option names
const (
	OptUserAgent      = "user_agent"
	OptDebug          = "debug"
	OptEmulateProxy   = "emulate_proxy"
	OptInterfaces     = "interfaces"
	OptConnectTimeout = "connect_timeout"
	OptMaxRedirects   = "max_redirects"
	OptFollowLocation = "follow_location"
	OptMaxTries       = "max_tries"
	OptCooldown       = "cooldown"
	OptMaxBans        = "max_bans"
	OptBanSignatures  = "ban_signatures"
)

// Config holds the outbound fetch configuration
type Config struct {
	// UserAgent is sent with every request
	UserAgent string `mapstructure:"user_agent"`

	// Debug enables verbose request logging
	Debug bool `mapstructure:"debug"`

	// EmulateProxy adds Via, Cache-Control and X-Forwarded-For headers
	// so requests look like they were forwarded by a caching proxy
	EmulateProxy bool `mapstructure:"emulate_proxy"`

	// Interfaces are local bind addresses or interface names, used round-robin
	Interfaces []string `mapstructure:"interfaces"`

	// ConnectTimeout in seconds (0 disables the timeout)
	ConnectTimeout int `mapstructure:"connect_timeout"`

	// MaxRedirects is the number of redirects followed before giving up
	MaxRedirects int `mapstructure:"max_redirects"`

	// FollowLocation controls whether redirects are followed at all
	FollowLocation bool `mapstructure:"follow_location"`

	// MaxTries is the attempt budget of one fetch (default: 10)
	MaxTries int `mapstructure:"max_tries"`

	// Cooldown in seconds to wait after a ban was detected (default: 300)
	Cooldown int `mapstructure:"cooldown"`

	// MaxBans gives bans their own budget. With 0, bans consume MaxTries
	// like any other failed attempt.
	MaxBans int `mapstructure:"max_bans"`

	// BanSignatures are body substrings identifying anti-automation pages
	BanSignatures []string `mapstructure:"ban_signatures"`
}

// option describes one recognized configuration key
type option struct {
	get func(c *Config) any
	set func(c *Config, v any) error
}

var options = map[string]option{
	OptUserAgent: {
		get: func(c *Config) any { return c.UserAgent },
		set: func(c *Config, v any) error { return decode(v, &c.UserAgent) },
	},
	OptDebug: {
		get: func(c *Config) any { return c.Debug },
		set: func(c *Config, v any) error { return decode(v, &c.Debug) },
	},
	OptEmulateProxy: {
		get: func(c *Config) any { return c.EmulateProxy },
		set: func(c *Config, v any) error { return decode(v, &c.EmulateProxy) },
	},
	OptInterfaces: {
		get: func(c *Config) any { return slices.Clone(c.Interfaces) },
		set: func(c *Config, v any) error { return decodeList(v, &c.Interfaces) },
	},
	OptConnectTimeout: {
		get: func(c *Config) any { return c.ConnectTimeout },
		set: func(c *Config, v any) error { return decode(v, &c.ConnectTimeout) },
	},
	OptMaxRedirects: {
		get: func(c *Config) any { return c.MaxRedirects },
		set: func(c *Config, v any) error { return decode(v, &c.MaxRedirects) },
	},
	OptFollowLocation: {
		get: func(c *Config) any { return c.FollowLocation },
		set: func(c *Config, v any) error { return decode(v, &c.FollowLocation) },
	},
	OptMaxTries: {
		get: func(c *Config) any { return c.MaxTries },
		set: func(c *Config, v any) error { return decode(v, &c.MaxTries) },
	},
	OptCooldown: {
		get: func(c *Config) any { return c.Cooldown },
		set: func(c *Config, v any) error { return decode(v, &c.Cooldown) },
	},
	OptMaxBans: {
		get: func(c *Config) any { return c.MaxBans },
		set: func(c *Config, v any) error { return decode(v, &c.MaxBans) },
	},
	OptBanSignatures: {
		get: func(c *Config) any { return slices.Clone(c.BanSignatures) },
		set: func(c *Config, v any) error { return decodeList(v, &c.BanSignatures) },
	},
}

// Default returns a Config with the default value of every option
func Default() *Config {
	return &Config{
		UserAgent:      DefaultUserAgent,
		Debug:          false,
		EmulateProxy:   true,
		Interfaces:     []string{},
		ConnectTimeout: 60,
		MaxRedirects:   15,
		FollowLocation: true,
		MaxTries:       10,
		Cooldown:       300,
		MaxBans:        0,
		BanSignatures:  []string{DefaultBanSignature},
	}
}

// New merges overrides over the defaults. Unknown keys are rejected before
// anything is applied.
func New(overrides map[string]any) (*Config, error) {
	for name := range overrides {
		if _, ok := options[name]; !ok {
			return nil, NewUnrecognizedOptionError(name)
		}
	}

	cfg := Default()
	for _, name := range Names() {
		v, ok := overrides[name]
		if !ok {
			continue
		}
		if err := cfg.Set(name, v); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Names returns the recognized option names in sorted order
func Names() []string {
	names := make([]string, 0, len(options))
	for name := range options {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the value of a named option
func (c *Config) Get(name string) (any, error) {
	opt, ok := options[name]
	if !ok {
		return nil, NewUnrecognizedOptionError(name)
	}
	return opt.get(c), nil
}

// Enabled answers the boolean query for a named option. Non-boolean options
// are enabled when they hold a non-zero value.
func (c *Config) Enabled(name string) (bool, error) {
	v, err := c.Get(name)
	if err != nil {
		return false, err
	}
	switch val := v.(type) {
	case bool:
		return val, nil
	case int:
		return val != 0, nil
	case string:
		return val != "", nil
	case []string:
		return len(val) > 0, nil
	default:
		return v != nil, nil
	}
}

// Set assigns a named option. The value is decoded weakly, so "30" is
// accepted for an integer option.
func (c *Config) Set(name string, value any) error {
	opt, ok := options[name]
	if !ok {
		return NewUnrecognizedOptionError(name)
	}
	next := c.Clone()
	if err := opt.set(next, value); err != nil {
		return NewInvalidOptionError(name, err.Error())
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = *next
	return nil
}

// Validate checks option values for consistency
func (c *Config) Validate() error {
	checks := []struct {
		name  string
		value int
	}{
		{OptConnectTimeout, c.ConnectTimeout},
		{OptMaxRedirects, c.MaxRedirects},
		{OptMaxTries, c.MaxTries},
		{OptCooldown, c.Cooldown},
		{OptMaxBans, c.MaxBans},
	}
	for _, check := range checks {
		if check.value < 0 {
			return NewInvalidOptionError(check.name, fmt.Sprintf("must not be negative, got %d", check.value))
		}
	}
	for _, sig := range c.BanSignatures {
		if sig == "" {
			return NewInvalidOptionError(OptBanSignatures, "empty signature would match every page")
		}
	}
	return nil
}

// ConnectTimeoutDuration returns the connect timeout as a time.Duration
func (c *Config) ConnectTimeoutDuration() time.Duration {
	return time.Duration(c.ConnectTimeout) * time.Second
}

// CooldownDuration returns the ban cooldown as a time.Duration
func (c *Config) CooldownDuration() time.Duration {
	return time.Duration(c.Cooldown) * time.Second
}

// Clone returns a deep copy
func (c *Config) Clone() *Config {
	dup := *c
	dup.Interfaces = slices.Clone(c.Interfaces)
	dup.BanSignatures = slices.Clone(c.BanSignatures)
	return &dup
}

func decode(input any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// decodeList accepts a single string as a one element list
func decodeList(input any, target *[]string) error {
	var list []string
	if err := decode(input, &list); err != nil {
		return err
	}
	if list == nil {
		list = []string{}
	}
	*target = list
	return nil
}
