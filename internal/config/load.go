package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to option names when read from the environment
const EnvPrefix = "SMARTPROXY"

// flagNames maps CLI flag names onto option names
var flagNames = map[string]string{
	"user-agent":      OptUserAgent,
	"debug":           OptDebug,
	"emulate-proxy":   OptEmulateProxy,
	"interface":       OptInterfaces,
	"connect-timeout": OptConnectTimeout,
	"max-redirects":   OptMaxRedirects,
	"follow-location": OptFollowLocation,
	"max-tries":       OptMaxTries,
	"cooldown":        OptCooldown,
	"max-bans":        OptMaxBans,
	"ban-signature":   OptBanSignatures,
}

// listOptions are split on commas and whitespace when they arrive as a string
var listOptions = map[string]bool{
	OptInterfaces:    true,
	OptBanSignatures: false,
}

// RegisterFlags adds one flag per option to fs. Defaults are taken from
// Default() so the help output shows the effective values.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("user-agent", d.UserAgent, "User-Agent header sent with every request")
	fs.Bool("debug", d.Debug, "Log every request and response")
	fs.Bool("emulate-proxy", d.EmulateProxy, "Add Via, Cache-Control and X-Forwarded-For headers")
	fs.StringSlice("interface", d.Interfaces, "Local address or interface name to bind (repeatable, used round-robin)")
	fs.Int("connect-timeout", d.ConnectTimeout, "Connect timeout in seconds")
	fs.Int("max-redirects", d.MaxRedirects, "Maximum number of redirects to follow")
	fs.Bool("follow-location", d.FollowLocation, "Follow redirects")
	fs.Int("max-tries", d.MaxTries, "Attempts per fetch before giving up")
	fs.Int("cooldown", d.Cooldown, "Seconds to wait after a ban was detected")
	fs.Int("max-bans", d.MaxBans, "Separate ban budget (0 lets bans consume tries)")
	fs.StringArray("ban-signature", d.BanSignatures, "Body substring identifying a ban page (repeatable)")
}

// Load layers defaults, an optional config file, SMARTPROXY_* environment
// variables and flags, then validates the result through New.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	d := Default()
	for _, name := range Names() {
		val, _ := d.Get(name)
		v.SetDefault(name, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if fs != nil {
		for flagName, name := range flagNames {
			if f := fs.Lookup(flagName); f != nil {
				if err := v.BindPFlag(name, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", flagName, err)
				}
			}
		}
	}

	overrides := make(map[string]any)
	for _, key := range v.AllKeys() {
		if _, ok := options[key]; !ok {
			return nil, NewUnrecognizedOptionError(key)
		}
	}
	for _, name := range Names() {
		if split, isList := listOptions[name]; isList {
			if s, ok := v.Get(name).(string); ok {
				if split {
					overrides[name] = splitList(s)
				} else {
					overrides[name] = []string{s}
				}
				continue
			}
		}
		overrides[name] = v.Get(name)
	}

	return New(overrides)
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}
