// Package config defines the server's CLI/file-configured parameters
// (§6) and their validation, following johanix/tdns's pattern of a flat
// viper-unmarshalled struct checked with go-playground/validator rather
// than hand-rolled field-by-field checks.
package config

import (
	"encoding/hex"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/zoneauth/zoneauth/zerr"
)

// Config is the complete set of §6 CLI flags plus the SPEC_FULL additions
// (--config, --reload, --debug-addr). Every field is bound to a pflag;
// the documented defaults are the values Default returns, not the zero
// value of this struct.
type Config struct {
	Bind string `validate:"required,ip"`
	Port uint16 `validate:"gt=0"`
	Thread int  `validate:"gt=0"`

	File string `validate:"required"`
	Zone string `validate:"required,fqdn"`

	KSK string
	ZSK string

	NSEC  bool
	NSEC3 bool

	Salt     string
	Iterate  uint16
	HashAlgo uint8 `mapstructure:"hash"`

	Debug     bool
	DebugAddr string `mapstructure:"debug-addr" validate:"required,hostname_port"`

	ConfigFile string `mapstructure:"config"`
	Reload     bool
}

// Default matches §6's stated defaults exactly.
func Default() Config {
	return Config{
		Bind:     "0.0.0.0",
		Port:     53,
		Thread:   1,
		NSEC:     true,
		NSEC3:    false,
		Iterate:  1,
		HashAlgo: 1,
		DebugAddr: "127.0.0.1:8053",
	}
}

// BindFlags registers every Config field on fs, seeded with Default's
// values, mirroring tdnsd's flag-then-viper-overlay wiring.
func BindFlags(fs *pflag.FlagSet, c *Config) {
	d := Default()
	fs.StringVar(&c.Bind, "bind", d.Bind, "address to bind the DNS listeners to")
	fs.Uint16Var(&c.Port, "port", d.Port, "UDP/TCP port to serve on")
	fs.IntVar(&c.Thread, "thread", d.Thread, "number of UDP reader goroutines")
	fs.StringVar(&c.File, "file", "", "zone file path (required)")
	fs.StringVar(&c.Zone, "zone", "", "zone apex name (required)")
	fs.StringVar(&c.KSK, "ksk", "", "key-signing key file")
	fs.StringVar(&c.ZSK, "zsk", "", "zone-signing key file")
	fs.BoolVar(&c.NSEC, "nsec", d.NSEC, "enable NSEC authenticated denial")
	fs.BoolVar(&c.NSEC3, "nsec3", d.NSEC3, "enable NSEC3 authenticated denial")
	fs.StringVar(&c.Salt, "salt", "", "NSEC3 salt, hex-encoded")
	fs.Uint16Var(&c.Iterate, "iterate", d.Iterate, "NSEC3 iteration count")
	fs.Uint8Var(&c.HashAlgo, "hash", d.HashAlgo, "NSEC3 hash algorithm id")
	fs.BoolVar(&c.Debug, "debug", false, "enable the debug HTTP surface")
	fs.StringVar(&c.DebugAddr, "debug-addr", d.DebugAddr, "bind address for the debug HTTP surface")
	fs.StringVar(&c.ConfigFile, "config", "", "optional YAML file of these same flags")
	fs.BoolVar(&c.Reload, "reload", false, "watch --file and hot-swap the zone on change")
}

// Load parses fs against args, then — if --config was given — overlays a
// YAML file on top via viper (flags win over file values, per §6: "flags
// override file values"), and finally validates the result.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	c := Default()
	BindFlags(fs, &c)
	if err := fs.Parse(args); err != nil {
		return nil, zerr.Wrap(zerr.ZoneConfigError, "parsing flags", err)
	}

	if c.ConfigFile != "" {
		v := viper.New()
		v.SetConfigFile(c.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, zerr.Wrap(zerr.ZoneConfigError, fmt.Sprintf("reading config file %s", c.ConfigFile), err)
		}
		if err := v.BindPFlags(fs); err != nil {
			return nil, zerr.Wrap(zerr.ZoneConfigError, "binding flags to config file", err)
		}
		if err := v.Unmarshal(&c); err != nil {
			return nil, zerr.Wrap(zerr.ZoneConfigError, "unmarshalling config file", err)
		}
	}

	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the struct tags above and the cross-field rules §6
// states in prose rather than as a single field constraint (NSEC/NSEC3
// mutual exclusivity, salt hex-decodability).
func Validate(c *Config) error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return zerr.ZoneConfigErrorAt("config", err.Error())
	}
	if c.NSEC && c.NSEC3 {
		return zerr.ZoneConfigErrorAt("config.nsec/nsec3", "--nsec and --nsec3 cannot both be enabled")
	}
	if c.NSEC3 && c.Salt != "" {
		if _, err := hex.DecodeString(c.Salt); err != nil {
			return zerr.ZoneConfigErrorAt("config.salt", "must be valid hex: "+err.Error())
		}
	}
	if (c.KSK == "") != (c.ZSK == "") {
		return zerr.ZoneConfigErrorAt("config.ksk/zsk", "a signed zone needs both --ksk and --zsk, or neither for unsigned")
	}
	return nil
}

// SaltBytes decodes the hex-encoded --salt flag, returning nil for the
// empty string (NSEC3's documented "no salt" encoding).
func (c *Config) SaltBytes() []byte {
	if c.Salt == "" {
		return nil
	}
	b, _ := hex.DecodeString(c.Salt)
	return b
}
