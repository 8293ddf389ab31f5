// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON config file and
// environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
)

// Default values for options not set anywhere else.
const (
	DefaultAddress      = "localhost:8080"
	DefaultConfigPath   = "config.json"
	DefaultCookieMaxAge = 1200
	DefaultLogLevel     = "info"
)

// Options holds the configuration values for the application.
type Options struct {
	// Address defines the server's listening address (ip:port).
	Address string `json:"address"`

	// DatabaseDSN holds the PostgreSQL connection string. Empty selects the
	// in-memory account store.
	DatabaseDSN string `json:"database_dsn"`

	// Config is the path to the Config file.
	Config string `json:"-"`

	// CookieMaxAge is the session cookie lifetime in seconds.
	CookieMaxAge int `json:"cookie_max_age"`

	// SecureCookies marks session cookies Secure. Always on with TLS.
	SecureCookies bool `json:"enforce_secure_cookies"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	// LogLevel is a zap level name.
	LogLevel string `json:"log_level"`
}

// TLSEnabled reports whether both certificate and key are configured.
func (o *Options) TLSEnabled() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}

// Parse reads configuration from os.Args and the environment. It exits on
// invalid input, like flag.Parse does.
func Parse() *Options {
	opts, err := ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return opts
}

// ParseArgs builds Options from defaults, then the config file, then
// environment variables, then explicitly passed flags, each overriding
// the previous source.
func ParseArgs(args []string) (*Options, error) {
	opts := &Options{
		Address:      DefaultAddress,
		Config:       DefaultConfigPath,
		CookieMaxAge: DefaultCookieMaxAge,
		LogLevel:     DefaultLogLevel,
	}

	fs := flag.NewFlagSet("gophchat", flag.ContinueOnError)
	flags := &Options{}
	fs.StringVar(&flags.Address, "a", DefaultAddress, "run on ip:port server")
	fs.StringVar(&flags.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&flags.Config, "config", DefaultConfigPath, "path to config file")
	fs.StringVar(&flags.Config, "c", DefaultConfigPath, "path to config file (shorthand)")
	fs.IntVar(&flags.CookieMaxAge, "cookie-max-age", DefaultCookieMaxAge, "session cookie lifetime in seconds")
	fs.BoolVar(&flags.SecureCookies, "secure-cookies", false, "mark session cookies Secure")
	fs.StringVar(&flags.TLSCert, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&flags.TLSKey, "tls-key", "", "TLS key file")
	fs.StringVar(&flags.LogLevel, "l", DefaultLogLevel, "log level")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["config"] || set["c"] {
		opts.Config = flags.Config
	}
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		opts.Config = configPath
	}
	if err := loadFile(opts); err != nil {
		return nil, err
	}

	if err := applyEnv(opts); err != nil {
		return nil, err
	}

	if set["a"] {
		opts.Address = flags.Address
	}
	if set["d"] {
		opts.DatabaseDSN = flags.DatabaseDSN
	}
	if set["cookie-max-age"] {
		opts.CookieMaxAge = flags.CookieMaxAge
	}
	if set["secure-cookies"] {
		opts.SecureCookies = flags.SecureCookies
	}
	if set["tls-cert"] {
		opts.TLSCert = flags.TLSCert
	}
	if set["tls-key"] {
		opts.TLSKey = flags.TLSKey
	}
	if set["l"] {
		opts.LogLevel = flags.LogLevel
	}

	if opts.TLSEnabled() {
		opts.SecureCookies = true
	}
	if opts.CookieMaxAge < 0 {
		return nil, fmt.Errorf("cookie max age must not be negative, got %d", opts.CookieMaxAge)
	}
	if (opts.TLSCert == "") != (opts.TLSKey == "") {
		return nil, errors.New("tls cert and key must be set together")
	}
	return opts, nil
}

// loadFile merges the JSON config file into opts. A missing file is not an
// error.
func loadFile(opts *Options) error {
	if opts.Config == "" {
		return nil
	}
	data, err := os.ReadFile(opts.Config)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, opts); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

func applyEnv(opts *Options) error {
	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		opts.Address = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		opts.DatabaseDSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		opts.LogLevel = v
	}
	if v := os.Getenv("TLS_CERT"); v != "" {
		opts.TLSCert = v
	}
	if v := os.Getenv("TLS_KEY"); v != "" {
		opts.TLSKey = v
	}
	if v := os.Getenv("COOKIE_MAX_AGE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("COOKIE_MAX_AGE: %w", err)
		}
		opts.CookieMaxAge = n
	}
	if v := os.Getenv("ENFORCE_SECURE_COOKIES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ENFORCE_SECURE_COOKIES: %w", err)
		}
		opts.SecureCookies = b
	}
	return nil
}
