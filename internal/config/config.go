// Package config loads the server configuration from defaults, .env files and the environment
package config

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const envPrefix = "JITSUS_"

// Config holds the server settings.
type Config struct {
	Host        string        `validate:"required,hostname|ip"`
	Port        int           `validate:"min=1,max=65535"`
	MaxClients  int           `validate:"min=1"`
	LogLevel    string        `validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFile     string
	HTTPAddr    string        `validate:"omitempty,hostname_port"`
	NATSURL     string        `validate:"omitempty,url"`
	MoveTimeout time.Duration `validate:"min=0"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Host:       "localhost",
		Port:       6433,
		MaxClients: 10,
		LogLevel:   "info",
	}
}

// Address returns host:port for the game listener.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Load starts from Default, reads the given .env files and applies JITSUS_* variables.
// Missing files are ignored when none are named explicitly.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(errors.Cause(err)) {
			return Config{}, errors.Wrap(err, "load .env failed")
		}
	} else if err := godotenv.Load(files...); err != nil {
		return Config{}, errors.Wrap(err, "load env files failed")
	}

	cfg := Default()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(envPrefix + key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrapf(ErrInvalidConfig, "%s%s: %v", envPrefix, key, err)
		}
		*dst = n
		return nil
	}

	str("HOST", &c.Host)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FILE", &c.LogFile)
	str("HTTP_ADDR", &c.HTTPAddr)
	str("NATS_URL", &c.NATSURL)
	if err := num("PORT", &c.Port); err != nil {
		return err
	}
	if err := num("MAX_CLIENTS", &c.MaxClients); err != nil {
		return err
	}
	if v, ok := lookup(envPrefix + "MOVE_TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrapf(ErrInvalidConfig, "%sMOVE_TIMEOUT: %v", envPrefix, err)
		}
		c.MoveTimeout = d
	}
	return nil
}

var validate = validator.New()

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	c.LogLevel = strings.ToLower(c.LogLevel)
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	return nil
}
