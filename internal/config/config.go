// Package config resolves runtime settings from flags, DEBATE_* environment
// variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "DEBATE"

	DefaultEndpoint = "http://localhost:8000"
	DefaultMockAddr = "127.0.0.1:8000"
)

const (
	KeyEndpoint  = "endpoint"
	KeyTimeout   = "timeout"
	KeyAltScreen = "alt-screen"
	KeyLogFile   = "log-file"
	KeyVerbose   = "verbose"
	KeyMockAddr  = "mock-addr"
	KeyMockDelay = "mock-delay"
)

type Config struct {
	Endpoint  string        `validate:"required,url"`
	Timeout   time.Duration `validate:"gte=0"`
	AltScreen bool
	LogFile   string `validate:"required"`
	Verbose   bool
	MockAddr  string        `validate:"required,hostname_port"`
	MockDelay time.Duration `validate:"gte=0"`
}

var validate = validator.New()

func DefaultLogFile() string {
	return filepath.Join(os.TempDir(), "debate-tui.log")
}

// RegisterFlags declares every setting on flags with its default.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(KeyEndpoint, DefaultEndpoint, "Base URL of the analysis service")
	flags.Duration(KeyTimeout, 0, "Per-request timeout (0 waits indefinitely)")
	flags.Bool(KeyAltScreen, true, "Use alternate screen buffer")
	flags.String(KeyLogFile, DefaultLogFile(), "Log file path")
	flags.BoolP(KeyVerbose, "v", false, "Enable debug logging")
	flags.String(KeyMockAddr, DefaultMockAddr, "Listen address for serve-mock")
	flags.Duration(KeyMockDelay, 1500*time.Millisecond, "Artificial latency added by serve-mock")
}

// Bind wires flags and DEBATE_* environment variables into v. Environment
// names replace dashes with underscores, e.g. DEBATE_MOCK_ADDR.
func Bind(v *viper.Viper, flags *pflag.FlagSet) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	return nil
}

// LoadDotEnv loads the given env files, or ./.env when none are given.
// Missing files are not an error; variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Endpoint:  strings.TrimRight(strings.TrimSpace(v.GetString(KeyEndpoint)), "/"),
		Timeout:   v.GetDuration(KeyTimeout),
		AltScreen: v.GetBool(KeyAltScreen),
		LogFile:   strings.TrimSpace(v.GetString(KeyLogFile)),
		Verbose:   v.GetBool(KeyVerbose),
		MockAddr:  strings.TrimSpace(v.GetString(KeyMockAddr)),
		MockDelay: v.GetDuration(KeyMockDelay),
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, describe(err)
	}
	return cfg, nil
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: failed %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(parts, "; "))
}
