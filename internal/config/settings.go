package config

import (
	"context"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-robot/pkg/httpclient"

	"github.com/spf13/viper"
)

// EnvProduction selects the work-item source.
const EnvProduction = "production"

// Settings are process-level knobs that sit outside the run configuration.
type Settings struct {
	Env            string
	LogLevel       string
	OutputDir      string
	PublishersFile string
	HTTPTimeout    time.Duration
}

// Production reports whether the run reads its configuration from a work item.
func (s Settings) Production() bool {
	return s.Env == EnvProduction
}

// LoadSettings reads Settings from the environment with defaults applied.
func LoadSettings() Settings {
	v := viper.New()
	v.SetDefault("ENV", EnvProduction)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OUTPUT_DIR", "output")
	v.SetDefault("PUBLISHERS_FILE", "")
	v.SetDefault("HTTP_TIMEOUT", "15s")
	v.AutomaticEnv()

	timeout := v.GetDuration("HTTP_TIMEOUT")
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return Settings{
		Env:            strings.TrimSpace(v.GetString("ENV")),
		LogLevel:       strings.TrimSpace(v.GetString("LOG_LEVEL")),
		OutputDir:      strings.TrimSpace(v.GetString("OUTPUT_DIR")),
		PublishersFile: strings.TrimSpace(v.GetString("PUBLISHERS_FILE")),
		HTTPTimeout:    timeout,
	}
}

// SelectSource returns the work-item source in production and the environment otherwise.
func SelectSource(ctx context.Context, s Settings, client httpclient.Client) (Source, error) {
	env := NewEnvSource()
	if !s.Production() {
		return env, nil
	}
	item, err := WorkItemFromEnv(ctx, client, env)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Load selects the source for s and resolves the run configuration against now.
func Load(ctx context.Context, s Settings, client httpclient.Client, now time.Time) (RunConfig, error) {
	src, err := SelectSource(ctx, s, client)
	if err != nil {
		return RunConfig{}, err
	}
	return Resolve(src, now)
}
