package cmd

import (
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/autofiller/internal/logger"
	"github.com/spigell/autofiller/internal/profile"
	"github.com/spigell/autofiller/internal/secrets"
)

// setup builds the logger and reads the config. Failures are fatal.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	return logger, config
}

// profiles is the stored profile with secrets from the config or environment
// applied on top.
type profiles struct {
	profile.Overrides
	store *profile.Store
}

func (p profiles) SetResume(text string) error { return p.store.SetResume(text) }
func (p profiles) SetAPIKey(key string) error  { return p.store.SetAPIKey(key) }

func openProfiles(cfg ProfileConfig) (profiles, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		var err error
		if path, err = profile.DefaultPath(); err != nil {
			return profiles{}, err
		}
	}

	store, err := profile.Open(path)
	if err != nil {
		return profiles{}, err
	}

	return profiles{
		Overrides: profile.Overrides{
			Base:   store,
			Resume: secrets.Source{Name: "resume", File: cfg.ResumeFile},
			APIKey: secrets.Source{Name: "api key", Value: cfg.APIKey, File: cfg.APIKeyFile},
		},
		store: store,
	}, nil
}
