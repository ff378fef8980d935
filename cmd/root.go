package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/autofiller/internal/ai/provider"
	"github.com/spigell/autofiller/internal/browser"
	"github.com/spigell/autofiller/internal/form"
	"github.com/spigell/autofiller/internal/remote"
	"github.com/spigell/autofiller/internal/server"
)

const (
	app = "autofiller"
)

type Config struct {
	Server   server.Config   `mapstructure:"server"`
	Resolver ResolverConfig  `mapstructure:"resolver"`
	AI       AIConfig        `mapstructure:"ai"`
	Fill     FillConfig      `mapstructure:"fill"`
	Browser  browser.Options `mapstructure:"browser"`
	Profile  ProfileConfig   `mapstructure:"profile"`
}

type ResolverConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type AIConfig struct {
	provider.Config `mapstructure:",squash"`
	MaxLogLength    int    `mapstructure:"max-log-length"`
	Instructions    string `mapstructure:"instructions"`
}

type FillConfig struct {
	Categories []form.Category `mapstructure:"categories"`
}

type ProfileConfig struct {
	Path       string `mapstructure:"path"`
	ResumeFile string `mapstructure:"resume-file"`
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "autofiller fills job application forms with values generated from your resume",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"profile.api-key":      "AUTOFILLER_API_KEY",
		"profile.api-key-file": "AUTOFILLER_API_KEY_FILE",
		"profile.resume-file":  "AUTOFILLER_RESUME_FILE",
		"resolver.url":         "AUTOFILLER_RESOLVER_URL",
		"port":                 "PORT",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("resolver.url", remote.DefaultURL)
	viper.SetDefault("resolver.timeout", remote.DefaultTimeout)
	viper.SetDefault("ai.provider", provider.Gemini)
	viper.SetDefault("browser.headless", true)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is autofiller.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// A .env file is optional, the same way the config file is.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			// We can't proceed if the config file parsed with error.
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}
	if config == nil {
		config = &Config{}
	}

	if config.Server.Addr == "" {
		config.Server.Addr = server.DefaultAddr
		if port := strings.TrimSpace(viper.GetString("port")); port != "" {
			config.Server.Addr = ":" + port
		}
	}

	return config, nil
}
