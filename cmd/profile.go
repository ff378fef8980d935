package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/autofiller/internal/messaging"
	"github.com/spigell/autofiller/internal/secrets"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the resume and API key used to fill forms",
}

var setResumeCmd = &cobra.Command{
	Use:   "set-resume FILE",
	Short: "Store the resume text read from FILE, or from stdin when FILE is -",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		logger, config := setup()

		resume, err := secrets.Load(secrets.Source{Name: "resume", File: args[0]})
		if err != nil {
			logger.Fatal("reading resume", zap.Error(err))
		}

		updateProfile(logger, config, messaging.Message{
			Type:    messaging.UpdateResume,
			Payload: messaging.ResumePayload{Resume: resume},
		})
	},
}

var setAPIKeyCmd = &cobra.Command{
	Use:   "set-api-key KEY",
	Short: "Store the model API key",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		logger, config := setup()

		updateProfile(logger, config, messaging.Message{
			Type:    messaging.UpdateAPIKey,
			Payload: messaging.APIKeyPayload{APIKey: args[0]},
		})
	},
}

var setInstructionsCmd = &cobra.Command{
	Use:   "set-instructions TEXT",
	Short: "Store guidance added to every prompt, e.g. salary expectations",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		logger, config := setup()

		store, err := openProfiles(config.Profile)
		if err != nil {
			logger.Fatal("opening profile", zap.Error(err))
		}
		if err := store.store.SetInstructions(args[0]); err != nil {
			logger.Fatal("saving instructions", zap.Error(err))
		}

		logger.Info("profile updated", zap.String("file", store.store.Path()))
	},
}

var showProfileCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored profile with the API key masked",
	Run: func(cmd *cobra.Command, _ []string) {
		logger, config := setup()

		store, err := openProfiles(config.Profile)
		if err != nil {
			logger.Fatal("opening profile", zap.Error(err))
		}

		p, err := store.Load(context.Background())
		if err != nil {
			logger.Fatal("loading profile", zap.Error(err))
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "file: %s\n", store.store.Path())
		fmt.Fprintf(out, "api key: %s\n", mask(p.APIKey))
		fmt.Fprintf(out, "resume: %d characters\n", len([]rune(p.Resume)))
		if p.Instructions != "" {
			fmt.Fprintf(out, "instructions: %s\n", p.Instructions)
		}
		if err := p.Validate(); err != nil {
			fmt.Fprintf(out, "incomplete: %s\n", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(setResumeCmd, setAPIKeyCmd, setInstructionsCmd, showProfileCmd)
}

// updateProfile sends msg to a background router backed by the profile store, the
// same path the page workflow uses.
func updateProfile(logger *zap.Logger, config *Config, msg messaging.Message) {
	store, err := openProfiles(config.Profile)
	if err != nil {
		logger.Fatal("opening profile", zap.Error(err))
	}

	router := messaging.NewBackgroundRouter(messaging.BackgroundDeps{Profiles: store, Logger: logger})

	ctx := context.Background()
	reply, err := router.Dispatch(ctx, msg)
	if err != nil {
		logger.Fatal("updating profile", zap.Error(err))
	}

	resp, err := reply.Wait(ctx)
	if err != nil {
		logger.Fatal("updating profile", zap.Error(err))
	}
	if !resp.Success {
		logger.Fatal(resp.Message, zap.String("detail", resp.Error))
	}

	logger.Info("profile updated", zap.String("file", store.store.Path()))
}

func mask(secret string) string {
	if secret == "" {
		return "<unset>"
	}
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}

	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}
