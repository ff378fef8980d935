package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/autofiller/internal/ai"
	"github.com/spigell/autofiller/internal/ai/provider"
	"github.com/spigell/autofiller/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the backend that turns form fields and a resume into field values",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default is server.addr or :3000)")
}

func serve(cmd *cobra.Command) {
	logger, config := setup()

	if addr := cmd.Flag("addr").Value.String(); addr != "" {
		config.Server.Addr = addr
	}

	name := provider.Normalize(config.AI.Name)
	factory, err := provider.Factory(config.AI.Config, logger.With(zap.String("provider", name)))
	if err != nil {
		logger.Fatal("configuring ai provider", zap.Error(err))
	}

	assistant := ai.NewAssistant(factory, name, logger, config.AI.MaxLogLength)
	assistant.SetPromptOverrides(ai.PromptOverrides{UserInstructions: config.AI.Instructions})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting the autofiller backend",
		zap.String("version", version),
		zap.String("addr", config.Server.Addr),
		zap.String("provider", name),
	)

	if err := server.New(config.Server, assistant, logger).Run(ctx); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}
}
