package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/benmeehan/device-locator/internal/services"
	"github.com/benmeehan/device-locator/internal/utils"
	"github.com/benmeehan/device-locator/pkg/account"
	"github.com/benmeehan/device-locator/pkg/encryption"
	"github.com/benmeehan/device-locator/pkg/file"
	"github.com/benmeehan/device-locator/pkg/session"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		fmt.Fprintf(os.Stderr, "Bootstrap failed: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, log zerolog.Logger) error {
	fileClient := file.NewFileService()

	config, err := utils.LoadConfig(utils.ConfigPath(), fileClient)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if config.Account.BaseURL == "" {
		return fmt.Errorf("%w: account.base_url must be set", utils.ErrMissingConfig)
	}
	log = log.Level(config.LogLevel())

	creds, err := utils.LoadCredentials()
	if err != nil {
		return err
	}

	var encryptionManager encryption.EncryptionManagerInterface
	if config.Session.KeyFile != "" {
		manager := encryption.NewEncryptionManager(fileClient)
		if err := manager.Initialize(config.Session.KeyFile); err != nil {
			return fmt.Errorf("failed to create encryption manager: %w", err)
		}
		encryptionManager = manager
	}

	sessions := session.NewSessionManager(config.Session.Dir, creds.AccountID, fileClient, encryptionManager, log)

	client, err := account.NewHTTPClient(
		config.Account.BaseURL,
		account.Credentials{AccountID: creds.AccountID, Secret: creds.AccountSecret},
		sessions,
		config.Account.Timeout,
		log,
	)
	if err != nil {
		return err
	}

	return services.NewBootstrapService(client, sessions, os.Stdin, os.Stdout, log).Run(ctx)
}
