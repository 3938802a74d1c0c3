package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/benmeehan/device-locator/internal/service_registry"
	"github.com/benmeehan/device-locator/internal/services"
	"github.com/benmeehan/device-locator/internal/state_managers"
	"github.com/benmeehan/device-locator/internal/utils"
	"github.com/benmeehan/device-locator/pkg/account"
	"github.com/benmeehan/device-locator/pkg/encryption"
	"github.com/benmeehan/device-locator/pkg/file"
	"github.com/benmeehan/device-locator/pkg/geocode"
	"github.com/benmeehan/device-locator/pkg/mqtt"
	"github.com/benmeehan/device-locator/pkg/session"
)

const appName = "device locator"

func main() {
	displayAppname(appName)

	// Set up structured logging with JSON output
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := run(log); err != nil {
		log.Error().Err(err).Msg("Device locator exited with error")
		os.Exit(1)
	}
}

func run(log zerolog.Logger) error {
	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig(utils.ConfigPath(), fileClient)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.Validate(); err != nil {
		return err
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

	accountClient, err := account.NewHTTPClient(
		config.Account.BaseURL,
		account.Credentials{AccountID: creds.AccountID, Secret: creds.AccountSecret},
		sessions,
		config.Account.Timeout,
		log,
	)
	if err != nil {
		return err
	}

	// Authenticate before binding the port so a pending verification never serves traffic
	accounts := services.NewAccountService(accountClient, sessions, log)
	if err := accounts.Authenticate(context.Background()); err != nil {
		if errors.Is(err, services.ErrAuthenticationIncomplete) {
			log.Error().Msg("Two-factor or two-step verification is pending. Run the bootstrap command, then restart the service.")
		}
		return err
	}

	provider, err := newGeocodeProvider(config)
	if err != nil {
		return err
	}
	geocoder := services.NewGeocodingService(provider, log)
	cache := state_managers.NewLocationCache(config.Cache.TTL, log)

	var publisher *services.PublisherService
	var locationPublisher services.LocationPublisher
	if config.Publisher.Enabled {
		// Generate a unique MQTT Client ID by appending a UUID
		clientID := config.Publisher.ClientID + "-" + uuid.New().String()
		log.Info().Str("client_id", clientID).Msg("Using MQTT Client ID")

		mqttClient := mqtt.NewMqttService(fileClient)
		err = mqttClient.Initialize(mqtt.BrokerOptions{
			Broker:        config.Publisher.Broker,
			ClientID:      clientID,
			Username:      config.Publisher.Username,
			Password:      config.Publisher.Password,
			CACertificate: config.Publisher.CACertificate,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize MQTT connection: %w", err)
		}

		publisher = services.NewPublisherService(
			config.Publisher.Topic,
			config.Publisher.QOS,
			config.Publisher.Retained,
			creds.DeviceName,
			mqttClient,
			log,
		)
		locationPublisher = publisher
	}

	locations := services.NewLocationService(creds.DeviceName, accounts, geocoder, cache, locationPublisher, log)

	// Create a new service registry to manage services
	serviceRegistry := service_registry.NewServiceRegistry(log)
	if err := serviceRegistry.RegisterServices(config, service_registry.Components{
		Locations: locations,
		Publisher: publisher,
	}); err != nil {
		return err
	}

	// Start all registered services in the registry
	if err := serviceRegistry.StartServices(); err != nil {
		return err
	}
	log.Info().Str("device", creds.DeviceName).Msg("All services started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down gracefully...")
	return serviceRegistry.StopServices()
}

func newGeocodeProvider(config *utils.Config) (geocode.Provider, error) {
	if config.Geocoder.Provider == "google" {
		provider, err := geocode.NewGoogleGeocodingProvider(config.Geocoder.MapsAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create Google geocoding provider: %w", err)
		}
		return provider, nil
	}

	provider, err := geocode.NewNominatimProvider(config.Geocoder.BaseURL, config.Geocoder.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to create Nominatim provider: %w", err)
	}
	return provider, nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
