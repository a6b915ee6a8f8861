package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/benmeehan/locationsharing/internal/services"
	"github.com/benmeehan/locationsharing/internal/utils"
	"github.com/benmeehan/locationsharing/pkg/file"
	http_utils "github.com/benmeehan/locationsharing/pkg/httpUtils"
	"github.com/benmeehan/locationsharing/pkg/location"
	"github.com/benmeehan/locationsharing/pkg/mqtt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
	outputFile string
	publish    bool
	geocode    bool
)

var rootCmd = &cobra.Command{
	Use:           "locationsharing",
	Short:         "Read the locations people share with your Google account",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch shared locations once",
	Long: `Fetch the locations shared with the account owning the session cookie.
The cookie is read from ` + utils.EnvCookie + ` (a .env file is honoured) or from sharing.cookie_file.`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <body-file>",
	Short: "Decode a saved response body without contacting the service",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecode,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the record layout version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "record layout %s\n", location.SharingLayout.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/config.yaml", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "Log level (overrides configuration)")

	fetchCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write results to this JSON file instead of stdout")
	fetchCmd.Flags().BoolVar(&publish, "publish", false, "Publish each location to MQTT")
	fetchCmd.Flags().BoolVar(&geocode, "geocode", false, "Fill in missing addresses with the Google Maps Geocoding API")

	decodeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write results to this JSON file instead of stdout")

	rootCmd.AddCommand(fetchCmd, decodeCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newLogger builds the stderr logger; stdout is reserved for results.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

func runFetch(cmd *cobra.Command, args []string) error {
	fileClient := file.NewFileService()

	// Load configuration from file, .env and environment
	config, err := utils.LoadConfig(configFile, fileClient)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		config.Logging.Level = logLevel
	}
	if publish {
		config.MQTT.Enabled = true
	}
	if geocode {
		config.Geocoding.Enabled = true
	}
	if err := config.Validate(); err != nil {
		return err
	}
	log := newLogger(config.Logging.Level)

	cookie, err := config.ResolveCookie(fileClient)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := location.NewSharingProvider(cookie, config.Sharing.Endpoint,
		http_utils.NewClient(config.Sharing.Timeout), log.With().Str("component", "sharing").Logger())

	var resolver location.AddressResolver
	if config.Geocoding.Enabled {
		r, err := location.NewGoogleAddressResolver(config.Geocoding.MapsAPIKey, config.Geocoding.Timeout)
		if err != nil {
			return fmt.Errorf("failed to create address resolver: %w", err)
		}
		resolver = r
	}

	var mqttClient mqtt.MQTTClient
	if config.MQTT.Enabled {
		// Generate a unique MQTT Client ID by appending a UUID
		clientID := config.MQTT.ClientID + "-" + uuid.New().String()
		log.Info().Str("client_id", clientID).Msg("Connecting to MQTT broker")

		mqttService := mqtt.NewMqttService(fileClient)
		err := mqttService.Initialize(mqtt.Options{
			Broker:         config.MQTT.Broker,
			ClientID:       clientID,
			CACertificate:  config.MQTT.CACertificate,
			Username:       config.MQTT.Username,
			Password:       config.MQTT.Password,
			ConnectTimeout: config.MQTT.ConnectTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize MQTT connection: %w", err)
		}
		defer mqttService.Disconnect(250)
		mqttClient = mqttService
	}

	service := services.NewLocationService(config.MQTT.Topic, config.MQTT.QOS, config.MQTT.Retained,
		provider, resolver, mqttClient, log)

	messages, err := service.Run(ctx)
	if err != nil {
		return err
	}

	return writeResults(cmd.OutOrStdout(), fileClient, messages)
}

func runDecode(cmd *cobra.Command, args []string) error {
	fileClient := file.NewFileService()

	body, err := fileClient.ReadFileRaw(args[0])
	if err != nil {
		return fmt.Errorf("failed to read body file: %w", err)
	}

	locations, err := location.DecodeEnvelope(body)
	if err != nil {
		return err
	}

	return writeResults(cmd.OutOrStdout(), fileClient, locations)
}

func writeResults(stdout io.Writer, fileClient file.FileOperations, results any) error {
	if outputFile != "" {
		return fileClient.WriteJsonFile(outputFile, results)
	}

	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}
