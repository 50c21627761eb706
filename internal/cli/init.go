package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/televisor/internal/config"
	"github.com/rileyhilliard/televisor/internal/errors"
	"github.com/rileyhilliard/televisor/internal/ui"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Endpoint       string // Backend URL
	FeedSource     string // simulated or mqtt
	Broker         string // MQTT broker, when FeedSource is mqtt
	Topic          string // MQTT topic, when FeedSource is mqtt
	Overwrite      bool   // Overwrite existing config without asking
	NonInteractive bool   // Skip prompts, use flags and defaults
}

var (
	initEndpointFlag       string
	initFeedFlag           string
	initBrokerFlag         string
	initTopicFlag          string
	initForce              bool
	initNonInteractiveFlag bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .televisor.yaml in the current directory",
	Long: `Create a .televisor.yaml configuration file.

Prompts for the backend endpoint and where throughput comes from. Pass
--non-interactive to write the file straight from flags and defaults.

Examples:
  televisor init
  televisor init --non-interactive --endpoint http://10.0.0.5:3000
  televisor init --non-interactive --feed mqtt --broker tcp://broker:1883 --topic planta/linea1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Init(InitOptions{
			Endpoint:       initEndpointFlag,
			FeedSource:     initFeedFlag,
			Broker:         initBrokerFlag,
			Topic:          initTopicFlag,
			Overwrite:      initForce,
			NonInteractive: initNonInteractiveFlag,
		}, cmd.OutOrStdout())
	},
}

func init() {
	initCmd.Flags().StringVar(&initEndpointFlag, "endpoint", "", "backend URL to write")
	initCmd.Flags().StringVar(&initFeedFlag, "feed", "", "throughput source: simulated or mqtt")
	initCmd.Flags().StringVar(&initBrokerFlag, "broker", "", "MQTT broker URL")
	initCmd.Flags().StringVar(&initTopicFlag, "topic", "", "MQTT topic carrying throughput samples")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing config")
	initCmd.Flags().BoolVar(&initNonInteractiveFlag, "non-interactive", false, "don't prompt, use flags and defaults")
	rootCmd.AddCommand(initCmd)
}

// Init creates a new .televisor.yaml configuration file.
func Init(opts InitOptions, out io.Writer) error {
	configPath := filepath.Join(".", config.ConfigFileName)

	if _, err := os.Stat(configPath); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", configPath),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", config.ConfigFileName)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if opts.Endpoint != "" {
		cfg.Endpoint = opts.Endpoint
	}
	if opts.FeedSource != "" {
		cfg.Feed.Source = opts.FeedSource
	}
	if opts.Broker != "" {
		cfg.Feed.MQTT.Broker = opts.Broker
	}
	if opts.Topic != "" {
		cfg.Feed.MQTT.Topic = opts.Topic
	}

	if !opts.NonInteractive {
		if err := promptConfig(cfg); err != nil {
			return err
		}
	}

	cfg.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if err := config.Validate(cfg); err != nil {
		return err
	}

	if err := writeConfig(configPath, cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Created %s\n\n", ui.SymbolSuccess, configPath)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  televisor fetch  - Check the backend answers")
	fmt.Fprintln(out, "  televisor        - Start the display")
	return nil
}

func promptConfig(cfg *config.Config) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Backend endpoint").
				Description("Base URL of the Desktop socket.io server").
				Placeholder(config.DefaultEndpoint).
				Value(&cfg.Endpoint).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("endpoint is required")
					}
					if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
						return fmt.Errorf("endpoint must start with http:// or https://")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Throughput source").
				Options(
					huh.NewOption("Simulated", config.FeedSimulated),
					huh.NewOption("MQTT broker", config.FeedMQTT),
				).
				Value(&cfg.Feed.Source),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("MQTT broker").
				Placeholder("tcp://localhost:1883").
				Value(&cfg.Feed.MQTT.Broker),
			huh.NewInput().
				Title("MQTT topic").
				Placeholder("planta/linea1/throughput").
				Value(&cfg.Feed.MQTT.Topic),
		).WithHideFunc(func() bool { return cfg.Feed.Source != config.FeedMQTT }),
	)

	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility or use --non-interactive")
	}
	return nil
}

func writeConfig(path string, cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to generate config",
			"This shouldn't happen - please report this bug")
	}

	header := `# televisor configuration
# Run 'televisor' to start the display, 'televisor fetch' to check the backend

`
	if err := os.WriteFile(path, []byte(header+string(data)), 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Failed to write config file: %s", path),
			"Check directory permissions")
	}
	return nil
}
