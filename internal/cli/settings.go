package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/neopixel/internal/config"
	"github.com/jmylchreest/neopixel/internal/secret"
)

func newSettingsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change settings",
		Long: `Show or change the settings file. The sudo password is never printed.

Keys:
  brightness      0 to 1
  enabled         true or false
  num_pixels      number of pixels on the strip
  pixel_order     RGB, GRB, RGBW or GRBW
  pixel_pin       GPIO pin driving the strip
  startup_color   "#RRGGBBWW", "#RRGGBB" or a colour name
  parse_gcode     handle M150 commands (true or false)
  sudo_password   credential used to start and stop the worker
  backend         socket, http, direct or logging
  socket_path     worker socket
  http_url        worker URL for the http backend
  worker_command  worker executable and arguments, comma-separated
  worker_log      log file passed to the worker with -l
  elevation_tool  sudo or a compatible tool`,
	}

	cmd.AddCommand(
		newSettingsListCmd(opts),
		newSettingsGetCmd(opts),
		newSettingsSetCmd(opts),
		newSettingsPathCmd(opts),
	)
	return cmd
}

func newSettingsListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.settings()
			if err != nil {
				return err
			}

			table := NewTable([]string{"KEY", "VALUE", "ENV"})
			for _, key := range config.Keys {
				value, _ := s.Get(key)
				table.AddRow([]string{key, value, config.EnvName(key)})
			}
			fmt.Fprint(cmd.OutOrStdout(), table.Render())

			if err := s.Validate(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n%v\n", err)
			}
			return nil
		},
	}
}

func newSettingsGetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.settings()
			if err != nil {
				return err
			}
			value, err := s.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newSettingsSetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> [value]",
		Short: "Change one setting",
		Long: `Change one setting in the settings file. The value is validated before
the file is written. Omit the value for sudo_password to be prompted.`,
		Example: `  neopixelctl settings set num_pixels 60
  neopixelctl settings set sudo_password`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			// Environment overrides are not written back to the file.
			s, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}

			var value string
			switch {
			case len(args) == 2:
				value = args[1]
			case config.IsSecret(key):
				buf, err := secret.Prompt(int(os.Stdin.Fd()), cmd.ErrOrStderr(), key+": ")
				if err != nil {
					return err
				}
				defer buf.Close()
				b, err := buf.Bytes()
				if err != nil {
					return err
				}
				value = string(b)
				secret.Zero(b)
			default:
				return fmt.Errorf("missing value for %s", key)
			}

			if err := s.Set(key, value); err != nil {
				return err
			}
			if err := s.Validate(); err != nil {
				return err
			}
			if err := s.Save(opts.configPath); err != nil {
				return err
			}

			shown, _ := s.Get(key)
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, shown)
			return nil
		},
	}
}

func newSettingsPathCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), opts.configPath)
		},
	}
}
