package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/neopixel/internal/controller"
)

func newColorCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "color <hex|name>",
		Short: "Fill the strip with a colour",
		Long: `Fill the whole strip with a colour and show it.

The colour is "#RRGGBBWW" (shorter values are padded with zeros, so "#ff8000"
has no white) or a CSS colour name such as "orange".`,
		Example: `  neopixelctl color "#ff008000"
  neopixelctl color teal`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cmd.Context(), opts, func(c *controller.Controller) error {
				return c.SetColor(args[0])
			})
		},
	}
}

func newBrightnessCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "brightness <0..1>",
		Short: "Set the strip brightness",
		Long: `Set the strip brightness and show it.

Like every one-shot command this initialises the strip again first, so pixels
set by an earlier command are turned off. Use "neopixelctl run" to keep the
strip state between changes.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid brightness %q", args[0])
			}
			return withController(cmd.Context(), opts, func(c *controller.Controller) error {
				return c.SetBrightness(v)
			})
		},
	}
}

func newPixelCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pixel <index> <hex|name>",
		Short: "Set one pixel",
		Long: `Set one pixel and show it. Negative indices count from the end of the
strip, so -1 is the last pixel. Put "--" before a negative index so it is not
read as a flag.

Each one-shot command initialises the strip again, and the worker starts a new
strip with every pixel off. Only the pixel given here is lit afterwards; use
"neopixelctl run" to keep a strip state across several changes.`,
		Example: `  neopixelctl pixel 3 red
  neopixelctl pixel -- -1 teal`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			return withController(cmd.Context(), opts, func(c *controller.Controller) error {
				return c.SetPixel(index, args[1])
			})
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w (use \"neopixelctl pixel -- -1 <colour>\" for negative indices)", err)
	})
	return cmd
}

func newGcodeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "gcode <line>...",
		Short: "Apply M150 G-code lines",
		Long: `Run each line through the G-code hook. M150 commands are applied to the
strip; every line that would be passed on to the printer is printed.`,
		Example: `  neopixelctl gcode "M150 R255 U50 B0 W0"
  neopixelctl gcode "M150 I3 R10 U20 B30" "M150 P128"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cmd.Context(), opts, func(c *controller.Controller) error {
				for _, line := range args {
					if forward, consumed := c.HandleGcode(line); !consumed {
						fmt.Fprintln(cmd.OutOrStdout(), forward)
					}
				}
				return nil
			})
		},
	}
}
