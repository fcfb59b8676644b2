package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	ferrors "github.com/matzehuels/flowsankey/pkg/errors"
	"github.com/matzehuels/flowsankey/pkg/graph"
	"github.com/matzehuels/flowsankey/pkg/override"
)

// stateCommand creates the command group for the stored report settings.
func (c *CLI) stateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect, edit and reset the stored report",
	}

	cmd.AddCommand(c.stateShowCommand())
	cmd.AddCommand(c.stateSetCommand())
	cmd.AddCommand(c.statePathCommand())
	cmd.AddCommand(c.stateResetCommand())

	return cmd
}

func (c *CLI) stateShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the stored report settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, s, err := c.loadSettings(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				data, err := override.EncodeSettings(s)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(stdout, string(data))
				return err
			}

			printKeyValue("Title", s.Title)
			if s.Subtitle != "" {
				printKeyValue("Subtitle", s.Subtitle)
			}
			printKeyValue("Periods", s.CurrentLabel+" / "+s.PreviousLabel)
			printKeyValue("Unit", s.Unit)
			printKeyValue("Canvas", fmt.Sprintf("%g×%g", s.Width, s.Height))
			printKeyValue("Align", string(s.Align))
			printKeyValue("Link scale", strconv.FormatFloat(s.LinkWidthScale, 'f', -1, 64))
			printKeyValue("Fonts", fmt.Sprintf("label %g, value %g, title %g", s.LabelSize, s.ValueSize, s.TitleSize))
			printKeyValue("Nodes", strconv.Itoa(len(s.Nodes))+" with overrides")
			printKeyValue("Images", strconv.Itoa(len(s.Images)))
			printKeyValue("Source", source)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the settings document as JSON")

	return cmd
}

// stateSetOpts holds the flags of "state set".
type stateSetOpts struct {
	title, subtitle string
	current, prev   string
	unit            string
	width, height   float64
	align           string
	linkScale       float64
	labelSize       float64
	valueSize       float64
	titleSize       float64
}

func (c *CLI) stateSetCommand() *cobra.Command {
	var opts stateSetOpts

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the header, canvas, fonts or alignment",
		Example: `  flowsankey state set --title "P&L 2024" --unit "млн ₽"
  flowsankey state set --width 1600 --height 900 --align justify`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			build, err := opts.commands(cmd)
			if err != nil {
				return err
			}
			changed, err := c.applySettings(cmd.Context(), "", build)
			if err != nil {
				return err
			}
			if changed {
				printSuccess("Updated report settings")
			} else {
				printInfo("No change")
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.title, "title", "", "title")
	f.StringVar(&opts.subtitle, "subtitle", "", "subtitle")
	f.StringVar(&opts.current, "current-label", "", "current period label")
	f.StringVar(&opts.prev, "previous-label", "", "previous period label")
	f.StringVar(&opts.unit, "unit", "", "unit shown after values")
	f.Float64Var(&opts.width, "width", 0, "canvas width")
	f.Float64Var(&opts.height, "height", 0, "canvas height")
	f.StringVar(&opts.align, "align", "", "column alignment: left, justify")
	f.Float64Var(&opts.linkScale, "link-scale", 0, "link width scale")
	f.Float64Var(&opts.labelSize, "label-size", 0, "label font size")
	f.Float64Var(&opts.valueSize, "value-size", 0, "value font size")
	f.Float64Var(&opts.titleSize, "title-size", 0, "title font size")

	return cmd
}

// commands validates the changed flags and returns a builder for the
// matching reducer commands. Header fields that were not given keep their
// stored values.
func (o stateSetOpts) commands(cmd *cobra.Command) (commandBuilder, error) {
	f := cmd.Flags()
	var align graph.Align
	if f.Changed("align") {
		a, err := graph.ParseAlign(o.align)
		if err != nil {
			return nil, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "align")
		}
		align = a
	}
	if f.Changed("link-scale") && o.linkScale <= 0 {
		return nil, ferrors.New(ferrors.ErrCodeInvalidInput, "link scale must be positive")
	}

	return func(s override.ReportSettings) []override.Command {
		var cmds []override.Command
		if f.Changed("title") || f.Changed("subtitle") || f.Changed("current-label") || f.Changed("previous-label") {
			t := override.SetTitle{Title: s.Title, Subtitle: s.Subtitle, CurrentLabel: o.current, PreviousLabel: o.prev}
			if f.Changed("title") {
				t.Title = o.title
			}
			if f.Changed("subtitle") {
				t.Subtitle = o.subtitle
			}
			cmds = append(cmds, t)
		}
		if f.Changed("unit") {
			cmds = append(cmds, override.SetUnit{Unit: o.unit})
		}
		if o.width > 0 || o.height > 0 {
			cmds = append(cmds, override.SetCanvas{Width: o.width, Height: o.height})
		}
		if align != "" {
			cmds = append(cmds, override.SetAlign{Align: align})
		}
		if f.Changed("link-scale") {
			cmds = append(cmds, override.SetLinkWidthScale{Scale: o.linkScale})
		}
		if o.labelSize > 0 || o.valueSize > 0 || o.titleSize > 0 {
			cmds = append(cmds, override.SetFontSizes{Label: o.labelSize, Value: o.valueSize, Title: o.titleSize})
		}
		return cmds
	}, nil
}

func (c *CLI) statePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the report is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.storePath()
			if err != nil {
				return fmt.Errorf("get state path: %w", err)
			}
			fmt.Fprintln(stdout, p)
			return nil
		},
	}
}

func (c *CLI) stateResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the stored rows and settings",
		Long:  `Delete the stored rows and settings. The next command starts from the sample statement and default settings.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := c.openStore()
			if err != nil {
				return err
			}
			defer port.Close()
			if err := port.Reset(cmd.Context()); err != nil {
				return err
			}
			printSuccess("Reset stored report")
			return nil
		},
	}
}
