package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	ferrors "github.com/matzehuels/flowsankey/pkg/errors"
	"github.com/matzehuels/flowsankey/pkg/override"
)

// nodeCommand creates the node settings command group.
func (c *CLI) nodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Edit per-node settings",
	}

	cmd.AddCommand(c.nodeListCommand())
	cmd.AddCommand(c.nodeSetCommand())
	cmd.AddCommand(c.nodeResetCommand())
	cmd.AddCommand(c.nodeMoveCommand())

	return cmd
}

// nodeSetOpts holds the flags of "node set".
type nodeSetOpts struct {
	color        string
	labelSize    float64
	valueSize    float64
	linkPriority bool
	offsetX      float64
	offsetY      float64
}

func (c *CLI) nodeSetCommand() *cobra.Command {
	var opts nodeSetOpts

	cmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Set a node's color, font sizes, link color priority or offset",
		Example: `  flowsankey node set "Выручка" --color "#16a34a" --link-priority
  flowsankey node set EBITDA --offset-y -40`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			f := cmd.Flags()
			if opts.color != "" {
				if _, ok := override.NormalizeColor(opts.color); !ok {
					return ferrors.New(ferrors.ErrCodeInvalidInput, "invalid color %q", opts.color)
				}
			}
			setX, setY := f.Changed("offset-x"), f.Changed("offset-y")

			return c.runNodeCommands(cmd.Context(), name, func(s override.ReportSettings) []override.Command {
				var cmds []override.Command
				if f.Changed("color") {
					cmds = append(cmds, override.SetColor{Node: name, Color: opts.color})
				}
				if f.Changed("label-size") {
					cmds = append(cmds, override.SetLabelSize{Node: name, Size: opts.labelSize})
				}
				if f.Changed("value-size") {
					cmds = append(cmds, override.SetValueSize{Node: name, Size: opts.valueSize})
				}
				if f.Changed("link-priority") {
					cmds = append(cmds, override.SetLinkColorPriority{Node: name, Priority: opts.linkPriority})
				}
				if setX || setY {
					off := s.Node(name).Offset()
					if setX {
						off.X = opts.offsetX
					}
					if setY {
						off.Y = opts.offsetY
					}
					cmds = append(cmds, override.MoveNode{Node: name, Offset: off})
				}
				return cmds
			})
		},
	}

	cmd.Flags().StringVar(&opts.color, "color", "", `node color (hex or CSS name, "" clears)`)
	cmd.Flags().Float64Var(&opts.labelSize, "label-size", 0, "label font size (0 clears)")
	cmd.Flags().Float64Var(&opts.valueSize, "value-size", 0, "value font size (0 clears)")
	cmd.Flags().BoolVar(&opts.linkPriority, "link-priority", false, "color the node's links with its own color")
	cmd.Flags().Float64Var(&opts.offsetX, "offset-x", 0, "horizontal offset from the computed position")
	cmd.Flags().Float64Var(&opts.offsetY, "offset-y", 0, "vertical offset from the computed position")

	return cmd
}

func (c *CLI) nodeResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <name>",
		Short: "Return a node to its computed position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runNodeCommands(cmd.Context(), args[0], fixed(override.ResetPosition{Node: args[0]}))
		},
	}
}

func (c *CLI) nodeMoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "move <name> <up|down>",
		Short:     "Move a node up or down among its siblings",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(override.Up), string(override.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := override.ParseDirection(args[1])
			if err != nil {
				return ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "move %s", args[0])
			}
			return c.runNodeCommands(cmd.Context(), args[0], fixed(override.ReorderSibling{Node: args[0], Direction: dir}))
		},
	}
}

func (c *CLI) runNodeCommands(ctx context.Context, name string, build commandBuilder) error {
	changed, err := c.applySettings(ctx, name, build)
	if err != nil {
		return err
	}
	if changed {
		printSuccess("Updated %s", name)
	} else {
		printInfo("No change for %s", name)
	}
	return nil
}

func (c *CLI) nodeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List nodes with their values and overrides",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.openDiagram(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			rows := make([][]string, 0, d.graph.NodeCount())
			for i, n := range d.graph.Nodes() {
				ns := d.settings.Node(n.Name)
				col := ""
				if i < len(d.layout.Nodes) {
					col = strconv.Itoa(d.layout.Nodes[i].Column + 1)
				}
				offset := ""
				if ns.OffsetX != 0 || ns.OffsetY != 0 {
					offset = fmt.Sprintf("%g, %g", ns.OffsetX, ns.OffsetY)
				}
				rows = append(rows, []string{
					n.Name, col,
					formatNumber(n.Value()), formatNumber(n.PreviousValue()),
					ns.Color, offset,
				})
			}
			printTable([]string{"Node", "Column", "Current", "Previous", "Color", "Offset"}, rows)
			return nil
		},
	}
}
