package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowsankey/pkg/pipeline"
	"github.com/matzehuels/flowsankey/pkg/render/nodelink"
)

// graphOpts holds the flags of the graph command.
type graphOpts struct {
	output string // output file; stdout when empty
	svg    bool   // lay out with Graphviz and write SVG
	values bool   // add values to labels
}

// graphCommand creates the structural view command: the flow graph as
// Graphviz DOT, or laid out as SVG by Graphviz itself.
func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph [rows-file]",
		Short: "Write the flow structure as Graphviz DOT or SVG",
		Long: `Write the flow structure as a node-link diagram. Nodes in the same
Sankey column share a rank, links keep their flow colors, and links that
close a cycle are dashed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runGraph(cmd.Context(), input, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.svg, "svg", false, "lay out with Graphviz and write SVG")
	cmd.Flags().BoolVar(&opts.values, "values", false, "show values on nodes and links")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, input string, opts graphOpts) error {
	rows, settings, err := c.renderInput(ctx, input)
	if err != nil {
		return err
	}

	g := pipeline.BuildGraph(ctx, rows, c.classifier())
	dot := nodelink.ToDOT(g, nodelink.Options{
		Values:   opts.values,
		Align:    settings.Align,
		Settings: &settings,
	})

	data := []byte(dot)
	if opts.svg {
		if data, err = nodelink.RenderSVG(ctx, dot); err != nil {
			return fmt.Errorf("graphviz: %w", err)
		}
	}

	if opts.output == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := writeArtifact(opts.output, data); err != nil {
		return err
	}
	printSuccess("Wrote %d nodes, %d links", g.NodeCount(), g.LinkCount())
	printFile(opts.output)
	return nil
}
