package cli

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowsankey/pkg/balance"
	ferrors "github.com/matzehuels/flowsankey/pkg/errors"
)

// checkCommand creates the balance check command.
func (c *CLI) checkCommand() *cobra.Command {
	var strict, asJSON bool

	cmd := &cobra.Command{
		Use:   "check [rows-file]",
		Short: "Report nodes whose inflow and outflow differ",
		Long: `Check that every intermediate node passes on what it receives, in both
periods, and that sources and sinks agree in total. Rows with a missing
name or a negative or non-numeric value are listed separately.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runCheck(cmd.Context(), input, strict, asJSON)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when anything is flagged")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}

func (c *CLI) runCheck(ctx context.Context, input string, strict, asJSON bool) error {
	rows, _, err := c.renderInput(ctx, input)
	if err != nil {
		return err
	}

	report := balance.Check(rows)
	c.Logger.Debug("checked balance", "rows", len(rows), "nodes", len(report.Nodes), "issues", len(report.Issues))

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printBalance(report)
	}

	if strict && !report.OK() {
		return errNotBalanced(report)
	}
	return nil
}

func errNotBalanced(r balance.Report) error {
	return ferrors.New(ferrors.ErrCodeInvalidRows, "%d imbalanced nodes, %d row issues", len(r.Imbalanced()), len(r.Issues))
}
