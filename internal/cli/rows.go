package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowsankey/pkg/balance"
	ferrors "github.com/matzehuels/flowsankey/pkg/errors"
	"github.com/matzehuels/flowsankey/pkg/flow"
	"github.com/matzehuels/flowsankey/pkg/io"
	"github.com/matzehuels/flowsankey/pkg/store"
)

// importCommand creates the command that replaces the stored rows.
func (c *CLI) importCommand() *cobra.Command {
	var (
		format     string
		appendRows bool
	)

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the stored rows from a file or pasted table",
		Long: `Import rows into the store.

Files are read by extension (.json, .yaml, .tsv, .txt). With "-" the rows
are read from stdin as a pasted spreadsheet range: one row per line,
tab-separated source, target, current and previous values. A header line
is skipped when its value columns are not numeric.`,
		Example: `  flowsankey import statement.yaml
  pbpaste | flowsankey import -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd.Context(), args[0], io.Format(format), appendRows)
		},
	}

	cmd.Flags().StringVar(&format, "format", string(io.FormatTSV), "stdin format: tsv, json, yaml")
	cmd.Flags().BoolVar(&appendRows, "append", false, "append to the stored rows instead of replacing them")

	return cmd
}

func (c *CLI) runImport(ctx context.Context, src string, format io.Format, appendRows bool) error {
	var (
		rows []flow.Row
		err  error
	)
	if src == "-" {
		rows, err = io.ReadRows(c.stdin, format)
	} else {
		rows, err = io.ImportRows(src)
	}
	if err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInvalidRows, err, "import %s", src)
	}
	if len(rows) == 0 {
		return ferrors.New(ferrors.ErrCodeInvalidRows, "no rows in %s", src)
	}

	port, st, err := c.loadState(ctx)
	if err != nil {
		return err
	}
	defer port.Close()

	if appendRows && st.RowsSource == store.FromStore {
		rows = append(st.Rows, rows...)
	}
	if err := port.SaveRows(ctx, rows); err != nil {
		return err
	}
	c.Logger.Info("saved rows", "rows", len(rows), "source", src)

	printSuccess("Imported %d rows", len(rows))
	if report := balance.Check(rows); !report.OK() {
		printBalance(report)
	}
	printNextStep("Render", appName+" render")
	return nil
}

// rowsCommand creates the command that lists or exports the stored rows.
func (c *CLI) rowsCommand() *cobra.Command {
	var (
		asJSON bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "rows",
		Short: "List or export the stored rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRows(cmd.Context(), asJSON, output)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print rows as JSON")
	cmd.Flags().StringVarP(&output, "output", "o", "", "export rows to a file (.json, .yaml, .tsv)")

	return cmd
}

func (c *CLI) runRows(ctx context.Context, asJSON bool, output string) error {
	port, st, err := c.loadState(ctx)
	if err != nil {
		return err
	}
	port.Close()

	switch {
	case output != "":
		if err := io.ExportRows(st.Rows, output); err != nil {
			return err
		}
		printSuccess("Exported %d rows", len(st.Rows))
		printFile(output)
		return nil
	case asJSON:
		return io.WriteRows(st.Rows, stdout, io.FormatJSON)
	}

	classifier := c.classifier()
	table := make([][]string, len(st.Rows))
	for i, r := range st.Rows {
		kind := "-"
		if r.Valid() {
			kind = string(classifier.Classify(r.SourceName(), r.TargetName()))
		}
		table[i] = []string{
			strconv.Itoa(i + 1),
			r.SourceName(), r.TargetName(),
			formatNumber(r.CurrentPeriod), formatNumber(r.PreviousPeriod),
			kind,
		}
	}
	printTable([]string{"#", "Source", "Target", "Current", "Previous", "Type"}, table)
	if st.RowsSource != store.FromStore {
		printDetail("Sample statement; import rows to replace it")
	}
	return nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
