package cli

import (
	"context"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	ferrors "github.com/matzehuels/flowsankey/pkg/errors"
	"github.com/matzehuels/flowsankey/pkg/interact"
	"github.com/matzehuels/flowsankey/pkg/layout"
	"github.com/matzehuels/flowsankey/pkg/override"
	"github.com/matzehuels/flowsankey/pkg/pipeline"
	"github.com/matzehuels/flowsankey/pkg/scene"
	"github.com/matzehuels/flowsankey/pkg/store"
)

// editCommand creates the interactive editor command.
func (c *CLI) editCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit node order, positions and colors interactively",
		Long: `Open the stored report in a terminal editor. Select nodes with the
arrow keys, reorder them among their siblings, nudge them, and change their
color or label size. Every change is saved as it is made.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
				return ferrors.New(ferrors.ErrCodeUnsupported, "edit needs an interactive terminal")
			}
			return c.runEdit(cmd.Context())
		},
	}
}

func (c *CLI) runEdit(ctx context.Context) error {
	port, st, err := c.loadState(ctx)
	if err != nil {
		return err
	}
	defer port.Close()

	lang, err := language.Parse(c.Config.Render.Language)
	if err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInvalidConfig, err, "language %q", c.Config.Render.Language)
	}

	saver := newCommitter(ctx, port, c.Logger)
	g := pipeline.BuildGraph(ctx, st.Rows, c.classifier())
	ctrl := interact.New(g, st.Settings,
		interact.WithMemo(layout.NewMemo()),
		interact.WithCommitHook(saver.commit),
		interact.WithSceneOptions(scene.WithLanguage(lang)),
	)

	p := tea.NewProgram(NewEditorModel(ctrl, saver), tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	if n := saver.count(); n > 0 {
		printSuccess("Saved %d changes", n)
	}
	return nil
}

// committer persists every committed settings change.
type committer struct {
	ctx    context.Context
	port   *store.Port
	logger *log.Logger

	mu    sync.Mutex
	saves int
	err   error
}

func newCommitter(ctx context.Context, port *store.Port, logger *log.Logger) *committer {
	return &committer{ctx: ctx, port: port, logger: logger}
}

func (c *committer) commit(s override.ReportSettings) {
	err := c.port.SaveSettings(c.ctx, s)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Error("save settings", "err", err)
		c.err = err
		return
	}
	c.saves++
}

// takeErr returns and clears the last save error.
func (c *committer) takeErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.err
	c.err = nil
	return err
}

func (c *committer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves
}
