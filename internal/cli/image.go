package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	ferrors "github.com/matzehuels/flowsankey/pkg/errors"
	"github.com/matzehuels/flowsankey/pkg/override"
)

// imageCommand creates the image command group for free-floating images
// and the header logo.
func (c *CLI) imageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Place, list and remove images",
	}

	cmd.AddCommand(c.imageAddCommand())
	cmd.AddCommand(c.imageListCommand())
	cmd.AddCommand(c.imageRemoveCommand())
	cmd.AddCommand(c.imageLogoCommand())

	return cmd
}

func (c *CLI) imageAddCommand() *cobra.Command {
	img := override.PlacedImage{Width: 120, Height: 80}

	cmd := &cobra.Command{
		Use:   "add <src>",
		Short: "Place an image on the canvas",
		Long: `Place an image on the canvas. The source is a local file, an http(s)
URL or a data URL. Sizes below the 30px minimum are raised to it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ferrors.ValidateImageSource(args[0]); err != nil {
				return err
			}
			img.Src = args[0]
			if img.ID == "" {
				img.ID = uuid.NewString()
			}
			if err := c.runSettingsCommand(cmd.Context(), override.AddImage{Image: img}); err != nil {
				return err
			}
			printSuccess("Added image %s", img.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&img.ID, "id", "", "image ID (generated when empty)")
	cmd.Flags().Float64Var(&img.X, "x", 0, "left edge in canvas pixels")
	cmd.Flags().Float64Var(&img.Y, "y", 0, "top edge in canvas pixels")
	cmd.Flags().Float64Var(&img.Width, "width", img.Width, "width in pixels")
	cmd.Flags().Float64Var(&img.Height, "height", img.Height, "height in pixels")

	return cmd
}

func (c *CLI) imageRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a placed image",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed, err := c.applySettings(cmd.Context(), "", fixed(override.DeleteImage{ID: args[0]}))
			if err != nil {
				return err
			}
			if !changed {
				return ferrors.New(ferrors.ErrCodeImageNotFound, "no image %q", args[0])
			}
			printSuccess("Removed image %s", args[0])
			return nil
		},
	}
}

func (c *CLI) imageListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List placed images",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := c.loadSettings(cmd.Context())
			if err != nil {
				return err
			}
			if len(st.Images) == 0 && st.Logo == nil {
				printInfo("No images")
				return nil
			}
			rows := make([][]string, 0, len(st.Images)+1)
			if st.Logo != nil {
				rows = append(rows, []string{"(logo)", "", fmt.Sprintf("%g×%g", st.Logo.Width, st.Logo.Height), shortSrc(st.Logo.Src)})
			}
			for _, img := range st.Images {
				rows = append(rows, []string{
					img.ID,
					fmt.Sprintf("%g, %g", img.X, img.Y),
					fmt.Sprintf("%g×%g", img.Width, img.Height),
					shortSrc(img.Src),
				})
			}
			printTable([]string{"ID", "Position", "Size", "Source"}, rows)
			return nil
		},
	}
}

func (c *CLI) imageLogoCommand() *cobra.Command {
	var (
		logo   override.Logo
		remove bool
	)

	cmd := &cobra.Command{
		Use:   "logo [src]",
		Short: "Set or remove the header logo",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if remove {
				if err := c.runSettingsCommand(cmd.Context(), override.SetLogo{}); err != nil {
					return err
				}
				printSuccess("Removed logo")
				return nil
			}
			if len(args) == 0 {
				return ferrors.New(ferrors.ErrCodeInvalidInput, "logo source required")
			}
			if err := ferrors.ValidateImageSource(args[0]); err != nil {
				return err
			}
			logo.Src = args[0]
			if err := c.runSettingsCommand(cmd.Context(), override.SetLogo{Logo: &logo}); err != nil {
				return err
			}
			printSuccess("Set logo")
			return nil
		},
	}

	cmd.Flags().Float64Var(&logo.Width, "width", 0, "logo width (0 uses the height)")
	cmd.Flags().Float64Var(&logo.Height, "height", 40, "logo height")
	cmd.Flags().BoolVar(&remove, "rm", false, "remove the logo")

	return cmd
}

// runSettingsCommand applies one command to the stored settings and saves
// the result. A command that changes nothing is not an error.
func (c *CLI) runSettingsCommand(ctx context.Context, cmd override.Command) error {
	_, err := c.applySettings(ctx, "", fixed(cmd))
	return err
}

// loadSettings returns the stored settings without building the diagram.
func (c *CLI) loadSettings(ctx context.Context) (string, override.ReportSettings, error) {
	port, st, err := c.loadState(ctx)
	if err != nil {
		return "", override.ReportSettings{}, err
	}
	defer port.Close()
	return string(st.SettingsSource), st.Settings, nil
}

// shortSrc abbreviates data URLs for display.
func shortSrc(src string) string {
	const limit = 48
	r := []rune(src)
	if len(r) <= limit {
		return src
	}
	return string(r[:limit-1]) + "…"
}
