package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "cabcoat",
		Short: "Kitchen cabinet repaint visualizer",
		Long: `CabCoat previews cabinet paint colours, sheens and hardware on a photo of your kitchen.

Upload a kitchen photo, pick a catalog or suggested colour, and an image model repaints
the cabinets while keeping the rest of the room untouched.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			if verbose {
				slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newQuotaCmd())
	cmd.AddCommand(newUnlockCmd())
	cmd.AddCommand(newPaletteCmd())
	cmd.AddCommand(newHistoryCmd())

	return cmd
}
