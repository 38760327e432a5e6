package cmd

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cabcoat/cabcoat/internal/config"
	"github.com/cabcoat/cabcoat/internal/engines"
	"github.com/cabcoat/cabcoat/internal/export"
	"github.com/cabcoat/cabcoat/internal/history"
	"github.com/cabcoat/cabcoat/internal/models"
	"github.com/cabcoat/cabcoat/internal/publish"
	"github.com/cabcoat/cabcoat/internal/session"
	"github.com/spf13/cobra"
)

func newRenderCmd() *cobra.Command {
	var (
		photo       string
		colorName   string
		suggestion  int
		customColor string
		hardwareID  string
		sheen       string
		notes       string
		restore     bool
		outDir      string
		palettePath string
		historyPath string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Repaint the cabinets in one photo and save an annotated export",
		Long: `Runs a complete design session from the command line: the photo is analysed,
the selection is applied, one generation is requested and the result is exported
as a JPEG with a colour footer plus a YAML summary.

Free generations are shared with the server and counted in the same database.`,
		Example: `  # Catalog colour with new hardware
  cabcoat render --photo kitchen.jpg --color "Hale Navy" --hardware gold-bar

  # Use the second colour the analysis suggests, in satin
  cabcoat render --photo kitchen.jpg --suggestion 2 --sheen Satin

  # Free-form colour and notes
  cabcoat render --photo kitchen.jpg --custom "sage green" --notes "keep the open shelving"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.Load()
			if historyPath == "" {
				historyPath = cfg.History
			}

			data, err := os.ReadFile(photo)
			if err != nil {
				return fmt.Errorf("failed to read photo: %w", err)
			}
			mimeType := mime.TypeByExtension(filepath.Ext(photo))
			if mimeType == "" {
				mimeType = http.DetectContentType(data)
			}

			cat, err := loadCatalog(palettePath)
			if err != nil {
				return err
			}

			// Validate catalog references before spending an analysis call.
			var hardware *models.HardwareStyle
			if hardwareID != "" {
				hw, ok := cat.HardwareByID(hardwareID)
				if !ok {
					return fmt.Errorf("unknown hardware %q", hardwareID)
				}
				hardware = &hw
			}
			var color *models.Color
			if colorName != "" {
				c, ok := cat.ColorByName(colorName)
				if !ok {
					return fmt.Errorf("unknown color %q (see 'cabcoat palette')", colorName)
				}
				color = &c
			}
			if sheen != "" {
				s, ok := cat.Sheen(sheen)
				if !ok {
					return fmt.Errorf("unknown sheen %q", sheen)
				}
				sheen = s
			}

			eng, err := engines.New(cfg)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			gate, flags, err := openGate(ctx, cfg)
			if err != nil {
				return err
			}
			defer flags.Close()

			historyLog := history.NewLog(historyPath)
			ctrl := session.New(eng.Analyzer, eng.Synthesizer, gate, sessionOptions(cfg, historyLog)...)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Analyzing %s with %s...\n", filepath.Base(photo), eng.AnalysisModel)
			if err := ctrl.Upload(ctx, models.Image{Data: data, MimeType: mimeType}); err != nil {
				return errors.New(session.Describe(err))
			}

			snap := ctrl.Snapshot()
			if snap.AnalysisNote != "" {
				fmt.Fprintf(out, "\n%s\n", snap.AnalysisNote)
			}
			for i, c := range snap.Suggestions {
				fmt.Fprintf(out, "  %d. %s %s (%s %s)\n", i+1, c.Name, c.Hex, c.Manufacturer, c.Code)
			}

			switch {
			case suggestion > 0:
				if _, err := ctrl.SelectSuggestion(suggestion - 1); err != nil {
					return err
				}
			case color != nil:
				ctrl.SelectColor(color)
			}
			if customColor != "" {
				ctrl.SetCustomColor(customColor)
			}
			if sheen != "" {
				ctrl.SetSheen(sheen)
			}
			if notes != "" {
				ctrl.SetFreeText(notes)
			}

			opts := session.GenerateOptions{RestoreOriginal: restore, Hardware: hardware}
			fmt.Fprintf(out, "\nGenerating with %s...\n", eng.SynthesisModel)
			genErr := ctrl.Generate(ctx, opts)
			if err := historyLog.Flush(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}
			if genErr != nil {
				if errors.Is(genErr, session.ErrUnlockRequired) {
					return fmt.Errorf("%s (run 'cabcoat unlock <email>')", session.Describe(genErr))
				}
				return errors.New(session.Describe(genErr))
			}

			img, _, _ := ctrl.Result()
			art, err := export.Export(img, ctrl.ResultColor(), time.Now())
			if err != nil {
				return err
			}

			loc, err := publish.Dir{Path: outDir}.Publish(ctx, art)
			if err != nil {
				return err
			}
			sel, instruction, _ := ctrl.ResultDetails()
			summaryPath, err := history.WriteSummary(loc, history.NewSummary(loc, ctrl.ID(), sel, instruction, time.Now()))
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "\n✅ Design saved to: %s\n   Summary: %s\n", loc, summaryPath)
			status := gate.Status()
			if !status.Unlocked {
				fmt.Fprintf(out, "   Free generations remaining: %d of %d\n", status.Remaining, status.Limit)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&photo, "photo", "", "Kitchen photo (JPEG, PNG or WebP) (required)")
	cmd.Flags().StringVar(&colorName, "color", "", "Catalog colour name")
	cmd.Flags().IntVar(&suggestion, "suggestion", 0, "Use the Nth colour suggested by the analysis (1-based)")
	cmd.Flags().StringVar(&customColor, "custom", "", "Free-form colour description (overrides --color)")
	cmd.Flags().StringVar(&hardwareID, "hardware", "", "Hardware style id (see 'cabcoat palette --hardware')")
	cmd.Flags().StringVar(&sheen, "sheen", "", "Sheen: Matte, Satin, Semi-Gloss or High-Gloss")
	cmd.Flags().StringVar(&notes, "notes", "", "Additional design notes passed verbatim to the image model")
	cmd.Flags().BoolVar(&restore, "restore", false, "Restore the original cabinet finish")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory for the export and its summary")
	cmd.Flags().StringVar(&palettePath, "palette", "", "YAML palette replacing the built-in colours")
	cmd.Flags().StringVar(&historyPath, "history", "", "Parquet file for the generation history (default $CABCOAT_HISTORY)")

	_ = cmd.MarkFlagRequired("photo")

	return cmd
}
