package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/cabcoat/cabcoat/internal/catalog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newPaletteCmd() *cobra.Command {
	var palettePath string
	var asYAML bool
	var showHardware bool

	cmd := &cobra.Command{
		Use:   "palette",
		Short: "List catalog colours, sheens and hardware styles",
		Example: `  # Dump the built-in colours as an editable palette
  cabcoat palette --yaml > palette.yaml

  # Check a custom palette
  cabcoat palette --palette palette.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(palettePath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if asYAML {
				data, err := yaml.Marshal(&catalog.Palette{Colors: cat.Colors()})
				if err != nil {
					return fmt.Errorf("failed to marshal YAML: %w", err)
				}
				_, err = out.Write(data)
				return err
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			if showHardware {
				fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
				for _, h := range cat.Hardware() {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", h.ID, h.Name, h.Description)
				}
				return tw.Flush()
			}

			fmt.Fprintln(tw, "NAME\tHEX\tMANUFACTURER\tCODE")
			for _, c := range cat.Colors() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Name, c.Hex, c.Manufacturer, c.Code)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nSheens: %v\n", cat.Sheens())
			return nil
		},
	}

	cmd.Flags().StringVar(&palettePath, "palette", "", "YAML palette replacing the built-in colours")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print colours as a palette YAML document")
	cmd.Flags().BoolVar(&showHardware, "hardware", false, "List hardware styles instead of colours")

	return cmd
}
