package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/cabcoat/cabcoat/internal/models"
	"gopkg.in/yaml.v3"
)

var popularColors = []models.Color{
	{Name: "White Dove", Hex: "#F0EFE7", Manufacturer: "Benjamin Moore", Code: "OC-17", Description: "The gold standard for off-white cabinets."},
	{Name: "Chantilly Lace", Hex: "#F4F6F1", Manufacturer: "Benjamin Moore", Code: "OC-65", Description: "A crisp, clean white with no visible undertones."},
	{Name: "Hale Navy", Hex: "#2C3E50", Manufacturer: "Benjamin Moore", Code: "HC-154", Description: "A classic, deeply saturated navy blue."},
	{Name: "Revere Pewter", Hex: "#CBC5B9", Manufacturer: "Benjamin Moore", Code: "HC-172", Description: "The most popular bridge between gray and beige."},
	{Name: "Gray Owl", Hex: "#D4D5CD", Manufacturer: "Benjamin Moore", Code: "OC-52", Description: "A cool, crisp gray that works in any lighting."},
	{Name: "Stonington Gray", Hex: "#BDBDB5", Manufacturer: "Benjamin Moore", Code: "HC-170", Description: "A sophisticated, mid-toned silvery gray."},
	{Name: "Edgecomb Gray", Hex: "#D1CBC1", Manufacturer: "Benjamin Moore", Code: "HC-173", Description: "A soft, airy greige that adds warmth."},
	{Name: "Swiss Coffee", Hex: "#F1EFE3", Manufacturer: "Benjamin Moore", Code: "OC-45", Description: "A warm, creamy white that feels cozy."},
	{Name: "Simply White", Hex: "#F7F5ED", Manufacturer: "Benjamin Moore", Code: "OC-117", Description: "A multi-purpose white with a hint of warmth."},
	{Name: "Kendall Charcoal", Hex: "#4E4E4A", Manufacturer: "Benjamin Moore", Code: "HC-166", Description: "A rich, deep gray with a high-end feel."},
}

var hardwareStyles = []models.HardwareStyle{
	models.KeepExistingHardware,
	{ID: "gold-bar", Name: "Brushed Gold Bar Pulls", Description: "Modern luxury"},
	{ID: "black-matte", Name: "Matte Black Handles", Description: "Sleek contrast"},
	{ID: "chrome-knobs", Name: "Polished Chrome Knobs", Description: "Classic shine"},
	{ID: "bronze-cup", Name: "Oil-Rubbed Bronze Cup Pulls", Description: "Farmhouse style"},
	{ID: "minimalist", Name: "Finger Pulls / Handleless", Description: "Ultra modern"},
}

var sheens = []string{models.DefaultSheen, "Matte", "Satin", "Semi-Gloss", "High-Gloss"}

// Catalog is the lookup table of colours, hardware styles and sheens offered to the user.
type Catalog struct {
	colors   []models.Color
	hardware []models.HardwareStyle
	sheens   []string
}

// Default returns the built-in catalog.
func Default() *Catalog {
	colors := make([]models.Color, len(popularColors))
	for i, c := range popularColors {
		c.Origin = models.OriginCatalog
		colors[i] = c
	}
	return &Catalog{
		colors:   colors,
		hardware: append([]models.HardwareStyle(nil), hardwareStyles...),
		sheens:   append([]string(nil), sheens...),
	}
}

// Colors returns a copy of the colour list.
func (c *Catalog) Colors() []models.Color {
	return append([]models.Color(nil), c.colors...)
}

// Hardware returns a copy of the hardware styles. The first entry is always the "none" sentinel.
func (c *Catalog) Hardware() []models.HardwareStyle {
	return append([]models.HardwareStyle(nil), c.hardware...)
}

// Sheens returns the sheen options, starting with the default sentinel.
func (c *Catalog) Sheens() []string {
	return append([]string(nil), c.sheens...)
}

// ColorByName finds a colour by case-insensitive name.
func (c *Catalog) ColorByName(name string) (models.Color, bool) {
	for _, col := range c.colors {
		if strings.EqualFold(col.Name, strings.TrimSpace(name)) {
			return col, true
		}
	}
	return models.Color{}, false
}

// HardwareByID finds a hardware style by id.
func (c *Catalog) HardwareByID(id string) (models.HardwareStyle, bool) {
	for _, h := range c.hardware {
		if h.ID == id {
			return h, true
		}
	}
	return models.HardwareStyle{}, false
}

// Sheen normalises a sheen name against the catalog.
func (c *Catalog) Sheen(name string) (string, bool) {
	for _, s := range c.sheens {
		if strings.EqualFold(s, strings.TrimSpace(name)) {
			return s, true
		}
	}
	return "", false
}

// Palette is the on-disk format for replacing the colour list.
type Palette struct {
	Colors []models.Color `yaml:"colors"`
}

// LoadPalette returns the default catalog with its colours replaced by the YAML palette at path.
func LoadPalette(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read palette: %w", err)
	}

	var p Palette
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse palette YAML: %w", err)
	}
	if len(p.Colors) == 0 {
		return nil, fmt.Errorf("palette %s defines no colors", path)
	}

	cat := Default()
	cat.colors = make([]models.Color, 0, len(p.Colors))
	for i, col := range p.Colors {
		if strings.TrimSpace(col.Name) == "" {
			return nil, fmt.Errorf("palette color %d has no name", i+1)
		}
		col.Origin = models.OriginCatalog
		cat.colors = append(cat.colors, col)
	}
	return cat, nil
}
