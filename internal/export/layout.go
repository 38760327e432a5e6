// Package export composites a generated kitchen image with an informational footer band.
package export

import (
	"image"
	"image/color"
	"strings"

	"github.com/cabcoat/cabcoat/internal/models"
	"github.com/lucasb-eyer/go-colorful"
)

// Footer geometry, in pixels.
const (
	FooterHeight  = 120
	Padding       = 40
	SwatchRadius  = 28
	SwatchGutter  = 24
	SwatchStroke  = 2
	DividerHeight = 2
)

// Brand is the credit drawn at the right of the footer.
const Brand = "cabcoat.com"

// FallbackName is used when no colour name can be resolved.
const FallbackName = "Custom Finish"

var (
	backgroundColor = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	dividerColor    = color.RGBA{0xE2, 0xE8, 0xF0, 0xFF}
	swatchStroke    = color.RGBA{0xCB, 0xD5, 0xE1, 0xFF}
	secondaryColor  = color.RGBA{0x64, 0x74, 0x8B, 0xFF}
	primaryColor    = color.RGBA{0x0F, 0x17, 0x2A, 0xFF}
	brandColor      = color.RGBA{0x94, 0xA3, 0xB8, 0xFF}
)

// Align is horizontal text alignment relative to TextLine.X.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// TextLine is one line of footer text positioned by its baseline.
type TextLine struct {
	Text     string
	X        int
	Baseline int
	Size     float64
	Color    color.RGBA
	Align    Align
}

// Swatch is a filled, stroked circle.
type Swatch struct {
	Center      image.Point
	Radius      int
	Fill        color.RGBA
	Stroke      color.RGBA
	StrokeWidth int
}

// Plan is the complete layout of an export, independent of any drawing surface.
type Plan struct {
	Width      int
	Height     int
	Image      image.Rectangle
	Footer     image.Rectangle
	Divider    image.Rectangle
	Background color.RGBA
	DividerRGB color.RGBA
	Swatch     *Swatch
	Lines      []TextLine
}

// Layout plans an export for a generated image of the given size. col may be nil.
func Layout(width, height int, col *models.Color) Plan {
	p := Plan{
		Width:      width,
		Height:     height + FooterHeight,
		Image:      image.Rect(0, 0, width, height),
		Footer:     image.Rect(0, height, width, height+FooterHeight),
		Divider:    image.Rect(0, height, width, height+DividerHeight),
		Background: backgroundColor,
		DividerRGB: dividerColor,
	}

	centerY := height + FooterHeight/2
	textX := Padding

	if col != nil {
		if fill, ok := ParseHex(col.Hex); ok {
			swatchX := Padding + SwatchRadius
			p.Swatch = &Swatch{
				Center:      image.Pt(swatchX, centerY),
				Radius:      SwatchRadius,
				Fill:        fill,
				Stroke:      swatchStroke,
				StrokeWidth: SwatchStroke,
			}
			textX = swatchX + SwatchRadius + SwatchGutter
		}
	}

	name := FallbackName
	if col != nil && strings.TrimSpace(col.Name) != "" {
		name = strings.TrimSpace(col.Name)
	}

	if col != nil && col.HasSpec() {
		p.Lines = append(p.Lines,
			TextLine{Text: col.Manufacturer + " | " + col.Code, X: textX, Baseline: centerY - 8, Size: 20, Color: secondaryColor},
			TextLine{Text: name, X: textX, Baseline: centerY + 30, Size: 34, Color: primaryColor},
		)
	} else {
		p.Lines = append(p.Lines,
			TextLine{Text: name, X: textX, Baseline: centerY + 14, Size: 38, Color: primaryColor},
		)
	}

	p.Lines = append(p.Lines, TextLine{
		Text:     Brand,
		X:        width - Padding,
		Baseline: centerY + 14,
		Size:     22,
		Color:    brandColor,
		Align:    AlignRight,
	})

	return p
}

// ParseHex parses "#RRGGBB", "RRGGBB" or "#RGB". Anything else reports false.
func ParseHex(hex string) (color.RGBA, bool) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return color.RGBA{}, false
	}
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	if len(hex) != 4 && len(hex) != 7 {
		return color.RGBA{}, false
	}
	c, err := colorful.Hex(strings.ToLower(hex))
	if err != nil {
		return color.RGBA{}, false
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}, true
}
