// Package prompt builds the edit instruction sent to the image-synthesis collaborator.
package prompt

import (
	"fmt"
	"strings"

	"github.com/cabcoat/cabcoat/internal/models"
)

const preamble = "Edit this kitchen image with professional cabinet painting results. " +
	"This is a cabinet repaint and hardware update only: preserve the countertops, backsplash, flooring, walls, and appliances exactly as photographed, " +
	"and produce a photorealistic, high-resolution interior design result."

const textureHandling = "IMPORTANT TEXTURE HANDLING: " +
	"If the original cabinets are OAK (heavy grain), preserve a subtle, sophisticated wood grain texture through the new paint. " +
	"If the original cabinets are MAPLE, CHERRY, or smooth MDF, the new finish must be perfectly smooth with ABSOLUTELY NO wood grain or texture visible. " +
	"Provide a high-end factory-painted look (like a professional lacquer finish)."

const restoreClause = "Restore the cabinets to their original finish exactly as it appears in the source photo, removing any previously applied paint color."

const closing = "Change only the cabinet surfaces and cabinet hardware. " +
	"Keep lighting, shadows, and reflections consistent with the source photo."

// Compose returns the edit instruction for sel. Clauses always appear in the same order:
// preamble, colour, sheen, hardware, free text, closing. When restoreOriginal is set the
// colour clause asks for the original finish instead of a new colour.
func Compose(sel models.Selection, restoreOriginal bool) string {
	clauses := []string{preamble, textureHandling}

	if c := colorClause(sel, restoreOriginal); c != "" {
		clauses = append(clauses, c)
	}

	if sel.HasSheen() {
		clauses = append(clauses, fmt.Sprintf("Apply a %s finish to the cabinets.", sel.Sheen))
	}

	if sel.Hardware.IsChange() {
		clauses = append(clauses, fmt.Sprintf("Replace the cabinet hardware with %s.", sel.Hardware.Name))
	}

	if strings.TrimSpace(sel.FreeText) != "" {
		clauses = append(clauses, fmt.Sprintf("Additional Design Notes: \"%s\".", sel.FreeText))
	}

	clauses = append(clauses, closing)
	return strings.Join(clauses, " ")
}

func colorClause(sel models.Selection, restoreOriginal bool) string {
	if restoreOriginal {
		return restoreClause
	}

	if custom := strings.TrimSpace(sel.CustomColorText); custom != "" {
		return fmt.Sprintf("Paint the kitchen cabinets %s.", sel.CustomColorText)
	}

	if sel.Color != nil && sel.Color.Name != "" {
		if sel.Color.Hex != "" {
			return fmt.Sprintf("Paint the kitchen cabinets %s (approximate hex: %s).", sel.Color.Name, sel.Color.Hex)
		}
		return fmt.Sprintf("Paint the kitchen cabinets %s.", sel.Color.Name)
	}

	return ""
}
