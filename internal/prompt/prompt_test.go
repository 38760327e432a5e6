package prompt

import (
	"strings"
	"testing"

	"github.com/cabcoat/cabcoat/internal/models"
)

func navy() *models.Color {
	return &models.Color{Name: "Hale Navy", Hex: "#2C3E50", Manufacturer: "Benjamin Moore", Code: "HC-154"}
}

func TestComposeClauses(t *testing.T) {
	goldBar := models.HardwareStyle{ID: "gold-bar", Name: "Brushed Gold Bar Pulls"}

	tests := []struct {
		name        string
		selection   func() models.Selection
		restore     bool
		contains    []string
		notContains []string
	}{
		{
			name: "catalog colour with hex",
			selection: func() models.Selection {
				s := models.NewSelection()
				s.SelectColor(navy())
				return s
			},
			contains:    []string{"Paint the kitchen cabinets Hale Navy (approximate hex: #2C3E50)."},
			notContains: []string{"finish to the cabinets", "Replace the cabinet hardware", "Additional Design Notes", "Restore the cabinets"},
		},
		{
			name: "colour without hex",
			selection: func() models.Selection {
				s := models.NewSelection()
				s.SelectColor(&models.Color{Name: "Greige"})
				return s
			},
			contains:    []string{"Paint the kitchen cabinets Greige."},
			notContains: []string{"approximate hex"},
		},
		{
			name: "custom colour used verbatim without hex",
			selection: func() models.Selection {
				s := models.NewSelection()
				s.SetCustomColor("Sea Salt")
				return s
			},
			contains:    []string{"Paint the kitchen cabinets Sea Salt."},
			notContains: []string{"approximate hex"},
		},
		{
			name: "sheen and hardware only",
			selection: func() models.Selection {
				s := models.NewSelection()
				s.SetSheen("Semi-Gloss")
				s.SelectHardware(goldBar)
				return s
			},
			contains:    []string{"Apply a Semi-Gloss finish to the cabinets.", "Replace the cabinet hardware with Brushed Gold Bar Pulls."},
			notContains: []string{"Paint the kitchen cabinets"},
		},
		{
			name: "free text is quoted",
			selection: func() models.Selection {
				s := models.NewSelection()
				s.SetFreeText(`make the island "sage"`)
				return s
			},
			contains: []string{`Additional Design Notes: "make the island "sage"".`},
		},
		{
			name:      "restore original",
			selection: models.NewSelection,
			restore:   true,
			contains:  []string{restoreClause},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compose(tt.selection(), tt.restore)
			if !strings.HasPrefix(got, preamble) {
				t.Errorf("Expected instruction to start with the preamble, got %q", got)
			}
			if !strings.HasSuffix(got, closing) {
				t.Errorf("Expected instruction to end with the closing constraint, got %q", got)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Expected instruction to contain %q\nGot: %s", want, got)
				}
			}
			for _, unwanted := range tt.notContains {
				if strings.Contains(got, unwanted) {
					t.Errorf("Expected instruction not to contain %q\nGot: %s", unwanted, got)
				}
			}
		})
	}
}

func TestComposeClauseOrder(t *testing.T) {
	s := models.NewSelection()
	s.SelectColor(navy())
	s.SetSheen("Matte")
	s.SelectHardware(models.HardwareStyle{ID: "black-matte", Name: "Matte Black Handles"})
	s.SetFreeText("keep the open shelving")

	got := Compose(s, false)
	markers := []string{"Edit this kitchen image", "Paint the kitchen cabinets", "Apply a Matte finish", "Replace the cabinet hardware", "Additional Design Notes", "Change only the cabinet"}

	last := -1
	for _, m := range markers {
		idx := strings.Index(got, m)
		if idx < 0 {
			t.Fatalf("Expected %q in instruction", m)
		}
		if idx <= last {
			t.Errorf("Expected %q after previous clause (index %d <= %d)", m, idx, last)
		}
		last = idx
	}
}

func TestComposeDeterministic(t *testing.T) {
	s := models.NewSelection()
	s.SetCustomColor("Sea Salt")
	s.SetFreeText("brighter")

	first := Compose(s, false)
	for i := 0; i < 20; i++ {
		if got := Compose(s.Clone(), false); got != first {
			t.Fatalf("Expected identical output on call %d", i)
		}
	}
}
