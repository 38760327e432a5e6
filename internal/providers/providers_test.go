package providers

import (
	"testing"

	"github.com/cabcoat/cabcoat/internal/models"
)

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		wantErr    bool
		wantKitch  bool
		wantColors int
	}{
		{
			name:       "plain json",
			response:   `{"isKitchen": true, "reasoning": "Warm oak floors", "suggestedColors": [{"name": "White Dove", "hex": "#F0EFE7"}, {"name": "Hale Navy"}]}`,
			wantKitch:  true,
			wantColors: 2,
		},
		{
			name:       "fenced json",
			response:   "```json\n{\"isKitchen\": false, \"reasoning\": \"This is a bathroom\", \"suggestedColors\": []}\n```",
			wantColors: 0,
		},
		{
			name:       "drops nameless suggestions",
			response:   `{"isKitchen": true, "reasoning": "", "suggestedColors": [{"name": " "}, {"name": "Sea Salt"}]}`,
			wantKitch:  true,
			wantColors: 1,
		},
		{name: "empty", response: "   ", wantErr: true},
		{name: "not json", response: "I think this is a kitchen", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnalysis(tt.response)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got.IsKitchen != tt.wantKitch {
				t.Errorf("Expected isKitchen=%v, got %v", tt.wantKitch, got.IsKitchen)
			}
			if len(got.SuggestedColors) != tt.wantColors {
				t.Errorf("Expected %d colors, got %d", tt.wantColors, len(got.SuggestedColors))
			}
			for _, c := range got.SuggestedColors {
				if c.Origin != models.OriginAISuggested {
					t.Errorf("Expected ai-suggested origin, got %q", c.Origin)
				}
			}
		})
	}
}
