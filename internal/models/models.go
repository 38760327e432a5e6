package models

import "strings"

// Origin records where a colour came from.
type Origin string

const (
	OriginCatalog     Origin = "catalog"
	OriginAISuggested Origin = "ai-suggested"
)

// Color is a named paint colour. Manufacturer, Code, Hex and Description may be empty.
type Color struct {
	Name         string `json:"name" yaml:"name"`
	Hex          string `json:"hex,omitempty" yaml:"hex,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	Code         string `json:"code,omitempty" yaml:"code,omitempty"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	Origin       Origin `json:"origin" yaml:"origin,omitempty"`
}

// HasSpec reports whether the colour carries both manufacturer and code.
func (c Color) HasSpec() bool {
	return c.Manufacturer != "" && c.Code != ""
}

// HardwareStyle is a cabinet hardware option.
type HardwareStyle struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// NoHardwareID means "no hardware change".
const NoHardwareID = "none"

// KeepExistingHardware is the sentinel hardware style.
var KeepExistingHardware = HardwareStyle{ID: NoHardwareID, Name: "Keep Existing", Description: "Retain current hardware"}

// IsChange reports whether the style requests new hardware.
func (h HardwareStyle) IsChange() bool {
	return h.ID != "" && h.ID != NoHardwareID
}

// DefaultSheen leaves the existing sheen alone.
const DefaultSheen = "Default"

// Selection is the working choice set for the next generation.
// Color and a non-empty CustomColorText are mutually exclusive; use the setters.
type Selection struct {
	Color           *Color        `json:"color,omitempty"`
	CustomColorText string        `json:"custom_color,omitempty"`
	Hardware        HardwareStyle `json:"hardware"`
	Sheen           string        `json:"sheen"`
	FreeText        string        `json:"free_text,omitempty"`
}

// NewSelection returns a selection with every field at its default.
func NewSelection() Selection {
	return Selection{
		Hardware: KeepExistingHardware,
		Sheen:    DefaultSheen,
	}
}

// SelectColor sets the colour and clears any custom colour text. A nil colour clears both.
func (s *Selection) SelectColor(c *Color) {
	if c == nil {
		s.Color = nil
		s.CustomColorText = ""
		return
	}
	cp := *c
	s.Color = &cp
	s.CustomColorText = ""
}

// SetCustomColor stores free-form colour text. Non-blank text clears the selected colour.
func (s *Selection) SetCustomColor(text string) {
	s.CustomColorText = text
	if strings.TrimSpace(text) != "" {
		s.Color = nil
	}
}

// SelectHardware sets the hardware style.
func (s *Selection) SelectHardware(h HardwareStyle) {
	if h.ID == "" {
		h = KeepExistingHardware
	}
	s.Hardware = h
}

// SetSheen sets the sheen. An empty value means the default.
func (s *Selection) SetSheen(sheen string) {
	if strings.TrimSpace(sheen) == "" {
		sheen = DefaultSheen
	}
	s.Sheen = sheen
}

// SetFreeText sets the additional free-text instruction.
func (s *Selection) SetFreeText(text string) {
	s.FreeText = text
}

// ResolvedColor returns the colour the next generation should apply, or nil when none is chosen.
// Custom text takes precedence and carries no hex.
func (s Selection) ResolvedColor() *Color {
	if custom := strings.TrimSpace(s.CustomColorText); custom != "" {
		return &Color{Name: custom}
	}
	if s.Color != nil {
		cp := *s.Color
		return &cp
	}
	return nil
}

// HasSheen reports whether a non-default sheen is chosen.
func (s Selection) HasSheen() bool {
	return s.Sheen != "" && s.Sheen != DefaultSheen
}

// IsEmpty reports whether the selection requests no change at all.
func (s Selection) IsEmpty() bool {
	return s.ResolvedColor() == nil &&
		!s.Hardware.IsChange() &&
		!s.HasSheen() &&
		strings.TrimSpace(s.FreeText) == ""
}

// Clone returns a deep copy.
func (s Selection) Clone() Selection {
	out := s
	if s.Color != nil {
		cp := *s.Color
		out.Color = &cp
	}
	return out
}

// Analysis is the structured result of the vision-analysis collaborator.
type Analysis struct {
	IsKitchen       bool    `json:"isKitchen"`
	Reasoning       string  `json:"reasoning"`
	SuggestedColors []Color `json:"suggestedColors"`
}

// Image is raw image bytes with a MIME type.
type Image struct {
	Data     []byte `json:"-"`
	MimeType string `json:"mime_type"`
}
