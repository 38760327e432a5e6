// Package session sequences upload, analysis, generation and comparison for one kitchen photo.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cabcoat/cabcoat/internal/models"
	"github.com/cabcoat/cabcoat/internal/prompt"
	"github.com/cabcoat/cabcoat/internal/providers"
	"github.com/cabcoat/cabcoat/internal/quota"
)

const (
	opAnalysis   = "analysis"
	opGeneration = "generation"
)

// Gate is the part of the generation gate the controller needs. One gate may be
// shared by many controllers.
type Gate interface {
	Reserve() (quota.Reservation, quota.Decision)
	Commit(ctx context.Context, r quota.Reservation) error
	Release(r quota.Reservation)
}

// Observer is notified after every finished collaborator call.
type Observer interface {
	AnalysisFinished(AnalysisEvent)
	GenerationFinished(GenerationEvent)
}

// AnalysisEvent describes a finished analysis call.
type AnalysisEvent struct {
	SessionID   string
	Duration    time.Duration
	IsKitchen   bool
	Suggestions int
	Err         error
}

// GenerationEvent describes a finished synthesis call.
type GenerationEvent struct {
	SessionID       string
	Started         time.Time
	Duration        time.Duration
	Selection       models.Selection
	RestoreOriginal bool
	Instruction     string
	Err             error
}

// Option configures a Controller.
type Option func(*Controller)

// WithTimeout bounds every collaborator call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithAspectRatio forwards an aspect ratio to the synthesis collaborator.
func WithAspectRatio(ratio string) Option {
	return func(c *Controller) { c.aspectRatio = ratio }
}

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observers = append(c.observers, o) }
}

// WithID sets the identifier used in logs and events.
func WithID(id string) Option {
	return func(c *Controller) { c.id = id }
}

// GenerateOptions are explicit overrides for one generation request.
type GenerateOptions struct {
	// Color replaces the selected colour for this and later generations.
	Color *models.Color
	// RestoreOriginal asks for the original cabinet finish. It is always a valid request.
	RestoreOriginal bool
	// Hardware replaces the selected hardware style.
	Hardware *models.HardwareStyle
}

// Controller owns one Session. It is safe for concurrent use; at most one collaborator
// call is in flight at a time and a second request while busy fails with ErrBusy.
type Controller struct {
	analyzer    providers.Analyzer
	synthesizer providers.Synthesizer
	gate        Gate
	timeout     time.Duration
	aspectRatio string
	observers   []Observer
	id          string

	mu              sync.Mutex
	state           State
	epoch           uint64
	original        *models.Image
	result          *models.Image
	resultSeq       uint64
	resultSelection models.Selection
	resultInstr     string
	selection       models.Selection
	suggestions     []models.Color
	analysisNote    string
	lastError       error
	progress        string
}

// New returns an Idle controller.
func New(analyzer providers.Analyzer, synthesizer providers.Synthesizer, gate Gate, opts ...Option) *Controller {
	c := &Controller{
		analyzer:    analyzer,
		synthesizer: synthesizer,
		gate:        gate,
		selection:   models.NewSelection(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the session identifier.
func (c *Controller) ID() string {
	return c.id
}

// Upload validates img, runs the analysis collaborator and moves to Ready on success.
// Any prior selection, result and error are discarded first.
func (c *Controller) Upload(ctx context.Context, img models.Image) error {
	if !strings.HasPrefix(img.MimeType, "image/") || len(img.Data) == 0 {
		return &ValidationError{Err: ErrUnsupportedMedia}
	}

	c.mu.Lock()
	if c.state.Busy() {
		c.mu.Unlock()
		return ErrBusy
	}
	c.clearLocked()
	c.state = Analyzing
	c.progress = "Analyzing Kitchen Architecture..."
	epoch := c.epoch
	c.mu.Unlock()

	slog.Info("Analyzing kitchen photo", "session_id", c.id, "mime_type", img.MimeType, "bytes", len(img.Data))

	callCtx, cancel := c.callContext(ctx)
	start := time.Now()
	analysis, err := c.analyzer.Analyze(callCtx, img)
	cancel()

	ev := AnalysisEvent{SessionID: c.id, Duration: time.Since(start)}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return ErrSessionReset
	}

	switch {
	case err != nil:
		svcErr := &ServiceError{Op: opAnalysis, Err: err}
		c.state = Idle
		c.progress = ""
		c.lastError = svcErr
		c.mu.Unlock()
		slog.Error("Analysis failed", "session_id", c.id, "err", err)
		ev.Err = svcErr
		c.notifyAnalysis(ev)
		return svcErr

	case !analysis.IsKitchen:
		nk := &NotAKitchenError{Reasoning: analysis.Reasoning}
		c.state = Idle
		c.progress = ""
		c.lastError = nk
		c.mu.Unlock()
		slog.Info("Photo rejected as not a kitchen", "session_id", c.id, "reasoning", analysis.Reasoning)
		ev.Err = nk
		c.notifyAnalysis(ev)
		return nk
	}

	stored := img
	stored.Data = append([]byte(nil), img.Data...)
	c.original = &stored
	c.suggestions = make([]models.Color, 0, len(analysis.SuggestedColors))
	for _, s := range analysis.SuggestedColors {
		s.Origin = models.OriginAISuggested
		c.suggestions = append(c.suggestions, s)
	}
	c.analysisNote = analysis.Reasoning
	c.state = Ready
	c.progress = ""
	ev.IsKitchen = true
	ev.Suggestions = len(c.suggestions)
	c.mu.Unlock()

	slog.Info("Kitchen analysed", "session_id", c.id, "suggestions", ev.Suggestions, "duration", ev.Duration)
	c.notifyAnalysis(ev)
	return nil
}

// SelectColor selects c (nil clears the colour and any custom text).
func (c *Controller) SelectColor(col *models.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.SelectColor(col)
}

// SelectSuggestion selects the i-th AI suggestion (zero-based).
func (c *Controller) SelectSuggestion(i int) (models.Color, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.suggestions) {
		return models.Color{}, &ValidationError{Err: fmt.Errorf("suggestion %d out of range (have %d)", i+1, len(c.suggestions))}
	}
	col := c.suggestions[i]
	c.selection.SelectColor(&col)
	return col, nil
}

// SetCustomColor stores free-form colour text.
func (c *Controller) SetCustomColor(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.SetCustomColor(text)
}

// SelectHardware sets the hardware style.
func (c *Controller) SelectHardware(h models.HardwareStyle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.SelectHardware(h)
}

// SetSheen sets the sheen.
func (c *Controller) SetSheen(sheen string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.SetSheen(sheen)
}

// SetFreeText sets the additional instruction.
func (c *Controller) SetFreeText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.SetFreeText(text)
}

// Generate validates the selection (with overrides applied), consults the gate and runs
// the synthesis collaborator. On success the result replaces the displayed image.
func (c *Controller) Generate(ctx context.Context, opts GenerateOptions) error {
	c.mu.Lock()
	if c.original == nil {
		c.mu.Unlock()
		return ErrNoImage
	}
	if c.state.Busy() {
		c.mu.Unlock()
		return ErrBusy
	}

	sel := c.selection.Clone()
	switch {
	case opts.RestoreOriginal:
		sel.SelectColor(nil)
	case opts.Color != nil:
		sel.SelectColor(opts.Color)
	}
	if opts.Hardware != nil {
		sel.SelectHardware(*opts.Hardware)
	}

	if !opts.RestoreOriginal && sel.IsEmpty() {
		c.mu.Unlock()
		return &ValidationError{Err: ErrEmptySelection}
	}

	reservation, decision := c.gate.Reserve()
	if decision != quota.Allowed {
		c.mu.Unlock()
		slog.Info("Generation deferred behind email unlock", "session_id", c.id)
		return ErrUnlockRequired
	}

	c.selection = sel
	c.state = Generating
	c.lastError = nil
	c.progress = progressMessage(opts, sel)
	img := *c.original
	epoch := c.epoch
	c.mu.Unlock()

	instruction := prompt.Compose(sel, opts.RestoreOriginal)
	slog.Info("Generating cabinet preview", "session_id", c.id, "progress", c.progress, "instruction_length", len(instruction))

	callCtx, cancel := c.callContext(ctx)
	start := time.Now()
	out, err := c.synthesizer.Synthesize(callCtx, providers.SynthesisRequest{
		Image:       img,
		Instruction: instruction,
		AspectRatio: c.aspectRatio,
	})
	cancel()
	if err == nil && (out == nil || len(out.Data) == 0) {
		err = providers.ErrNoImage
	}

	ev := GenerationEvent{
		SessionID:       c.id,
		Started:         start,
		Duration:        time.Since(start),
		Selection:       sel,
		RestoreOriginal: opts.RestoreOriginal,
		Instruction:     instruction,
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		c.gate.Release(reservation)
		return ErrSessionReset
	}
	c.progress = ""
	c.state = Ready

	if err != nil {
		c.gate.Release(reservation)
		svcErr := &ServiceError{Op: opGeneration, Err: err}
		c.lastError = svcErr
		c.mu.Unlock()
		slog.Error("Generation failed", "session_id", c.id, "err", err)
		ev.Err = svcErr
		c.notifyGeneration(ev)
		return svcErr
	}

	result := *out
	if result.MimeType == "" {
		result.MimeType = "image/png"
	}
	c.result = &result
	c.resultSeq++
	c.resultSelection = sel
	c.resultInstr = instruction
	c.mu.Unlock()

	// The result is already displayed, so it counts even if the caller went away.
	if err := c.gate.Commit(context.WithoutCancel(ctx), reservation); err != nil {
		slog.Warn("Failed to record generation", "session_id", c.id, "err", err)
	}

	slog.Info("Generation complete", "session_id", c.id, "bytes", len(result.Data), "duration", ev.Duration)
	c.notifyGeneration(ev)
	return nil
}

// Reset discards the session and returns to Idle. Any in-flight call's result is dropped.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
	c.state = Idle
	slog.Info("Session reset", "session_id", c.id)
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the last collaborator or content-validation failure, if any.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// Selection returns a copy of the working selection.
func (c *Controller) Selection() models.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.Clone()
}

// Original returns the uploaded photo.
func (c *Controller) Original() (models.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.original == nil {
		return models.Image{}, false
	}
	return *c.original, true
}

// Result returns the displayed generated image and its sequence number. The sequence
// changes whenever a new result replaces the previous one.
func (c *Controller) Result() (models.Image, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return models.Image{}, c.resultSeq, false
	}
	return *c.result, c.resultSeq, true
}

// ResultColor returns the colour shown in the displayed result, or nil.
func (c *Controller) ResultColor() *models.Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return nil
	}
	return c.resultSelection.ResolvedColor()
}

// ResultDetails returns the selection and instruction that produced the displayed result.
func (c *Controller) ResultDetails() (models.Selection, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return models.Selection{}, "", false
	}
	return c.resultSelection.Clone(), c.resultInstr, true
}

// ActiveColor returns the colour of the working selection, custom text first.
func (c *Controller) ActiveColor() *models.Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.ResolvedColor()
}

// Snapshot is a read-only view of the session.
type Snapshot struct {
	ID              string            `json:"id"`
	State           State             `json:"state"`
	HasImage        bool              `json:"has_image"`
	HasResult       bool              `json:"has_result"`
	ResultSeq       uint64            `json:"result_seq"`
	Selection       models.Selection  `json:"selection"`
	ResultSelection *models.Selection `json:"result_selection,omitempty"`
	Suggestions     []models.Color    `json:"suggestions"`
	AnalysisNote    string            `json:"analysis_note,omitempty"`
	LastError       string            `json:"last_error,omitempty"`
	Progress        string            `json:"progress,omitempty"`
}

// Snapshot returns the current session view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		ID:           c.id,
		State:        c.state,
		HasImage:     c.original != nil,
		HasResult:    c.result != nil,
		ResultSeq:    c.resultSeq,
		Selection:    c.selection.Clone(),
		Suggestions:  append([]models.Color{}, c.suggestions...),
		AnalysisNote: c.analysisNote,
		LastError:    Describe(c.lastError),
		Progress:     c.progress,
	}
	if c.result != nil {
		rs := c.resultSelection.Clone()
		snap.ResultSelection = &rs
	}
	return snap
}

func (c *Controller) clearLocked() {
	c.epoch++
	c.original = nil
	c.result = nil
	c.resultSelection = models.NewSelection()
	c.resultInstr = ""
	c.selection = models.NewSelection()
	c.suggestions = nil
	c.analysisNote = ""
	c.lastError = nil
	c.progress = ""
}

func (c *Controller) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

func (c *Controller) notifyAnalysis(ev AnalysisEvent) {
	for _, o := range c.observers {
		o.AnalysisFinished(ev)
	}
}

func (c *Controller) notifyGeneration(ev GenerationEvent) {
	for _, o := range c.observers {
		o.GenerationFinished(ev)
	}
}

func progressMessage(opts GenerateOptions, sel models.Selection) string {
	switch {
	case opts.RestoreOriginal:
		return "Restoring original finish..."
	case opts.Color != nil:
		return fmt.Sprintf("Applying %s...", opts.Color.Name)
	case opts.Hardware != nil:
		return fmt.Sprintf("Installing %s...", opts.Hardware.Name)
	case strings.TrimSpace(sel.CustomColorText) != "":
		return fmt.Sprintf("Applying %s...", strings.TrimSpace(sel.CustomColorText))
	default:
		return "Updating design..."
	}
}
