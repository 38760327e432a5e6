// Package quota tracks free generations and the email unlock that lifts the limit.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// DefaultLimit is the number of free generations before an email unlock is required.
const DefaultLimit = 2

// Keys under which the quota is persisted.
const (
	CountKey = "cabcoat_gen_count"
	EmailKey = "cabcoat_user_email"
)

// ErrInvalidEmail is returned by Unlock when the address fails the shape check.
var ErrInvalidEmail = errors.New("please enter a valid email address")

// Decision is the outcome of a gate check.
type Decision int

const (
	Allowed Decision = iota
	RequiresUnlock
)

func (d Decision) String() string {
	if d == Allowed {
		return "allowed"
	}
	return "requires_unlock"
}

// State is the persisted quota.
type State struct {
	FreeGenerationsUsed int
	UnlockedEmail       string
}

// Unlocked reports whether an email has lifted the limit.
func (s State) Unlocked() bool {
	return s.UnlockedEmail != ""
}

// Allow decides whether a generation may proceed. Once unlocked the counter is not consulted.
func Allow(s State, limit int) Decision {
	if s.Unlocked() {
		return Allowed
	}
	if s.FreeGenerationsUsed < limit {
		return Allowed
	}
	return RequiresUnlock
}

// ValidEmail is the minimal shape check: the address must contain both '@' and '.'.
func ValidEmail(email string) bool {
	return strings.Contains(email, "@") && strings.Contains(email, ".")
}

// KV is durable string storage that survives restarts.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Status summarises the gate for display.
type Status struct {
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"` // -1 when unlocked
	Unlocked  bool   `json:"unlocked"`
	Email     string `json:"email,omitempty"`
}

// Gate owns the quota state and persists every change. It is shared by every
// session, so a free slot is claimed with Reserve before the generation starts.
type Gate struct {
	mu       sync.Mutex
	kv       KV
	limit    int
	state    State
	reserved int // slots claimed by generations still in flight
}

// Reservation is a claimed generation slot. Exactly one of Commit or Release must follow.
type Reservation struct {
	counted bool
}

// NewGate loads the quota from kv. A limit <= 0 uses DefaultLimit.
func NewGate(ctx context.Context, kv KV, limit int) (*Gate, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	g := &Gate{kv: kv, limit: limit}

	raw, ok, err := kv.Get(ctx, CountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load generation count: %w", err)
	}
	if ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			slog.Warn("Ignoring malformed generation count", "value", raw, "err", err)
		} else if n > 0 {
			g.state.FreeGenerationsUsed = n
		}
	}

	email, ok, err := kv.Get(ctx, EmailKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load unlocked email: %w", err)
	}
	if ok {
		g.state.UnlockedEmail = email
	}

	return g, nil
}

// Limit returns the configured free-generation limit.
func (g *Gate) Limit() int {
	return g.limit
}

// State returns a copy of the current quota.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Allow checks the current quota, counting in-flight reservations as used.
func (g *Gate) Allow() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.allowLocked()
}

func (g *Gate) allowLocked() Decision {
	pending := g.state
	pending.FreeGenerationsUsed += g.reserved
	return Allow(pending, g.limit)
}

// Reserve checks the quota and claims a slot in one step. When the decision is
// RequiresUnlock nothing is claimed and the reservation must not be used.
func (g *Gate) Reserve() (Reservation, Decision) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if d := g.allowLocked(); d != Allowed {
		return Reservation{}, d
	}
	if g.state.Unlocked() {
		return Reservation{}, Allowed
	}
	g.reserved++
	return Reservation{counted: true}, Allowed
}

// Release returns an unused slot after a failed or dropped generation.
func (g *Gate) Release(r Reservation) {
	if !r.counted {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reserved--
}

// Commit counts a reserved slot as a completed generation. The in-memory count
// advances even when persisting fails.
func (g *Gate) Commit(ctx context.Context, r Reservation) error {
	if !r.counted {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reserved--
	return g.recordLocked(ctx)
}

// RecordGeneration counts a completed generation that held no reservation.
// It is a no-op once unlocked.
func (g *Gate) RecordGeneration(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.recordLocked(ctx)
}

func (g *Gate) recordLocked(ctx context.Context) error {
	if g.state.Unlocked() {
		return nil
	}
	g.state.FreeGenerationsUsed++
	if err := g.kv.Set(ctx, CountKey, strconv.Itoa(g.state.FreeGenerationsUsed)); err != nil {
		return fmt.Errorf("failed to persist generation count: %w", err)
	}
	return nil
}

// Unlock stores email and lifts the limit permanently.
func (g *Gate) Unlock(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if !ValidEmail(email) {
		return ErrInvalidEmail
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.kv.Set(ctx, EmailKey, email); err != nil {
		return fmt.Errorf("failed to persist unlocked email: %w", err)
	}
	g.state.UnlockedEmail = email
	slog.Info("Generation limit unlocked", "email", email)
	return nil
}

// Status returns a display summary.
func (g *Gate) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := Status{
		Used:     g.state.FreeGenerationsUsed,
		Limit:    g.limit,
		Unlocked: g.state.Unlocked(),
		Email:    g.state.UnlockedEmail,
	}
	if st.Unlocked {
		st.Remaining = -1
	} else {
		st.Remaining = max(g.limit-st.Used-g.reserved, 0)
	}
	return st
}
