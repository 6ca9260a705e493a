package guard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/brandbridge/portal/internal/logging"
	"github.com/brandbridge/portal/internal/observe"
	"github.com/brandbridge/portal/internal/routepath"
	"github.com/brandbridge/portal/internal/session"
)

// Eligibility is the cached result of the profile completeness check.
type Eligibility int

const (
	EligibilityUnknown Eligibility = iota
	EligibilityComplete
	EligibilityIncomplete
)

func (e Eligibility) String() string {
	switch e {
	case EligibilityUnknown:
		return "unknown"
	case EligibilityComplete:
		return "complete"
	case EligibilityIncomplete:
		return "incomplete"
	default:
		return fmt.Sprintf("eligibility(%d)", int(e))
	}
}

// FlagReader reads the profile completeness flag of an identity. found is
// false when no profile row exists.
type FlagReader interface {
	ProfileComplete(ctx context.Context, userID string) (complete bool, found bool, err error)
}

type checkKey struct {
	userID string
	role   session.Role
}

// EligibilityGuard admits identities of one role only once their profile is
// complete. The check runs at most once per (identity, role); a new identity
// or role starts a new check and any result for the previous one is dropped.
// Unknown eligibility counts as incomplete.
type EligibilityGuard struct {
	reader  FlagReader
	role    session.Role
	timeout time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	key      checkKey
	gen      uint64
	status   Eligibility
	decision Decision
	cancel   context.CancelFunc
	done     chan struct{}
	closed   bool
	changes  observe.Source[Decision]
}

// EligibilityOption configures an EligibilityGuard.
type EligibilityOption func(*EligibilityGuard)

// WithRequiredRole selects the role that has to pass the check.
func WithRequiredRole(role session.Role) EligibilityOption {
	return func(g *EligibilityGuard) { g.role = role }
}

// WithReadTimeout bounds each completeness read.
func WithReadTimeout(d time.Duration) EligibilityOption {
	return func(g *EligibilityGuard) { g.timeout = d }
}

// WithLogger sets the guard logger.
func WithLogger(logger *slog.Logger) EligibilityOption {
	return func(g *EligibilityGuard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewEligibilityGuard builds a guard for influencers unless WithRequiredRole
// says otherwise.
func NewEligibilityGuard(reader FlagReader, opts ...EligibilityOption) *EligibilityGuard {
	g := &EligibilityGuard{
		reader:   reader,
		role:     session.RoleInfluencer,
		logger:   logging.Discard(),
		decision: Wait(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Update feeds the latest session state to the guard and returns the decision
// that applies right now. When a check has to be started the decision is Wait
// and the final one is announced through OnChange.
func (g *EligibilityGuard) Update(state session.State) Decision {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return Wait()
	}

	var (
		next  Decision
		start bool
		ctx   context.Context
		gen   uint64
		key   checkKey
	)
	switch {
	case state.Loading():
		g.resetLocked()
		next = Wait()
	case !state.SignedIn() || state.Role != g.role:
		g.resetLocked()
		next = Render()
	default:
		key = checkKey{userID: state.UserID, role: state.Role}
		if key == g.key {
			next = g.decision
			break
		}
		g.resetLocked()
		g.key = key
		gen = g.gen
		ctx, g.cancel = g.readContext()
		g.done = make(chan struct{})
		start = true
		next = Wait()
	}
	g.setDecisionLocked(next)
	g.mu.Unlock()

	if start {
		go g.check(ctx, gen, key)
	}
	g.changes.Drain()
	return next
}

// Decision returns the current decision.
func (g *EligibilityGuard) Decision() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

// Status returns the cached eligibility of the current identity.
func (g *EligibilityGuard) Status() Eligibility {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// OnChange registers fn for every decision change, in the order applied.
func (g *EligibilityGuard) OnChange(fn func(Decision)) (unsubscribe func()) {
	return g.changes.Subscribe(fn)
}

// Await blocks until the pending check, if any, has been resolved or
// superseded, and returns the decision at that point.
func (g *EligibilityGuard) Await(ctx context.Context) (Decision, error) {
	g.mu.Lock()
	done, decision := g.done, g.decision
	g.mu.Unlock()
	if done == nil {
		return decision, nil
	}
	select {
	case <-done:
		return g.Decision(), nil
	case <-ctx.Done():
		return Wait(), ctx.Err()
	}
}

// Close cancels any pending check and disposes the guard. Results that arrive
// afterwards are discarded.
func (g *EligibilityGuard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	g.resetLocked()
}

func (g *EligibilityGuard) check(ctx context.Context, gen uint64, key checkKey) {
	complete, found, err := g.reader.ProfileComplete(ctx, key.userID)

	g.mu.Lock()
	if g.closed || gen != g.gen || key != g.key {
		g.mu.Unlock()
		g.logger.Debug("stale response discarded", slog.String("user_id", key.userID))
		return
	}

	status := EligibilityIncomplete
	switch {
	case err != nil:
		g.logger.Warn("eligibility read failed", slog.String("user_id", key.userID), slog.Any("error", err))
	case found && complete:
		status = EligibilityComplete
	}
	g.status = status
	g.setDecisionLocked(decisionFor(status))
	g.finishLocked()
	g.mu.Unlock()

	g.changes.Drain()
}

func (g *EligibilityGuard) readContext() (context.Context, context.CancelFunc) {
	if g.timeout > 0 {
		return context.WithTimeout(context.Background(), g.timeout)
	}
	return context.WithCancel(context.Background())
}

// resetLocked drops the memoized check and invalidates anything in flight.
func (g *EligibilityGuard) resetLocked() {
	g.finishLocked()
	g.gen++
	g.key = checkKey{}
	g.status = EligibilityUnknown
}

// finishLocked releases the read context and wakes Await callers.
func (g *EligibilityGuard) finishLocked() {
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	if g.done != nil {
		close(g.done)
		g.done = nil
	}
}

func (g *EligibilityGuard) setDecisionLocked(next Decision) {
	if next == g.decision {
		return
	}
	g.decision = next
	g.changes.Enqueue(next)
}

func decisionFor(status Eligibility) Decision {
	if status == EligibilityComplete {
		return Render()
	}
	return RedirectTo(routepath.ProfileSetup)
}
