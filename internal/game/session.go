/*
Package game
File: session.go
Description:
    Session owns the one GameState of a running game and is the only way to
    mutate it. Every intent (click, buy, prestige, reset, import) and every
    clock tick takes the session lock, so the engine never sees interleaved
    mutations.

    After each mutation the session:
    1. Serialises a consistent snapshot under the lock and hands it to the Saver.
    2. Builds a View and pushes it to subscribers (the presentation layer).
*/

package game

import (
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/everforgeworks/tycoon-clicker/internal/platform/logger"
)

// Saver receives finished save blobs. Submit must not block.
type Saver interface {
	Submit(blob []byte)
}

// Options tunes the time-based behaviour of a session.
type Options struct {
	SaveInterval time.Duration // Accrued time between periodic snapshots
	OfflineCap   time.Duration // Longest absence credited by CatchUp
}

// DefaultOptions mirrors the browser build: save every 5s, 6h offline cap.
func DefaultOptions() Options {
	return Options{
		SaveInterval: 5 * time.Second,
		OfflineCap:   6 * time.Hour,
	}
}

// CatchUpResult reports the offline reconciliation performed at boot.
type CatchUpResult struct {
	Away     time.Duration `json:"away"`     // Real time since the last tick
	Credited time.Duration `json:"credited"` // Portion of Away that earned coins (capped)
	Gained   float64       `json:"gained"`
}

// Session serialises every read and mutation of one player's game.
type Session struct {
	mu      sync.Mutex
	catalog *Catalog
	clk     Clock
	saver   Saver
	log     *logger.Logger
	opts    Options

	st          GameState
	accumulator float64 // seconds accrued since the last periodic snapshot

	subMu sync.RWMutex
	subs  []func(View)
}

// NewSession takes ownership of st.
func NewSession(st GameState, catalog *Catalog, clk Clock, saver Saver, log *logger.Logger, opts Options) *Session {
	normalize(&st)
	return &Session{
		catalog: catalog,
		clk:     clk,
		saver:   saver,
		log:     log,
		opts:    opts,
		st:      st,
	}
}

// Subscribe registers fn to receive a View after every state change.
func (s *Session) Subscribe(fn func(View)) {
	s.subMu.Lock()
	s.subs = append(s.subs, fn)
	s.subMu.Unlock()
}

func (s *Session) notify(v View) {
	s.subMu.RLock()
	subs := s.subs
	s.subMu.RUnlock()
	for _, fn := range subs {
		fn(v)
	}
}

// SetCatalog swaps the catalog (hot reload). Owned counts for ids that
// disappeared are kept but ignored by the formulas.
func (s *Session) SetCatalog(c *Catalog) {
	s.mu.Lock()
	s.catalog = c
	v := s.viewLocked()
	s.mu.Unlock()
	s.notify(v)
}

// Catalog returns the catalog currently in use.
func (s *Session) Catalog() *Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog
}

// State returns a deep copy of the current state.
func (s *Session) State() GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.CPS = ComputePassiveRate(&s.st, s.catalog)
	return s.st.Clone()
}

// View renders the current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Click grants one click worth of coins and returns the amount.
func (s *Session) Click() float64 {
	s.mu.Lock()
	gain := ComputeClickValue(&s.st, s.catalog)
	ApplyGain(&s.st, gain)
	v := s.commitLocked()
	s.mu.Unlock()

	s.notify(v)
	return gain
}

// Buy purchases one unit of an upgrade.
// On ErrInsufficientFunds the state is untouched and nothing is saved.
func (s *Session) Buy(id string) (PurchaseResult, error) {
	s.mu.Lock()
	res, err := Purchase(&s.st, s.catalog, id)
	if err != nil || !res.Known {
		s.mu.Unlock()
		return res, err
	}
	v := s.commitLocked()
	s.mu.Unlock()

	s.log.Event("PURCHASE", res.UpgradeID, "owned="+humanize.Comma(int64(res.Owned))+" cost="+humanize.Commaf(res.Cost))
	s.notify(v)
	return res, nil
}

// Prestige resets progress for permanent points.
func (s *Session) Prestige() (int, error) {
	s.mu.Lock()
	points, err := Prestige(&s.st)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	v := s.commitLocked()
	s.mu.Unlock()

	s.log.Event("PRESTIGE", "player", "awarded="+humanize.Comma(int64(points)))
	s.notify(v)
	return points, nil
}

// ResetHard replaces the whole state with defaults, prestige included.
func (s *Session) ResetHard() {
	s.mu.Lock()
	s.st = ResetHard(s.clk.Now())
	s.accumulator = 0
	v := s.commitLocked()
	s.mu.Unlock()

	s.log.Event("RESET", "player", "hard reset")
	s.notify(v)
}

// Export serialises the current state for a later Import.
func (s *Session) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.CPS = ComputePassiveRate(&s.st, s.catalog)
	return EncodeState(s.st)
}

// Import replaces the state with defaults merged with the payload.
// Any decoding problem rejects the import and leaves the state as it was.
func (s *Session) Import(raw []byte) error {
	now := s.clk.Now()
	st, err := DecodeState(raw, now)
	if err != nil {
		return err
	}
	st.LastTick = now.UnixMilli()

	s.mu.Lock()
	s.st = st
	s.accumulator = 0
	v := s.commitLocked()
	s.mu.Unlock()

	s.log.Event("IMPORT", "player", "save imported")
	s.notify(v)
	return nil
}

// Tick advances accrual to the current clock time and returns the coins gained.
// A clock that went backwards yields dt = 0; it never creates coins.
func (s *Session) Tick() float64 {
	s.mu.Lock()
	now := s.clk.Now().UnixMilli()
	dt := float64(now-s.st.LastTick) / 1000
	if dt < 0 {
		dt = 0
	}
	s.st.LastTick = now

	gained := ComputePassiveRate(&s.st, s.catalog) * dt
	if gained > 0 {
		ApplyGain(&s.st, gained)
	}

	// Periodic snapshot, decoupled from the tick cadence
	s.accumulator += dt
	if s.accumulator >= s.opts.SaveInterval.Seconds() {
		s.accumulator = 0
		s.snapshotLocked()
	}
	v := s.viewLocked()
	s.mu.Unlock()

	s.notify(v)
	return gained
}

// CatchUp credits passive income for the time spent away, once, at boot.
func (s *Session) CatchUp() CatchUpResult {
	s.mu.Lock()
	now := s.clk.Now().UnixMilli()

	var res CatchUpResult
	if away := now - s.st.LastTick; away > 0 {
		res.Away = time.Duration(away) * time.Millisecond
		elapsed := float64(away) / 1000
		if limit := s.opts.OfflineCap.Seconds(); elapsed > limit {
			elapsed = limit
		}
		if elapsed > 1 {
			res.Credited = time.Duration(elapsed * float64(time.Second))
			res.Gained = ComputePassiveRate(&s.st, s.catalog) * elapsed
			if res.Gained > 0 {
				ApplyGain(&s.st, res.Gained)
			}
		}
	}
	s.st.LastTick = now
	v := s.commitLocked()
	s.mu.Unlock()

	if res.Gained > 0 {
		s.log.Info("Offline earnings: " + humanize.Commaf(res.Gained) + " coins for " + res.Credited.Round(time.Second).String() + " away")
	}
	s.notify(v)
	return res
}

// Persist hands an immediate snapshot to the saver (shutdown path).
func (s *Session) Persist() {
	s.mu.Lock()
	s.snapshotLocked()
	s.mu.Unlock()
}

// commitLocked saves and renders after an intent. Caller holds mu.
func (s *Session) commitLocked() View {
	s.snapshotLocked()
	return s.viewLocked()
}

func (s *Session) snapshotLocked() {
	if s.saver == nil {
		return
	}
	s.st.CPS = ComputePassiveRate(&s.st, s.catalog)
	blob, err := EncodeState(s.st)
	if err != nil {
		s.log.Error("Snapshot encode failed: " + err.Error())
		return
	}
	s.saver.Submit(blob)
}
