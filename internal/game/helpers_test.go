package game

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/everforgeworks/tycoon-clicker/internal/platform/logger"
)

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// recordingSaver keeps every submitted blob.
type recordingSaver struct {
	mu    sync.Mutex
	blobs [][]byte
}

func (r *recordingSaver) Submit(blob []byte) {
	r.mu.Lock()
	r.blobs = append(r.blobs, blob)
	r.mu.Unlock()
}

func (r *recordingSaver) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.blobs)
}

func (r *recordingSaver) Last() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.blobs) == 0 {
		return nil
	}
	return r.blobs[len(r.blobs)-1]
}

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := DefaultCatalog()
	require.NoError(t, err)
	return c
}

func newTestSession(t *testing.T, st GameState) (*Session, *fakeClock, *recordingSaver) {
	t.Helper()
	clk := newFakeClock(epoch)
	saver := &recordingSaver{}
	if st.LastTick == 0 {
		st.LastTick = epoch.UnixMilli()
	}
	s := NewSession(st, testCatalog(t), clk, saver, logger.Discard(), DefaultOptions())
	return s, clk, saver
}
