/*
Package game
File: loop.go
Description:
    The accrual heartbeat. A Loop calls Session.Tick on a fixed period until
    its context is cancelled, then takes a final snapshot so a clean shutdown
    never loses progress. The period is configuration; correctness does not
    depend on it because every tick measures its own elapsed time.
*/

package game

import (
	"context"
	"time"

	"github.com/everforgeworks/tycoon-clicker/internal/platform/logger"
)

// TickObserver is told how long each tick took (metrics hook).
type TickObserver interface {
	RecordTick(latency time.Duration)
}

// Loop drives Session.Tick on a fixed period.
type Loop struct {
	session  *Session
	interval time.Duration
	logger   *logger.Logger
	observer TickObserver
}

// NewLoop creates a heartbeat for session. observer may be nil.
func NewLoop(session *Session, interval time.Duration, log *logger.Logger, observer TickObserver) *Loop {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Loop{
		session:  session,
		interval: interval,
		logger:   log,
		observer: observer,
	}
}

// Run blocks until ctx is done. Call in a goroutine.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("Accrual loop started, tick every " + l.interval.String())

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.session.Persist()
			l.logger.Info("Accrual loop stopped, final snapshot queued.")
			return
		case <-ticker.C:
			start := time.Now()
			l.session.Tick()
			if l.observer != nil {
				l.observer.RecordTick(time.Since(start))
			}
		}
	}
}
