// Package clicklog keeps a bounded, most-recent-first log of affiliate
// click events and summarizes it on demand for campaign reporting.
package clicklog

import (
	"strings"
	"sync"
	"time"

	"github.com/stegverse/cfp-tickets/internal/model"
)

// DefaultCapacity is used when NewAggregator is given a non-positive size.
const DefaultCapacity = 5000

// Aggregator owns one click log.  The log is a fixed-size ring: recording
// past capacity evicts the oldest entry.  Record is the only mutator;
// Summarize and Recent read a consistent snapshot under the read lock.
type Aggregator struct {
	mu    sync.RWMutex
	buf   []model.ClickEvent
	head  int // index of the next write
	count int
	now   func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator returns an empty log holding at most capacity events.
func NewAggregator(capacity int, opts ...Option) *Aggregator {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	a := &Aggregator{
		buf: make([]model.ClickEvent, capacity),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Capacity returns the maximum number of events kept.
func (a *Aggregator) Capacity() int { return len(a.buf) }

// Len returns the number of events currently in the log.
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.count
}

// Record stamps ev with the current time, stores it as the most recent
// entry and returns the stored copy.
func (a *Aggregator) Record(ev model.ClickEvent) model.ClickEvent {
	ev.TimestampUnix = a.now().Unix()

	a.mu.Lock()
	a.buf[a.head] = ev
	a.head = (a.head + 1) % len(a.buf)
	if a.count < len(a.buf) {
		a.count++
	}
	a.mu.Unlock()
	return ev
}

// Recent returns up to n events, most recent first.
func (a *Aggregator) Recent(n int) []model.ClickEvent {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot(n)
}

// snapshot copies the newest n entries; caller holds the lock.
func (a *Aggregator) snapshot(n int) []model.ClickEvent {
	if n > a.count {
		n = a.count
	}
	if n <= 0 {
		return []model.ClickEvent{}
	}
	out := make([]model.ClickEvent, n)
	size := len(a.buf)
	for i := 0; i < n; i++ {
		out[i] = a.buf[(a.head-1-i+size)%size]
	}
	return out
}

// Summarize groups the newest window events by provider, bucket and
// campaign.  Provider and bucket keys are lower-cased; campaign ids keep
// their case.  The summary echoes window even when fewer events are held.
func (a *Aggregator) Summarize(window int) model.ClickSummary {
	a.mu.RLock()
	events := a.snapshot(window)
	a.mu.RUnlock()

	sum := model.ClickSummary{
		Window:     window,
		Total:      len(events),
		ByProvider: map[string]int{},
		ByBucket:   map[string]int{},
		ByCampaign: map[string]int{},
	}
	for _, ev := range events {
		sum.ByProvider[foldKey(ev.Provider, "unknown")]++
		sum.ByBucket[foldKey(ev.BucketLabel, "unknown")]++
		campaign := ev.CampaignID
		if campaign == "" {
			campaign = "none"
		}
		sum.ByCampaign[campaign]++

		ts := ev.TimestampUnix
		if sum.FirstTimestamp == nil || ts < *sum.FirstTimestamp {
			sum.FirstTimestamp = &ts
		}
		if sum.LastTimestamp == nil || ts > *sum.LastTimestamp {
			last := ts
			sum.LastTimestamp = &last
		}
	}
	return sum
}

func foldKey(s, missing string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return missing
	}
	return s
}
