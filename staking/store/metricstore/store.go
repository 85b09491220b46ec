// Package metricstore decorates a staking.Store with latency metrics.
package metricstore

import (
	"context"
	"time"

	"github.com/screwyprof/glanger/staking"
)

// Recorder observes store transaction latency
type Recorder interface {
	RecordStoreLatency(d time.Duration, method string, failure bool)
}

// Store wraps another staking.Store
type Store struct {
	next     staking.Store
	recorder Recorder
}

// New wraps next so every transaction is timed
func New(next staking.Store, recorder Recorder) *Store {
	return &Store{next: next, recorder: recorder}
}

func (s *Store) Update(ctx context.Context, fn func(staking.Tx) error) error {
	return s.run("Update", func() error {
		return s.next.Update(ctx, fn)
	})
}

func (s *Store) View(ctx context.Context, fn func(staking.Tx) error) error {
	return s.run("View", func() error {
		return s.next.View(ctx, fn)
	})
}

func (s *Store) run(method string, fn func() error) error {
	started := time.Now()
	err := fn()
	s.recorder.RecordStoreLatency(time.Since(started), method, err != nil)
	return err
}
