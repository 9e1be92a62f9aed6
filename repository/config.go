package repository

import "time"

const defaultConcurrency = 1

// Option configures the Manager.
type Option func(*Manager)

// WithConcurrency sets how many repositories are cloned in parallel by
// CloneMulti and CloneTargets. default is 1 (sequential).
func WithConcurrency(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// WithCloneTimeout bounds each clone of a batch, 0 means no timeout.
func WithCloneTimeout(d time.Duration) Option {
	return func(m *Manager) { m.cloneTimeout = d }
}
