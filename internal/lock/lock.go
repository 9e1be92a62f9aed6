//go:build !deadlock_test

// Package lock provides the mutex types used across the module.
// build with `-tags deadlock_test` to swap them for go-deadlock versions.
package lock

import "sync"

type Mutex = sync.Mutex

type RWMutex = sync.RWMutex
