package searchdex

import (
	"errors"
	"strings"

	"github.com/redis/rueidis"
)

// Sentinel errors surfaced by index lifecycle operations.
var (
	ErrIndexExists   = errors.New("searchdex: index already exists")
	ErrIndexNotFound = errors.New("searchdex: index not found")
	ErrKeyNotFound   = errors.New("searchdex: key not found")
)

// StoreError wraps a store failure with the command and index it came from.
// The underlying error passes through unchanged; no retries, no downgrades.
type StoreError struct {
	Op    string
	Index string
	Err   error
}

func (e *StoreError) Error() string {
	if e.Index == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Index + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

// isStoreErr checks if err is a server error containing substr,
// case-insensitively.
func isStoreErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
