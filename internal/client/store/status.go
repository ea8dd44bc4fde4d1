// Package store holds the client-side state of the storefront: who is
// signed in, what the catalog looks like and what is in the cart.
//
// Each store guards its state with its own lock. An operation marks the
// store as loading, calls the API without holding the lock and then applies
// the result in one critical section. Concurrent calls are not ordered; the
// one that finishes last wins.
package store

// Status tracks the last operation of a store.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}
