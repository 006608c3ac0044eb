package loader

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Outcome is how a request ended.
type Outcome int

const (
	// OutcomePending means the request has not completed yet.
	OutcomePending Outcome = iota
	// OutcomeAccepted means the response was applied to the loader.
	OutcomeAccepted
	// OutcomeStale means a newer request superseded this one; its
	// response was dropped.
	OutcomeStale
	// OutcomeFailed means the fetch returned an error while the request
	// was still current. Items were left untouched.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeStale:
		return "stale"
	case OutcomeFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Request is a handle on one Load or LoadMore call.
type Request struct {
	// ID is the request token.
	ID ulid.ULID
	// Offset and Limit are the arguments passed to the fetch function.
	Offset int
	Limit  int
	// Fresh is true for Load, false for LoadMore.
	Fresh bool

	done    chan struct{}
	once    sync.Once
	outcome Outcome
	err     error
}

func newRequest(offset, limit int, fresh bool) *Request {
	return &Request{
		ID:     ulid.Make(),
		Offset: offset,
		Limit:  limit,
		Fresh:  fresh,
		done:   make(chan struct{}),
	}
}

func (r *Request) finish(outcome Outcome, err error) {
	r.once.Do(func() {
		r.outcome = outcome
		r.err = err
		close(r.done)
	})
}

// Done is closed once the request completed, whatever the outcome.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the request completes or ctx ends. The returned error is
// the fetch error for OutcomeFailed, ctx.Err() if ctx ended first, nil
// otherwise.
func (r *Request) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-r.done:
		return r.outcome, r.err
	case <-ctx.Done():
		return OutcomePending, ctx.Err()
	}
}

// Outcome returns the outcome so far without blocking.
func (r *Request) Outcome() Outcome {
	select {
	case <-r.done:
		return r.outcome
	default:
		return OutcomePending
	}
}

// Err returns the fetch error of a failed request.
func (r *Request) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}
