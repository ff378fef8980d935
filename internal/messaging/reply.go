package messaging

import "context"

// Reply is the answer to a dispatched message. It is either available immediately
// or resolved later by a background goroutine, mirroring a listener that keeps the
// response channel open.
type Reply struct {
	resp    Response
	pending *pending
}

type pending struct {
	done chan struct{}
	resp Response
}

// Immediate wraps a response that is already known.
func Immediate(resp Response) Reply {
	return Reply{resp: resp}
}

// Deferred runs fn in its own goroutine and resolves the reply with its result.
func Deferred(fn func() Response) Reply {
	p := &pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.resp = fn()
	}()

	return Reply{pending: p}
}

// IsDeferred reports whether the response arrives asynchronously.
func (r Reply) IsDeferred() bool {
	return r.pending != nil
}

// Wait returns the response, blocking for deferred replies until it arrives or ctx
// is done. It may be called any number of times.
func (r Reply) Wait(ctx context.Context) (Response, error) {
	if r.pending == nil {
		return r.resp, nil
	}

	select {
	case <-r.pending.done:
		return r.pending.resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}
