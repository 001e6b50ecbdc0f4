package pipeline

import (
	"context"
	"errors"
	"iter"

	"google.golang.org/adk/session"

	"stock-analysis-agent/internal/logger"
)

// Stream wraps a runner's event sequence. A cancelled context, such as a
// client disconnect, ends the stream quietly instead of surfacing an error.
type Stream struct {
	ctx         context.Context
	seq         iter.Seq2[*session.Event, error]
	interrupted bool
	err         error
}

func SafeEvents(ctx context.Context, seq iter.Seq2[*session.Event, error]) *Stream {
	return &Stream{ctx: ctx, seq: seq}
}

// All yields events until the sequence ends, fails or the context is done.
// Check Err afterwards.
func (s *Stream) All() iter.Seq[*session.Event] {
	return func(yield func(*session.Event) bool) {
		for ev, err := range s.seq {
			if err != nil {
				if s.cancelled(err) {
					s.interrupt(err)
					return
				}
				s.err = err
				return
			}
			if ev == nil {
				continue
			}
			if !yield(ev) {
				return
			}
			if s.ctx.Err() != nil {
				s.interrupt(s.ctx.Err())
				return
			}
		}
	}
}

func (s *Stream) cancelled(err error) bool {
	return s.ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (s *Stream) interrupt(cause error) {
	s.interrupted = true
	// the caller's context is gone, log on a detached one
	logger.Warn(context.WithoutCancel(s.ctx), "Event stream interrupted; treating as end of stream", "cause", cause)
}

// Interrupted reports whether the stream stopped because the context ended.
func (s *Stream) Interrupted() bool { return s.interrupted }

// Err returns the first non-cancellation error from the sequence.
func (s *Stream) Err() error { return s.err }
