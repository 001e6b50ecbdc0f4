package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/adk/session"
)

func collect(s *Stream) []*session.Event {
	var out []*session.Event
	for ev := range s.All() {
		out = append(out, ev)
	}
	return out
}

func TestSafeEventsCancelledByProducer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seq := func(yield func(*session.Event, error) bool) {
		if !yield(session.NewEvent("inv-1"), nil) {
			return
		}
		cancel()
		yield(nil, ctx.Err())
	}

	s := SafeEvents(ctx, seq)
	events := collect(s)

	assert.Len(t, events, 1)
	assert.True(t, s.Interrupted())
	assert.NoError(t, s.Err())
}

func TestSafeEventsCancelledByConsumer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	produced := 0
	seq := func(yield func(*session.Event, error) bool) {
		for i := 0; i < 10; i++ {
			produced++
			if !yield(session.NewEvent("inv-1"), nil) {
				return
			}
		}
	}

	s := SafeEvents(ctx, seq)
	var events []*session.Event
	for ev := range s.All() {
		events = append(events, ev)
		cancel()
	}

	assert.Len(t, events, 1)
	assert.Equal(t, 1, produced)
	assert.True(t, s.Interrupted())
	assert.NoError(t, s.Err())
}

func TestSafeEventsSurfacesOtherErrors(t *testing.T) {
	boom := errors.New("model unavailable")
	seq := func(yield func(*session.Event, error) bool) {
		if !yield(session.NewEvent("inv-1"), nil) {
			return
		}
		if !yield(nil, boom) {
			return
		}
		yield(session.NewEvent("inv-1"), nil)
	}

	s := SafeEvents(context.Background(), seq)
	events := collect(s)

	assert.Len(t, events, 1)
	assert.False(t, s.Interrupted())
	assert.ErrorIs(t, s.Err(), boom)
}

func TestSafeEventsDeadlineWrapped(t *testing.T) {
	seq := func(yield func(*session.Event, error) bool) {
		yield(nil, errors.Join(errors.New("llm call"), context.DeadlineExceeded))
	}

	s := SafeEvents(context.Background(), seq)
	assert.Empty(t, collect(s))
	assert.True(t, s.Interrupted())
	assert.NoError(t, s.Err())
}
