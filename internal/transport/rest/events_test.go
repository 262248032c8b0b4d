package rest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/service"
)

func drain(ch <-chan Event) []Event {
	var events []Event
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, event)
		default:
			return events
		}
	}
}

func TestBroadcaster(t *testing.T) {
	t.Run("Events reach every tab of the session only", func(t *testing.T) {
		// Given: two tabs on one session and one tab on another
		b := NewBroadcaster()
		ctx := context.Background()

		first, unsubFirst := b.Subscribe(ctx, "a")
		defer unsubFirst()
		second, unsubSecond := b.Subscribe(ctx, "a")
		defer unsubSecond()
		other, unsubOther := b.Subscribe(ctx, "b")
		defer unsubOther()

		// When: session a renders a move
		b.RenderCell("a", 4, "X")
		b.RenderStatus("a", "Player O's Turn")

		// Then: both tabs of a see it in order, b sees nothing
		expected := []Event{
			{Name: "cell-4", Data: "X"},
			{Name: "status", Data: "Player O's Turn"},
		}
		assert.Equal(t, expected, drain(first))
		assert.Equal(t, expected, drain(second))
		assert.Empty(t, drain(other))
	})

	t.Run("Unsubscribe closes the channel", func(t *testing.T) {
		b := NewBroadcaster()

		ch, unsub := b.Subscribe(context.Background(), "a")
		unsub()
		unsub()

		_, ok := <-ch
		assert.False(t, ok)

		b.RenderStatus("a", "nobody listens")
		assert.Empty(t, b.subs)
	})

	t.Run("Cancelled context unsubscribes", func(t *testing.T) {
		b := NewBroadcaster()
		ctx, cancel := context.WithCancel(context.Background())

		ch, _ := b.Subscribe(ctx, "a")
		cancel()

		require.Eventually(t, func() bool {
			select {
			case _, ok := <-ch:
				return !ok
			default:
				return false
			}
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("Slow tab is dropped", func(t *testing.T) {
		b := NewBroadcaster()

		ch, unsub := b.Subscribe(context.Background(), "a")
		defer unsub()

		for i := 0; i <= subscriberBuffer; i++ {
			b.RenderStatus("a", "spam")
		}

		assert.Len(t, drain(ch), subscriberBuffer)
		_, ok := <-ch
		assert.False(t, ok)

		b.mu.Lock()
		defer b.mu.Unlock()
		assert.Empty(t, b.subs)
	})
}

func TestBroadcaster_ServesBothSides(t *testing.T) {
	b := NewBroadcaster()

	// the same value is the router's event source and the game's render sink
	var source subscriber = b
	var sink service.Renderer = b

	ch, unsub := source.Subscribe(context.Background(), "a")
	defer unsub()

	sink.RenderCell("a", 0, "X")

	assert.Equal(t, []Event{{Name: "cell-0", Data: "X"}}, drain(ch))
}
