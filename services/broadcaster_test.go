package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBroadcaster(t *testing.T) {
	t.Run("should deliver in subscription order", func(t *testing.T) {
		req := require.New(t)
		var b Broadcaster[int]
		var got []string
		b.Subscribe(func(v int) { got = append(got, "first") })
		b.Subscribe(func(v int) { got = append(got, "second") })

		b.Publish(1)

		req.Equal([]string{"first", "second"}, got)
	})

	t.Run("should stop delivering after unsubscribe", func(t *testing.T) {
		req := require.New(t)
		var b Broadcaster[int]
		count := 0
		unsubscribe := b.Subscribe(func(int) { count++ })

		b.Publish(1)
		unsubscribe()
		unsubscribe()
		b.Publish(2)

		req.Equal(1, count)
	})

	t.Run("should let a listener subscribe while being notified", func(t *testing.T) {
		req := require.New(t)
		var b Broadcaster[int]
		late := 0
		b.Subscribe(func(int) {
			b.Subscribe(func(int) { late++ })
		})

		b.Publish(1)
		req.Zero(late)
		b.Publish(2)
		req.Equal(1, late)
	})
}
