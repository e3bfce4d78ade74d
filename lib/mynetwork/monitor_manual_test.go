package mynetwork

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManualMonitor(t *testing.T) {
	c := context.TODO()

	t.Run("Reports initial state", func(t *testing.T) {
		m := NewManualMonitor(true)
		assert.True(t, m.IsOnline(c))
	})

	t.Run("Notifies on transition only", func(t *testing.T) {
		m := NewManualMonitor(false)

		transitions := []bool{}
		unsubscribe := m.Subscribe(func(online bool) {
			transitions = append(transitions, online)
		})
		defer unsubscribe()

		m.SetOnline(false) // no transition
		m.SetOnline(true)
		m.SetOnline(true) // no transition
		m.SetOnline(false)

		assert.Equal(t, []bool{true, false}, transitions)
	})

	t.Run("Unsubscribe stops notifications", func(t *testing.T) {
		m := NewManualMonitor(false)

		count := 0
		unsubscribe := m.Subscribe(func(online bool) {
			count++
		})

		m.SetOnline(true)
		unsubscribe()
		m.SetOnline(false)

		assert.Equal(t, 1, count)
	})
}
