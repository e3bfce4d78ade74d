package mystore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type record struct {
	UID   string
	Count int
}

var (
	example = record{UID: "123", Count: 42}
)

func TestInMemoryStore(t *testing.T) {
	c := context.TODO()
	rs, cleanup, err := NewInMemoryStore[record](c)
	assert.NoError(t, err)
	defer cleanup()

	t.Run("Get not found", func(t *testing.T) {
		_, found, err := rs.Get(c, example.UID)
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Put", func(t *testing.T) {
		err = rs.Put(c, example.UID, example)
		assert.NoError(t, err)
	})

	t.Run("Get found", func(t *testing.T) {
		r, found, err := rs.Get(c, example.UID)
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, record{UID: "123", Count: 42}, r)
	})

	t.Run("List", func(t *testing.T) {
		all, err := rs.List(c)
		assert.NoError(t, err)
		assert.Equal(t, all, []record{example})
	})

	t.Run("Read-modify-write in transaction", func(t *testing.T) {
		err = rs.RunInTransaction(c, func(c context.Context) error {
			r, found, err := rs.Get(c, example.UID)
			assert.NoError(t, err)
			assert.True(t, found)

			r.Count++
			return rs.Put(c, example.UID, r)
		})
		assert.NoError(t, err)

		r, found, _ := rs.Get(c, example.UID)
		assert.True(t, found)
		assert.Equal(t, 43, r.Count)
	})

	t.Run("Rollback on error", func(t *testing.T) {
		err = rs.RunInTransaction(c, func(c context.Context) error {
			return fmt.Errorf("something failed")
		})
		assert.Error(t, err)
	})
}
