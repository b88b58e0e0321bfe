package session

import (
	"sync"
	"testing"

	"github.com/hupe1980/modelbridge/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_GetCreatesLazily(t *testing.T) {
	store := NewInMemoryStore()

	sess, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sess.ID)
	assert.Empty(t, sess.Messages)
}

func TestInMemoryStore_AppendAccumulates(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.Append("s1", core.NewUserContent("hello")))
	require.NoError(t, store.Append("s1",
		core.Content{Role: "assistant", Parts: []core.Part{core.TextPart{Text: "hi"}}}))

	sess, err := store.Get("s1")
	require.NoError(t, err)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, "user", sess.Messages[0].Role)
	assert.Equal(t, "hi", sess.Messages[1].Text())
}

func TestInMemoryStore_GetReturnsClone(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Append("s1", core.NewUserContent("hello")))

	sess, err := store.Get("s1")
	require.NoError(t, err)
	sess.Append(core.NewUserContent("mutated"))

	again, err := store.Get("s1")
	require.NoError(t, err)
	assert.Len(t, again.Messages, 1)
}

func TestInMemoryStore_Delete(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Append("s1", core.NewUserContent("hello")))
	require.NoError(t, store.Delete("s1"))

	sess, err := store.Get("s1")
	require.NoError(t, err)
	assert.Empty(t, sess.Messages)

	assert.NoError(t, store.Delete("never-existed"))
}

func TestInMemoryStore_ConcurrentAppend(t *testing.T) {
	store := NewInMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Append("shared", core.NewUserContent("msg"))
		}()
	}
	wg.Wait()

	sess, err := store.Get("shared")
	require.NoError(t, err)
	assert.Len(t, sess.Messages, 20)
}
