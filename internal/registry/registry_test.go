package registry

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backendStub struct {
	ID   string
	Kind string
}

func TestBaseRegistryRegisterAndGet(t *testing.T) {
	r := NewBaseRegistry[backendStub]()

	require.NoError(t, r.Register("qdrant", backendStub{ID: "qdrant", Kind: "vector"}))
	assert.Error(t, r.Register("", backendStub{}))
	assert.Error(t, r.Register("qdrant", backendStub{ID: "qdrant", Kind: "dup"}))

	got, ok := r.Get("qdrant")
	require.True(t, ok)
	assert.Equal(t, "vector", got.Kind)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestBaseRegistryListCountClear(t *testing.T) {
	r := NewBaseRegistry[backendStub]()
	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("backend-%d", i)
		require.NoError(t, r.Register(name, backendStub{ID: name}))
	}

	assert.Equal(t, 3, r.Count())
	assert.Len(t, r.List(), 3)

	require.NoError(t, r.Remove("backend-0"))
	assert.Equal(t, 2, r.Count())
	assert.Error(t, r.Remove("backend-0"))

	r.Clear()
	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.List())
}

func TestBaseRegistryConcurrentAccess(t *testing.T) {
	r := NewBaseRegistry[backendStub]()
	done := make(chan struct{}, 2)

	go func() {
		defer func() { done <- struct{}{} }()
		for i := 0; i < 100; i++ {
			name := fmt.Sprintf("concurrent-%d", i)
			_ = r.Register(name, backendStub{ID: name})
		}
	}()

	go func() {
		defer func() { done <- struct{}{} }()
		for i := 0; i < 100; i++ {
			r.Get(fmt.Sprintf("concurrent-%d", i))
			r.Count()
			r.List()
		}
	}()

	<-done
	<-done
	assert.Equal(t, 100, r.Count())
}
