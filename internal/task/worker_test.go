package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRejectsDuplicateWorkerIDs(t *testing.T) {
	r := NewWorkerRegistry()

	require.NoError(t, r.Add(Worker{ID: "analyst-1", Role: "analyst", Active: true}))
	err := r.Add(Worker{ID: "analyst-1", Role: "builder", Active: true})
	assert.ErrorIs(t, err, ErrWorkerExists)
}

func TestRegistryRejectsEmptyWorkerID(t *testing.T) {
	r := NewWorkerRegistry()
	assert.Error(t, r.Add(Worker{Role: "analyst"}))
}

func TestSetActiveUnknownWorker(t *testing.T) {
	r := NewWorkerRegistry()
	assert.Error(t, r.SetActive("ghost", true))
}

func TestFirstIdleSkipsInactiveAndBusyWorkers(t *testing.T) {
	r := NewWorkerRegistry()
	require.NoError(t, r.Add(Worker{ID: "analyst-1", Role: "analyst", Active: false}))
	require.NoError(t, r.Add(Worker{ID: "analyst-2", Role: "analyst", Active: true}))
	require.NoError(t, r.Add(Worker{ID: "analyst-3", Role: "analyst", Active: true}))

	busy := func(id string) bool { return id == "analyst-2" }

	w, ok := r.firstIdle("analyst", busy)
	require.True(t, ok)
	assert.Equal(t, "analyst-3", w.ID)

	_, ok = r.firstIdle("builder", busy)
	assert.False(t, ok)
}

func TestWorkersReturnsCopies(t *testing.T) {
	r := NewWorkerRegistry()
	require.NoError(t, r.Add(Worker{ID: "analyst-1", Role: "analyst", Active: true}))

	list := r.Workers()
	require.Len(t, list, 1)
	list[0].Active = false

	w, ok := r.firstIdle("analyst", func(string) bool { return false })
	require.True(t, ok)
	assert.True(t, w.Active)
}
