package explorer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdocs/internal/domain"
	models "hrdocs/internal/domain/models/docsystem"
	docsysSvc "hrdocs/internal/domain/services/docsystem"
	"hrdocs/internal/repository/memory"
)

func TestManager_CreateGetRemove(t *testing.T) {
	m := NewManager(newServices(memory.NewItemStore()), 4, time.Hour, testLogger())

	s, inbox := m.Create("viewer-1", models.RoleAdmin)
	require.NotEmpty(t, s.ID())
	require.NotNil(t, inbox)

	got, gotInbox, err := m.Get(s.ID(), "viewer-1")
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Same(t, inbox, gotInbox)

	_, _, err = m.Get(s.ID(), "someone-else")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.Open(context.Background(), "emp-1"))
	require.NoError(t, m.Remove(s.ID(), "viewer-1"))
	assert.Equal(t, StateClosed, s.State(), "removed sessions are closed")
	assert.Equal(t, 0, m.Len())

	_, _, err = m.Get(s.ID(), "viewer-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestManager_EvictsLeastRecentlyUsed(t *testing.T) {
	m := NewManager(newServices(memory.NewItemStore()), 2, time.Hour, testLogger())

	first, _ := m.Create("v", models.RoleAdmin)
	second, _ := m.Create("v", models.RoleAdmin)
	_, _, err := m.Get(first.ID(), "v")
	require.NoError(t, err)
	m.Create("v", models.RoleAdmin)

	_, _, err = m.Get(second.ID(), "v")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, _, err = m.Get(first.ID(), "v")
	assert.NoError(t, err)
}

func TestInbox_DrainAndBound(t *testing.T) {
	inbox := NewInbox(testLogger())
	assert.Empty(t, inbox.Drain())

	for i := 0; i < maxPendingNotifications+5; i++ {
		inbox.Notify("n", docsysSvc.LevelInfo)
	}
	assert.Len(t, inbox.Drain(), maxPendingNotifications)
	assert.Empty(t, inbox.Drain())
}
