package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/chargebox-core/internal/infrastructure/config"
	"github.com/nerrad567/chargebox-core/internal/infrastructure/database"
	"github.com/nerrad567/chargebox-core/migrations"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, config.DatabaseConfig{Path: database.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck
	require.NoError(t, db.Migrate(ctx, migrations.FS))

	return NewSQLiteRepository(db.DB)
}

func TestCreate_FillsDefaults(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	log := &AuditLog{
		Action:     ActionCreate,
		EntityType: EntityDevice,
		EntityID:   "meter-1",
		Source:     SourceAPI,
		Details:    map[string]any{"attributes": 2},
	}
	require.NoError(t, repo.Create(ctx, log))
	assert.Regexp(t, `^aud-[0-9a-f]{8}$`, log.ID)
	assert.False(t, log.CreatedAt.IsZero())

	res, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, res.Logs, 1)
	got := res.Logs[0]
	assert.Equal(t, log.ID, got.ID)
	assert.Equal(t, "meter-1", got.EntityID)
	assert.Empty(t, got.RequestID)
	assert.Equal(t, float64(2), got.Details["attributes"])
	assert.True(t, log.CreatedAt.Equal(got.CreatedAt))
}

func TestCreate_RequiresFields(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.Create(context.Background(), &AuditLog{Action: ActionDelete})
	assert.Error(t, err)
}

func TestList_FilterAndOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	logs := []*AuditLog{
		{Action: ActionCreate, EntityType: EntityDevice, EntityID: "a", Source: SourceAPI, CreatedAt: base},
		{Action: ActionCommand, EntityType: EntityChargeBox, EntityID: "CP001", Source: SourceMQTT, RequestID: "r-1", CreatedAt: base.Add(time.Second)},
		{Action: ActionDelete, EntityType: EntityDevice, EntityID: "a", Source: SourceAPI, CreatedAt: base.Add(2 * time.Second)},
	}
	for _, l := range logs {
		require.NoError(t, repo.Create(ctx, l))
	}

	all, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)
	require.Len(t, all.Logs, 3)
	assert.Equal(t, ActionDelete, all.Logs[0].Action)
	assert.Equal(t, ActionCreate, all.Logs[2].Action)

	devices, err := repo.List(ctx, Filter{EntityType: EntityDevice, EntityID: "a"})
	require.NoError(t, err)
	assert.Equal(t, 2, devices.Total)

	commands, err := repo.List(ctx, Filter{Action: ActionCommand})
	require.NoError(t, err)
	require.Len(t, commands.Logs, 1)
	assert.Equal(t, "r-1", commands.Logs[0].RequestID)

	page, err := repo.List(ctx, Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Logs, 1)
	assert.Equal(t, ActionCommand, page.Logs[0].Action)
}

func TestList_ClampsLimit(t *testing.T) {
	repo := newTestRepo(t)

	res, err := repo.List(context.Background(), Filter{Limit: 10000, Offset: -3})
	require.NoError(t, err)
	assert.Equal(t, maxLimit, res.Limit)
	assert.Equal(t, 0, res.Offset)
	assert.NotNil(t, res.Logs)
}
