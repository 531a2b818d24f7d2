package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LibSQLRegistryStore {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "registries.db")
	s, err := NewLibSQLRegistryStore("file:" + dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() {
		_ = s.Close()
		_ = os.RemoveAll(dir)
	})
	return s
}

func TestRegistryStore_ImplementsInterface(t *testing.T) {
	var _ RegistryStore = (*LibSQLRegistryStore)(nil)
}

func TestRegistryStore_EmptySnapshot(t *testing.T) {
	s := newTestStore(t)
	reg, err := s.LoadRegistries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reg.ErrorCodes)
	assert.Empty(t, reg.Schemas)
	assert.Empty(t, reg.Models)
}

func TestRegistryStore_PutAndLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutErrorCode(ctx, "PAYMENT_DECLINED", "card issuer declined"))
	require.NoError(t, s.PutSchema(ctx, "orders"))
	require.NoError(t, s.PutModel(ctx, "gpt-smallish"))

	reg, err := s.LoadRegistries(ctx)
	require.NoError(t, err)
	assert.True(t, reg.HasErrorCode("PAYMENT_DECLINED"))
	assert.True(t, reg.HasSchema("orders"))
	assert.True(t, reg.HasModel("gpt-smallish"))
	assert.False(t, reg.HasErrorCode("GHOST"))
}

func TestRegistryStore_PutIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutSchema(ctx, "orders"))
	require.NoError(t, s.PutSchema(ctx, "orders"))
	require.NoError(t, s.PutErrorCode(ctx, "X", "first"))
	require.NoError(t, s.PutErrorCode(ctx, "X", "second"))

	reg, err := s.LoadRegistries(ctx)
	require.NoError(t, err)
	assert.Len(t, reg.Schemas, 1)
	assert.Len(t, reg.ErrorCodes, 1)
}

func TestRegistryStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutModel(ctx, "m"))
	require.NoError(t, s.DeleteModel(ctx, "m"))
	require.NoError(t, s.PutErrorCode(ctx, "C", ""))
	require.NoError(t, s.DeleteErrorCode(ctx, "C"))
	require.NoError(t, s.PutSchema(ctx, "s"))
	require.NoError(t, s.DeleteSchema(ctx, "s"))

	reg, err := s.LoadRegistries(ctx)
	require.NoError(t, err)
	assert.Empty(t, reg.Models)
	assert.Empty(t, reg.ErrorCodes)
	assert.Empty(t, reg.Schemas)
}

func TestRegistryStore_SnapshotIsDetached(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	reg, err := s.LoadRegistries(ctx)
	require.NoError(t, err)

	require.NoError(t, s.PutModel(ctx, "late"))
	assert.False(t, reg.HasModel("late"), "snapshot must not see later writes")
}

func TestRegistryStore_MigrateTwice(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Migrate(context.Background()))
}
