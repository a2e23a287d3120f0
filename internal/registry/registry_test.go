package registry

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lberrors "github.com/systmms/lockbox/internal/errors"
	"github.com/systmms/lockbox/internal/keystore"
	"github.com/systmms/lockbox/internal/logging"
	"github.com/systmms/lockbox/internal/metafile"
	"github.com/systmms/lockbox/internal/secret"
)

// flakyFile wraps the real metadata store so tests can force the next
// save to fail and exercise the rollback path.
type flakyFile struct {
	*metafile.Store
	failNextSave bool
}

func (f *flakyFile) Save(entries []secret.Metadata) error {
	if f.failNextSave {
		f.failNextSave = false
		return &lberrors.PersistError{Path: f.Path(), Err: errors.New("disk full")}
	}
	return f.Store.Save(entries)
}

type fixture struct {
	registry *Registry
	values   *keystore.MemoryStore
	file     *flakyFile
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := logging.New(false, true)
	values := keystore.NewMemory()
	file := &flakyFile{Store: metafile.NewStore(t.TempDir(), logger)}

	reg, err := New(values, file, logger)
	require.NoError(t, err)

	return &fixture{registry: reg, values: values, file: file}
}

func (f *fixture) mustCreate(t *testing.T, id, title, value string, category secret.Category) secret.Secret {
	t.Helper()
	created, err := f.registry.Create(context.Background(), secret.Secret{
		ID:       id,
		Title:    title,
		Value:    value,
		Category: category,
	})
	require.NoError(t, err)
	return created
}

// requireConverged asserts that a fresh load of the metadata file equals
// the in-memory registry state exactly.
func requireConverged(t *testing.T, f *fixture) {
	t.Helper()
	onDisk, err := f.file.Load()
	require.NoError(t, err)
	inMemory := f.registry.Snapshot()
	if len(onDisk) == 0 && len(inMemory) == 0 {
		return
	}
	require.Equal(t, len(inMemory), len(onDisk))
	for i := range inMemory {
		assert.Equal(t, inMemory[i].ID, onDisk[i].ID)
		assert.Equal(t, inMemory[i].Title, onDisk[i].Title)
		assert.Equal(t, inMemory[i].Category, onDisk[i].Category)
		assert.Equal(t, inMemory[i].Notes, onDisk[i].Notes)
		assert.True(t, inMemory[i].CreatedAt.Equal(onDisk[i].CreatedAt))
		assert.True(t, inMemory[i].UpdatedAt.Equal(onDisk[i].UpdatedAt))
	}
}

func TestRegistry_SeededFromFile(t *testing.T) {
	t.Parallel()

	logger := logging.New(false, true)
	dir := t.TempDir()
	file := metafile.NewStore(dir, logger)
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, file.Save([]secret.Metadata{
		{ID: "s1", Title: "Email", Category: secret.CategoryPassword, CreatedAt: now, UpdatedAt: now},
	}))

	reg, err := New(keystore.NewMemory(), file, logger)
	require.NoError(t, err)

	entries := reg.Snapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, "s1", entries[0].ID)
}

func TestRegistry_CreateListUpdateDelete(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	// create
	created := f.mustCreate(t, "s1", "Email", "p@ss", secret.CategoryPassword)
	assert.Equal(t, "p@ss", created.Value)
	assert.False(t, created.CreatedAt.IsZero())
	requireConverged(t, f)

	secrets, err := f.registry.List(ctx)
	require.NoError(t, err)
	require.Len(t, secrets, 1)
	assert.Equal(t, "p@ss", secrets[0].Value)

	// update notes only; value must be preserved
	notes := "updated"
	updated, err := f.registry.UpdateSecret(ctx, "s1", Update{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "updated", updated.Notes)
	assert.Equal(t, "p@ss", updated.Value)
	requireConverged(t, f)

	secrets, err = f.registry.List(ctx)
	require.NoError(t, err)
	require.Len(t, secrets, 1)
	assert.Equal(t, "p@ss", secrets[0].Value)
	assert.Equal(t, "updated", secrets[0].Notes)

	// delete
	_, err = f.registry.Delete(ctx, "s1")
	require.NoError(t, err)
	requireConverged(t, f)

	secrets, err = f.registry.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, secrets)

	_, err = f.values.Get(ctx, "s1")
	assert.ErrorIs(t, err, lberrors.ErrValueNotFound)
}

func TestRegistry_Create_DuplicateIDRejectedWithoutSideEffects(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, "s1", "Email", "p@ss", secret.CategoryPassword)

	_, err := f.registry.Create(ctx, secret.Secret{
		ID: "s1", Title: "Other", Value: "other", Category: secret.CategoryToken,
	})

	var conflict *lberrors.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "s1", conflict.ID)

	// Original value untouched.
	value, err := f.values.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "p@ss", value)
	requireConverged(t, f)
}

func TestRegistry_Create_RollsBackOnPersistFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, "s1", "Email", "p@ss", secret.CategoryPassword)
	before := f.registry.Snapshot()

	f.file.failNextSave = true
	_, err := f.registry.Create(ctx, secret.Secret{
		ID: "s2", Title: "Token", Value: "tok", Category: secret.CategoryToken,
	})

	var persist *lberrors.PersistError
	require.ErrorAs(t, err, &persist)

	// The value written during the failed create is gone again.
	_, getErr := f.values.Get(ctx, "s2")
	assert.ErrorIs(t, getErr, lberrors.ErrValueNotFound)

	// In-memory state equals the pre-operation state.
	assert.Equal(t, before, f.registry.Snapshot())
	requireConverged(t, f)
}

func TestRegistry_Update_RollsBackValueAndMetadata(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, "s1", "Email", "p@ss", secret.CategoryPassword)
	before := f.registry.Snapshot()

	newValue := "n3w"
	newTitle := "Mail"
	f.file.failNextSave = true
	_, err := f.registry.UpdateSecret(ctx, "s1", Update{Title: &newTitle, Value: &newValue})

	var persist *lberrors.PersistError
	require.ErrorAs(t, err, &persist)

	// Prior value restored in the secure store.
	value, getErr := f.values.Get(ctx, "s1")
	require.NoError(t, getErr)
	assert.Equal(t, "p@ss", value)

	assert.Equal(t, before, f.registry.Snapshot())
	requireConverged(t, f)
}

func TestRegistry_Delete_RollsBackOnPersistFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, "s1", "Email", "p@ss", secret.CategoryPassword)
	before := f.registry.Snapshot()

	f.file.failNextSave = true
	_, err := f.registry.Delete(ctx, "s1")

	var persist *lberrors.PersistError
	require.ErrorAs(t, err, &persist)

	// The deleted value was restored.
	value, getErr := f.values.Get(ctx, "s1")
	require.NoError(t, getErr)
	assert.Equal(t, "p@ss", value)

	assert.Equal(t, before, f.registry.Snapshot())
	requireConverged(t, f)
}

func TestRegistry_Delete_UnknownIDLeavesFileUntouched(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.mustCreate(t, "s1", "Email", "p@ss", secret.CategoryPassword)

	bytesBefore, err := os.ReadFile(f.file.Path())
	require.NoError(t, err)

	_, err = f.registry.Delete(context.Background(), "nope")
	var notFound *lberrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nope", notFound.ID)

	bytesAfter, err := os.ReadFile(f.file.Path())
	require.NoError(t, err)
	assert.Equal(t, bytesBefore, bytesAfter, "file must be byte-for-byte unchanged")
}

func TestRegistry_Update_PartialPreservesOmittedFields(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, "a", "T", "v", secret.CategoryPassword)

	newTitle := "T2"
	updated, err := f.registry.UpdateSecret(ctx, "a", Update{Title: &newTitle})
	require.NoError(t, err)

	assert.Equal(t, "T2", updated.Title)
	assert.Equal(t, "v", updated.Value)
	assert.Equal(t, secret.CategoryPassword, updated.Category)
	requireConverged(t, f)
}

func TestRegistry_Update_EmptyValueRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, "s1", "Email", "p@ss", secret.CategoryPassword)

	empty := ""
	_, err := f.registry.UpdateSecret(ctx, "s1", Update{Value: &empty})

	var validation *lberrors.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "value", validation.Field)

	// Nothing changed in either store.
	value, getErr := f.values.Get(ctx, "s1")
	require.NoError(t, getErr)
	assert.Equal(t, "p@ss", value)
	requireConverged(t, f)
}

func TestRegistry_Update_NotesCanBeCleared(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, "s1", "Email", "p@ss", secret.CategoryPassword)

	notes := "temporary"
	_, err := f.registry.UpdateSecret(ctx, "s1", Update{Notes: &notes})
	require.NoError(t, err)

	cleared := ""
	updated, err := f.registry.UpdateSecret(ctx, "s1", Update{Notes: &cleared})
	require.NoError(t, err)
	assert.Equal(t, "", updated.Notes)
	requireConverged(t, f)
}

func TestRegistry_Update_UnknownIDReturnsNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	title := "x"
	_, err := f.registry.UpdateSecret(context.Background(), "ghost", Update{Title: &title})

	var notFound *lberrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestRegistry_List_PreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	ids := []string{"c", "a", "b"}
	for _, id := range ids {
		f.mustCreate(t, id, "Title "+id, "v-"+id, secret.CategoryNote)
	}

	secrets, err := f.registry.List(ctx)
	require.NoError(t, err)
	require.Len(t, secrets, 3)
	for i, id := range ids {
		assert.Equal(t, id, secrets[i].ID)
		assert.Equal(t, "v-"+id, secrets[i].Value)
	}
}

func TestRegistry_UpdatedAtNeverMovesBackwards(t *testing.T) {
	t.Parallel()

	times := []time.Time{
		time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC), // clock stepped back
	}
	idx := 0
	clock := func() time.Time {
		ts := times[idx]
		if idx < len(times)-1 {
			idx++
		}
		return ts
	}

	logger := logging.New(false, true)
	file := metafile.NewStore(t.TempDir(), logger)
	reg, err := New(keystore.NewMemory(), file, logger, WithClock(clock))
	require.NoError(t, err)

	ctx := context.Background()
	created, err := reg.Create(ctx, secret.Secret{
		ID: "s1", Title: "Email", Value: "p@ss", Category: secret.CategoryPassword,
	})
	require.NoError(t, err)

	notes := "later"
	updated, err := reg.UpdateSecret(ctx, "s1", Update{Notes: &notes})
	require.NoError(t, err)

	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
}

func TestRegistry_RestartSeesCommittedState(t *testing.T) {
	t.Parallel()

	logger := logging.New(false, true)
	dir := t.TempDir()
	values := keystore.NewMemory()

	reg, err := New(values, metafile.NewStore(dir, logger), logger)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = reg.Create(ctx, secret.Secret{
		ID: "s1", Title: "Email", Value: "p@ss", Category: secret.CategoryPassword,
	})
	require.NoError(t, err)

	// Simulate a restart: new registry over the same file and values.
	reopened, err := New(values, metafile.NewStore(dir, logger), logger)
	require.NoError(t, err)

	secrets, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, secrets, 1)
	assert.Equal(t, "s1", secrets[0].ID)
	assert.Equal(t, "p@ss", secrets[0].Value)
}
