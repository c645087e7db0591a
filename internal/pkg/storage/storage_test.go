package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cmlabs-hris/timeclock/internal/domain/snapshot"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_WriteReadDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "a/b.json", strings.NewReader("one")))
	require.NoError(t, s.Write(ctx, "a/b.json", strings.NewReader("two")))

	rc, err := s.Read(ctx, "a/b.json")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "two", string(data))

	ok, err := s.Exists(ctx, "a/b.json")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, "a/b.json"))
	require.NoError(t, s.Delete(ctx, "a/b.json"), "deleting twice is fine")

	_, err = s.Read(ctx, "a/b.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_StaysInsideBase(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(dir, "base"))
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), "../../escape.json", strings.NewReader("x")))

	_, err = os.Stat(filepath.Join(dir, "escape.json"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "base", "escape.json"))
	assert.NoError(t, err)
}

func TestSnapshotStore(t *testing.T) {
	files, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	store := NewSnapshotStore(files)
	ctx := context.Background()

	id, err := store.Create(ctx, "", []byte(`{"version":1}`), "first push")
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err, "new targets are named with a uuid")

	require.NoError(t, store.Update(ctx, "", id, []byte(`{"version":1,"branches":[]}`), "second push"))

	content, err := store.Read(ctx, "", id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"branches":[]}`, string(content))

	err = store.Update(ctx, "", uuid.NewString(), []byte(`{}`), "d")
	assert.ErrorIs(t, err, snapshot.ErrTargetNotFound)

	_, err = store.Read(ctx, "", uuid.NewString())
	assert.ErrorIs(t, err, snapshot.ErrTargetNotFound)

	_, err = store.Read(ctx, "", "../etc/passwd")
	assert.ErrorIs(t, err, snapshot.ErrTargetNotFound)
}
