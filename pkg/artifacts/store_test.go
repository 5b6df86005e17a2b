package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutList(t *testing.T) {
	ctx := context.Background()
	s, err := NewRunStore(t.TempDir(), "01J00000000000000000000000")
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "corpus/b/1.in", strings.NewReader("1 0\n1\n")))
	path, err := s.WriteBytes(ctx, "accuracy.csv", []byte("group,accuracy\n"))
	require.NoError(t, err)
	assert.Equal(t, s.Path("accuracy.csv"), path)
	_, err = s.WriteJSON(ctx, "corpus/a/1.json", map[string]int{"vertex_count": 1})
	require.NoError(t, err)

	body, err := os.ReadFile(s.Path("corpus/b/1.in"))
	require.NoError(t, err)
	assert.Equal(t, "1 0\n1\n", string(body))

	keys, err := s.List(ctx, "corpus")
	require.NoError(t, err)
	assert.Equal(t, []string{"corpus/a/1.json", "corpus/b/1.in"}, keys)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.WriteBytes(ctx, "summary.txt", []byte("first"))
	require.NoError(t, err)
	_, err = s.WriteBytes(ctx, "summary.txt", []byte("second"))
	require.NoError(t, err)

	b, err := os.ReadFile(s.Path("summary.txt"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(b))

	keys, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"summary.txt"}, keys, "no temp files are left behind")
}

func TestStore_Missing(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	keys, err := s.List(ctx, "nothing/here")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	_, err := NewStore(filepath.Join(dir, "run"))
	require.NoError(t, err)

	s, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir())

	_, err = Open(filepath.Join(dir, "missing"))
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "missing"))
	assert.True(t, os.IsNotExist(statErr), "Open never creates the directory")

	file, err := s.WriteBytes(context.Background(), "run/summary.json", []byte("{}"))
	require.NoError(t, err)
	_, err = Open(file)
	assert.Error(t, err)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "Несвязные графы", SafeName(" Несвязные графы "))
	assert.Equal(t, "a_b", SafeName("a/b"))
	assert.Equal(t, "_", SafeName(".."))
	assert.Equal(t, "_", SafeName(""))
}
