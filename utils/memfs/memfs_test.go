package memfs

import (
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteAtGrowsAndOverwrites(t *testing.T) {
	t.Parallel()

	m := New()
	f, err := m.Create("a.avi")
	require.NoError(t, err)

	n, err := f.WriteAt([]byte("Hello "), 0)
	require.NoError(t, err)
	require.Equal(t, 6, n)
	_, err = f.WriteAt([]byte("World!"), 6)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("Go"), 6)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("!"), 14)
	require.NoError(t, err)

	b, err := m.ReadFile("a.avi")
	require.NoError(t, err)
	require.Equal(t, "Hello Gorld!\x00\x00!", string(b))
	require.NoError(t, f.Close())
	require.Error(t, f.Close())
}

func TestReadAt(t *testing.T) {
	t.Parallel()

	m := New()
	m.WriteFile("x", []byte("0123456789"))
	f, err := m.Open("x")
	require.NoError(t, err)
	defer f.Close()

	p := make([]byte, 4)
	n, err := f.ReadAt(p, 3)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, "3456", string(p))

	n, err = f.ReadAt(p, 8)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 2, n)

	_, err = f.WriteAt([]byte("z"), 0)
	require.Error(t, err)
}

func TestOpenRemove(t *testing.T) {
	t.Parallel()

	m := New()
	_, err := m.Open("missing")
	require.ErrorIs(t, err, fs.ErrNotExist)

	_, err = m.Create("b")
	require.NoError(t, err)
	m.WriteFile("a", nil)
	require.Equal(t, []string{"a", "b"}, m.Paths())
	require.NoError(t, m.Remove("b"))
	require.False(t, m.Exists("b"))
	require.ErrorIs(t, m.Remove("b"), fs.ErrNotExist)
}

func TestWriteLimit(t *testing.T) {
	t.Parallel()

	m := New()
	m.SetWriteLimit(8)
	f, err := m.Create("c")
	require.NoError(t, err)
	_, err = f.WriteAt(make([]byte, 8), 0)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{1}, 8)
	require.Error(t, err)
}
