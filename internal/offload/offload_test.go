package offload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Flow/internal/apperr"
	"Flow/internal/model"
)

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func newPolicy(t *testing.T, opts ...Option) *Policy {
	t.Helper()
	p, err := New(filepath.Join(t.TempDir(), "files"), opts...)
	require.NoError(t, err)
	return p
}

func TestStore_ThresholdSplit(t *testing.T) {
	p := newPolicy(t)

	for _, n := range []int{0, 1, 512, 1024} {
		b, err := p.Store(model.KindNote, 1, 2, strings.Repeat("a", n))
		require.NoError(t, err)
		assert.NotNil(t, b.Inline, "len %d must stay inline", n)
		assert.Nil(t, b.Path)
	}
	for _, n := range []int{1025, 4096} {
		b, err := p.Store(model.KindNote, 1, 2, strings.Repeat("a", n))
		require.NoError(t, err)
		assert.Nil(t, b.Inline, "len %d must go to file", n)
		assert.NotNil(t, b.Path)
	}
}

func TestStore_CountsCharactersNotBytes(t *testing.T) {
	p := newPolicy(t)
	// 1024 символа по 2 байта - всё ещё в строке
	b, err := p.Store(model.KindNote, 1, 1, strings.Repeat("ж", 1024))
	require.NoError(t, err)
	assert.NotNil(t, b.Inline)
}

func TestStoreLoad_RoundTrip(t *testing.T) {
	p := newPolicy(t)
	bodies := []string{
		"",
		"short\nbody",
		strings.Repeat("line of text\n", 200),
		strings.Repeat("ü", 1025),
	}
	for _, body := range bodies {
		b, err := p.Store(model.KindTask, 7, 9, body)
		require.NoError(t, err)
		got, err := p.Load(b.Inline, b.Path)
		require.NoError(t, err)
		assert.Equal(t, body, got)
	}
}

func TestStore_FileNameScheme(t *testing.T) {
	ts := time.UnixMilli(1700000000123)
	p := newPolicy(t, WithClock(fixedClock(ts)))

	b, err := p.Store(model.KindTask, 3, 42, strings.Repeat("x", 2000))
	require.NoError(t, err)
	require.NotNil(t, b.Path)
	assert.Equal(t, "task-3-42-1700000000123.txt", *b.Path)

	_, err = os.Stat(filepath.Join(p.Root(), *b.Path))
	assert.NoError(t, err)
}

func TestStore_SameMillisecondDoesNotCollide(t *testing.T) {
	ts := time.UnixMilli(1700000000000)
	p := newPolicy(t, WithClock(fixedClock(ts)))

	b1, err := p.Store(model.KindNote, 1, 0, strings.Repeat("1", 1500))
	require.NoError(t, err)
	b2, err := p.Store(model.KindNote, 1, 0, strings.Repeat("2", 1500))
	require.NoError(t, err)

	assert.NotEqual(t, *b1.Path, *b2.Path)
	got1, _ := p.Load(nil, b1.Path)
	got2, _ := p.Load(nil, b2.Path)
	assert.Equal(t, strings.Repeat("1", 1500), got1)
	assert.Equal(t, strings.Repeat("2", 1500), got2)
}

func TestLoad_MissingFileIsNotFound(t *testing.T) {
	p := newPolicy(t)
	missing := "note-1-1-1.txt"
	_, err := p.Load(nil, &missing)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLoad_EmptyItem(t *testing.T) {
	p := newPolicy(t)
	got, err := p.LoadItem(&model.Item{})
	assert.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestRemove(t *testing.T) {
	p := newPolicy(t)
	b, err := p.Store(model.KindNote, 1, 1, strings.Repeat("z", 1100))
	require.NoError(t, err)

	assert.NoError(t, p.Remove(*b.Path))
	_, err = p.Load(nil, b.Path)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// повторное удаление и пустой путь - без ошибки
	assert.NoError(t, p.Remove(*b.Path))
	assert.NoError(t, p.Remove(""))
}

func TestNew_Errors(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "not_a_dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	_, err = New(filepath.Join(file, "sub"))
	assert.Error(t, err)
}

func TestWithThreshold(t *testing.T) {
	p := newPolicy(t, WithThreshold(4))
	assert.Equal(t, 4, p.Threshold())
	b, err := p.Store(model.KindNote, 1, 1, "12345")
	require.NoError(t, err)
	assert.NotNil(t, b.Path)
}
