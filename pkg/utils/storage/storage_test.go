package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Q3 Memo (final).PDF", "q3-memo-final.pdf"},
		{"../../etc/passwd", "passwd"},
		{"deal.md", "deal.md"},
		{"().txt", "document.txt"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeName(tt.in), tt.in)
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "uploads/abc/memo.pdf", UploadKey("abc", "Memo.pdf"))

	pid := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	did := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	assert.Equal(t,
		"properties/11111111-1111-1111-1111-111111111111/documents/22222222-2222-2222-2222-222222222222/offering-memo.html",
		DocumentKey(pid, did, "Offering Memo.html"))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	require.NoError(t, store.Put(ctx, "a", []byte("hello"), "text/plain"))
	body, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, []string{"a"}, store.Keys())

	require.NoError(t, store.Delete(ctx, "a"))
	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
