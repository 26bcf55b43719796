// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blobstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qisumi/inkvault/internal/blobstore"
)

func newTestStore(t *testing.T) *blobstore.Store {
	t.Helper()
	root := t.TempDir()
	store, err := blobstore.New(blobstore.Config{
		BooksDir: filepath.Join(root, "books"),
		EpubsDir: filepath.Join(root, "epubs"),
		TxtsDir:  filepath.Join(root, "txts"),
	})
	require.NoError(t, err)
	return store
}

func TestStore_WriteReadChapter(t *testing.T) {
	store := newTestStore(t)

	ref, err := store.WriteChapter("book-1", 3, "hello\r\nworld")
	require.NoError(t, err)
	assert.Contains(t, ref, filepath.Join("book-1", "chapters", "0003.txt"))

	text, err := store.ReadChapter(ref)
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", text)
}

func TestStore_WriteChapter_Idempotent(t *testing.T) {
	store := newTestStore(t)

	ref1, err := store.WriteChapter("book-1", 0, "first draft")
	require.NoError(t, err)

	ref2, err := store.WriteChapter("book-1", 0, "final draft")
	require.NoError(t, err)

	assert.Equal(t, ref1, ref2)

	text, err := store.ReadChapter(ref2)
	require.NoError(t, err)
	assert.Equal(t, "final draft", text)
}

func TestStore_ReadChapter_Missing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ReadChapter("/nowhere/nothing.txt")
	assert.ErrorIs(t, err, blobstore.ErrMissing)
}

func TestStore_DeleteBook(t *testing.T) {
	store := newTestStore(t)

	ref, err := store.WriteChapter("book-2", 0, "text")
	require.NoError(t, err)

	require.NoError(t, store.DeleteBook("book-2"))

	_, err = store.ReadChapter(ref)
	assert.ErrorIs(t, err, blobstore.ErrMissing)
}

func TestStore_ArtifactLifecycle(t *testing.T) {
	store := newTestStore(t)

	path := store.ArtifactPath("epub", "0123456789abcdef", "My Book!")
	assert.False(t, store.ArtifactExists(path))

	require.NoError(t, store.WriteArtifact(path, []byte("epub bytes")))
	assert.True(t, store.ArtifactExists(path))

	reader, err := store.OpenArtifact(path)
	require.NoError(t, err)
	defer reader.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "epub bytes", string(data))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "My Book", "My Book"},
		{"forbidden_chars", `a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"trim_dots_spaces", "  ..title..  ", "title"},
		{"empty_falls_back", "", "untitled"},
		{"only_forbidden", "///", "___"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, blobstore.SanitizeFilename(tt.input))
		})
	}
}

func TestSanitizeFilename_CapsLength(t *testing.T) {
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	result := blobstore.SanitizeFilename(string(long))
	assert.LessOrEqual(t, len([]rune(result)), 100)
}
