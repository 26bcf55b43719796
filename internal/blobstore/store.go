// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package blobstore is the filesystem-backed byte store for chapter text,
book covers, and generated reader artifacts (C2).

It owns no relational state: the Catalog Store records which chapters
exist and their status, while this package only ever reads and writes the
bytes a content_ref points at. Layout rooted at a configured data directory:

	books/<book_uuid>/cover.jpg
	books/<book_uuid>/chapters/<index:04d>.txt
	epubs/<sanitized_title>_<book_uuid[:8]>.epub
	txts/<sanitized_title>_<book_uuid[:8]>.txt
*/
package blobstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/qisumi/inkvault/pkg/slug"
)

// ErrMissing is returned by ReadChapter when content_ref no longer points
// at an existing file. Callers treat this as "must re-fetch".
var ErrMissing = errors.New("blobstore: content not found")

const (
	booksDirName  = "books"
	chaptersDir   = "chapters"
	coverFileName = "cover.jpg"
	epubsDirName  = "epubs"
	txtsDirName   = "txts"

	maxSanitizedLength = 100
	fallbackName       = "untitled"
)

// forbiddenFilenameChars are the characters §4.2 requires to be replaced
// with an underscore before a string is used as part of a path segment.
var forbiddenFilenameChars = []string{"<", ">", ":", `"`, "/", `\`, "|", "?", "*"}

// Store is the filesystem-backed blob store rooted at a configured
// data directory. It is safe for concurrent use: every write targets a
// distinct path and renames are not required since writes are whole-file.
type Store struct {
	booksDir string
	epubsDir string
	txtsDir  string
}

// Config describes the three root directories the store writes under.
type Config struct {
	BooksDir string
	EpubsDir string
	TxtsDir  string
}

// New constructs a [Store] and ensures its root directories exist.
func New(cfg Config) (*Store, error) {
	store := &Store{booksDir: cfg.BooksDir, epubsDir: cfg.EpubsDir, txtsDir: cfg.TxtsDir}
	for _, dir := range []string{store.booksDir, store.epubsDir, store.txtsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("blobstore: create root %s: %w", dir, err)
		}
	}
	return store, nil
}

// # Chapter Content

// WriteChapter persists chapter text at books/<bookUUID>/chapters/<index:04d>.txt
// and returns the content_ref identifying it. The write is idempotent by
// path: writing the same (bookUUID, index) pair again overwrites in place.
// The file is guaranteed to exist and be flushed to disk before return.
func (s *Store) WriteChapter(bookUUID string, index int, text string) (string, error) {
	dir := filepath.Join(s.booksDir, bookUUID, chaptersDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("blobstore: create chapter dir: %w", err)
	}

	ref := filepath.Join(dir, fmt.Sprintf("%04d.txt", index))
	if err := writeFileSynced(ref, []byte(normalizeLineEndings(text))); err != nil {
		return "", fmt.Errorf("blobstore: write chapter: %w", err)
	}
	return ref, nil
}

// ReadChapter reads the text at content_ref. It returns [ErrMissing] if
// the file no longer exists, which callers treat as "must re-fetch".
func (s *Store) ReadChapter(contentRef string) (string, error) {
	data, err := os.ReadFile(contentRef)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrMissing
		}
		return "", fmt.Errorf("blobstore: read chapter: %w", err)
	}
	return string(data), nil
}

// # Cover

// WriteCover persists a book's cover image and returns its path.
func (s *Store) WriteCover(bookUUID string, data []byte) (string, error) {
	dir := filepath.Join(s.booksDir, bookUUID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("blobstore: create book dir: %w", err)
	}
	ref := filepath.Join(dir, coverFileName)
	if err := writeFileSynced(ref, data); err != nil {
		return "", fmt.Errorf("blobstore: write cover: %w", err)
	}
	return ref, nil
}

// ReadCover reads a book's cover image, returning [ErrMissing] if absent.
func (s *Store) ReadCover(bookUUID string) ([]byte, error) {
	ref := filepath.Join(s.booksDir, bookUUID, coverFileName)
	data, err := os.ReadFile(ref)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMissing
		}
		return nil, fmt.Errorf("blobstore: read cover: %w", err)
	}
	return data, nil
}

// # Artifacts

// ArtifactPath returns the path a completed epub or txt artifact is (or
// will be) written to, derived from the book's title and UUID per §4.2's
// naming convention: <sanitized_title>_<book_uuid[:8]>.<ext>.
func (s *Store) ArtifactPath(kind string, bookUUID, title string) string {
	stem := fmt.Sprintf("%s_%s", SanitizeFilename(title), shortUUID(bookUUID))
	switch kind {
	case "epub":
		return filepath.Join(s.epubsDir, stem+".epub")
	case "txt":
		return filepath.Join(s.txtsDir, stem+".txt")
	default:
		return filepath.Join(s.epubsDir, stem)
	}
}

// WriteArtifact persists generated artifact bytes (an epub or composite
// txt) at path, flushing before return.
func (s *Store) WriteArtifact(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("blobstore: create artifact dir: %w", err)
	}
	if err := writeFileSynced(path, data); err != nil {
		return fmt.Errorf("blobstore: write artifact: %w", err)
	}
	return nil
}

// ArtifactExists reports whether a previously built artifact is present.
func (s *Store) ArtifactExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// OpenArtifact opens a completed artifact for streaming to an HTTP client.
// The caller must close the returned reader.
func (s *Store) OpenArtifact(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMissing
		}
		return nil, fmt.Errorf("blobstore: open artifact: %w", err)
	}
	return f, nil
}

// # Deletion

// DeleteBook removes the entire books/<bookUUID>/ subtree. Artifact files
// (epub/txt) are removed separately via [Store.DeleteArtifacts] since they
// live outside the book's own subtree.
func (s *Store) DeleteBook(bookUUID string) error {
	dir := filepath.Join(s.booksDir, bookUUID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("blobstore: delete book subtree: %w", err)
	}
	return nil
}

// DeleteArtifacts removes a book's generated epub and txt artifacts, if
// present. Missing files are not an error.
func (s *Store) DeleteArtifacts(bookUUID, title string) error {
	for _, kind := range []string{"epub", "txt"} {
		path := s.ArtifactPath(kind, bookUUID, title)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("blobstore: delete artifact %s: %w", path, err)
		}
	}
	return nil
}

// # Filename Sanitation

// SanitizeFilename applies the §4.2 sanitation rule: replace any of
// <>:"/\|?* with an underscore, trim leading/trailing dots and spaces, cap
// length at 100 codepoints, and fall back to "untitled" if the result is
// empty. When replacement and trimming leave nothing, [slug.From] of the
// original name is tried before that fallback; otherwise no slugging or
// accent folding is applied.
func SanitizeFilename(name string) string {
	sanitized := name
	for _, ch := range forbiddenFilenameChars {
		sanitized = strings.ReplaceAll(sanitized, ch, "_")
	}
	sanitized = strings.Trim(sanitized, ". ")

	if sanitized == "" {
		sanitized = slug.From(name)
	}
	if sanitized == "" {
		return fallbackName
	}

	runes := []rune(sanitized)
	if len(runes) > maxSanitizedLength {
		runes = runes[:maxSanitizedLength]
	}
	result := strings.Trim(string(runes), ". ")
	if result == "" {
		return fallbackName
	}
	return result
}

// shortUUID returns the first 8 characters of a UUID string, or the whole
// string if it is shorter.
func shortUUID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// writeFileSynced writes data to path and calls Sync before closing,
// guaranteeing the bytes are durable before the function returns.
func writeFileSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// normalizeLineEndings converts CRLF/CR sequences to LF per §4.2's
// UTF-8/LF-separated chapter text requirement.
func normalizeLineEndings(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text
}
