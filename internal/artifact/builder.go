// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package artifact is the Artifact Builder (C9): a pure function from a
Book, its ordered completed Chapters, and a chapter-body reader to a file
in the Blob Store. It produces a conforming EPUB3 archive or a header-free
TXT composite, and owns the small in-process queue that coalesces repeated
build requests for the same book.

Grounded on jackzampolin-shelf's internal/epub/builder.go: the same
archive/zip layout (mimetype stored first, META-INF/container.xml,
content.opf, nav.xhtml, toc.ncx, stylesheet, per-chapter XHTML), adapted
from a generic document-archive builder to this package's Book+Chapter
model.
*/
package artifact

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/qisumi/inkvault/internal/catalog"
)

// ChapterBody resolves the persisted text for one chapter.
type ChapterBody struct {
	Chapter *catalog.Chapter
	Text    string
}

// Metadata carries the editorial fields an EPUB needs beyond what
// [catalog.Book] stores.
type Metadata struct {
	Language  string
	Publisher string
}

// EPUBBuilder assembles an EPUB3 archive for one book.
type EPUBBuilder struct {
	book     *catalog.Book
	chapters []ChapterBody
	meta     Metadata
	cover    []byte
}

// NewEPUBBuilder constructs a builder for book over its ordered, completed
// chapters. cover may be nil when the book has no stored cover image.
func NewEPUBBuilder(book *catalog.Book, chapters []ChapterBody, meta Metadata, cover []byte) *EPUBBuilder {
	return &EPUBBuilder{book: book, chapters: chapters, meta: meta, cover: cover}
}

// WriteTo writes the EPUB archive to w.
func (b *EPUBBuilder) WriteTo(w io.Writer) error {
	zw := zip.NewWriter(w)
	defer zw.Close()

	if err := b.writeMimetype(zw); err != nil {
		return err
	}
	if err := b.writeContainer(zw); err != nil {
		return err
	}
	if b.cover != nil {
		if err := b.writeCover(zw); err != nil {
			return err
		}
	}
	if err := b.writePackage(zw); err != nil {
		return err
	}
	if err := b.writeNavigation(zw); err != nil {
		return err
	}
	if err := b.writeNCX(zw); err != nil {
		return err
	}
	if err := b.writeStylesheet(zw); err != nil {
		return err
	}
	for i, ch := range b.chapters {
		if err := b.writeChapter(zw, i, ch); err != nil {
			return fmt.Errorf("artifact: write chapter %d: %w", ch.Chapter.ChapterIndex, err)
		}
	}
	return nil
}

// Build assembles the EPUB and returns its bytes.
func (b *EPUBBuilder) Build() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := b.WriteTo(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (b *EPUBBuilder) writeMimetype(zw *zip.Writer) error {
	header := &zip.FileHeader{Name: "mimetype", Method: zip.Store}
	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("artifact: create mimetype: %w", err)
	}
	_, err = w.Write([]byte("application/epub+zip"))
	return err
}

func (b *EPUBBuilder) writeContainer(zw *zip.Writer) error {
	const content = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`
	w, err := zw.Create("META-INF/container.xml")
	if err != nil {
		return fmt.Errorf("artifact: create container.xml: %w", err)
	}
	_, err = w.Write([]byte(content))
	return err
}

func (b *EPUBBuilder) writeCover(zw *zip.Writer) error {
	w, err := zw.Create("OEBPS/cover.jpg")
	if err != nil {
		return fmt.Errorf("artifact: create cover: %w", err)
	}
	_, err = w.Write(b.cover)
	return err
}

func (b *EPUBBuilder) writePackage(zw *zip.Writer) error {
	w, err := zw.Create("OEBPS/content.opf")
	if err != nil {
		return fmt.Errorf("artifact: create content.opf: %w", err)
	}
	_, err = w.Write([]byte(b.generatePackage()))
	return err
}

func (b *EPUBBuilder) writeNavigation(zw *zip.Writer) error {
	w, err := zw.Create("OEBPS/nav.xhtml")
	if err != nil {
		return fmt.Errorf("artifact: create nav.xhtml: %w", err)
	}
	_, err = w.Write([]byte(b.generateNavigation()))
	return err
}

func (b *EPUBBuilder) writeNCX(zw *zip.Writer) error {
	w, err := zw.Create("OEBPS/toc.ncx")
	if err != nil {
		return fmt.Errorf("artifact: create toc.ncx: %w", err)
	}
	_, err = w.Write([]byte(b.generateNCX()))
	return err
}

func (b *EPUBBuilder) writeStylesheet(zw *zip.Writer) error {
	w, err := zw.Create("OEBPS/styles/style.css")
	if err != nil {
		return fmt.Errorf("artifact: create style.css: %w", err)
	}
	_, err = w.Write([]byte(defaultStylesheet))
	return err
}

func (b *EPUBBuilder) writeChapter(zw *zip.Writer, index int, ch ChapterBody) error {
	filename := fmt.Sprintf("OEBPS/chapters/%04d.xhtml", index)
	w, err := zw.Create(filename)
	if err != nil {
		return fmt.Errorf("artifact: create %s: %w", filename, err)
	}
	_, err = w.Write([]byte(b.generateChapterXHTML(ch)))
	return err
}

// chapterHREF returns the nav/spine-relative path for a chapter by its
// position within the archive (not its catalog ChapterIndex, which may
// have gaps).
func chapterHREF(position int) string {
	return fmt.Sprintf("chapters/%04d.xhtml", position)
}

func (b *EPUBBuilder) bookUUID() string {
	if b.book.ID != "" {
		return "urn:uuid:" + b.book.ID
	}
	return "urn:uuid:" + uuid.New().String()
}
