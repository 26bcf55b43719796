// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package artifact

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// generatePackage builds the content.opf package document.
func (b *EPUBBuilder) generatePackage() string {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="pub-id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
`)
	sb.WriteString(fmt.Sprintf("    <dc:identifier id=\"pub-id\">%s</dc:identifier>\n", b.bookUUID()))
	sb.WriteString(fmt.Sprintf("    <dc:title>%s</dc:title>\n", escapeXML(b.book.Title)))
	if b.book.Author != "" {
		sb.WriteString(fmt.Sprintf("    <dc:creator>%s</dc:creator>\n", escapeXML(b.book.Author)))
	}

	lang := b.meta.Language
	if lang == "" {
		lang = "en"
	}
	sb.WriteString(fmt.Sprintf("    <dc:language>%s</dc:language>\n", lang))

	if b.meta.Publisher != "" {
		sb.WriteString(fmt.Sprintf("    <dc:publisher>%s</dc:publisher>\n", escapeXML(b.meta.Publisher)))
	}

	sb.WriteString(fmt.Sprintf("    <meta property=\"dcterms:modified\">%s</meta>\n",
		time.Now().UTC().Format("2006-01-02T15:04:05Z")))
	sb.WriteString("  </metadata>\n\n")

	sb.WriteString("  <manifest>\n")
	sb.WriteString("    <item id=\"nav\" href=\"nav.xhtml\" media-type=\"application/xhtml+xml\" properties=\"nav\"/>\n")
	sb.WriteString("    <item id=\"ncx\" href=\"toc.ncx\" media-type=\"application/x-dtbncx+xml\"/>\n")
	sb.WriteString("    <item id=\"style\" href=\"styles/style.css\" media-type=\"text/css\"/>\n")
	if b.cover != nil {
		sb.WriteString("    <item id=\"cover-image\" href=\"cover.jpg\" media-type=\"image/jpeg\" properties=\"cover-image\"/>\n")
	}
	for i := range b.chapters {
		sb.WriteString(fmt.Sprintf("    <item id=\"chap%04d\" href=\"%s\" media-type=\"application/xhtml+xml\"/>\n",
			i, chapterHREF(i)))
	}
	sb.WriteString("  </manifest>\n\n")

	sb.WriteString("  <spine toc=\"ncx\">\n")
	for i := range b.chapters {
		sb.WriteString(fmt.Sprintf("    <itemref idref=\"chap%04d\"/>\n", i))
	}
	sb.WriteString("  </spine>\n")
	sb.WriteString("</package>\n")

	return sb.String()
}

// generateNavigation builds the nav.xhtml navigation document, grouping
// chapters under their volume when the source set one.
func (b *EPUBBuilder) generateNavigation() string {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head>
  <title>Table of Contents</title>
  <link rel="stylesheet" type="text/css" href="styles/style.css"/>
</head>
<body>
  <nav epub:type="toc" id="toc">
    <h1>Table of Contents</h1>
    <ol>
`)

	var currentVolume string
	inVolume := false
	for i, ch := range b.chapters {
		volume := ""
		if ch.Chapter.VolumeName != nil {
			volume = *ch.Chapter.VolumeName
		}
		if volume != currentVolume {
			if inVolume {
				sb.WriteString("      </ol></li>\n")
			}
			if volume != "" {
				sb.WriteString(fmt.Sprintf("      <li>%s\n      <ol>\n", escapeXML(volume)))
				inVolume = true
			} else {
				inVolume = false
			}
			currentVolume = volume
		}
		sb.WriteString(fmt.Sprintf("      <li><a href=\"%s\">%s</a></li>\n", chapterHREF(i), escapeXML(ch.Chapter.Title)))
	}
	if inVolume {
		sb.WriteString("      </ol></li>\n")
	}

	sb.WriteString(`    </ol>
  </nav>
</body>
</html>
`)
	return sb.String()
}

// generateNCX builds toc.ncx for ePub 2 reader compatibility.
func (b *EPUBBuilder) generateNCX() string {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head>
    <meta name="dtb:uid" content="`)
	sb.WriteString(b.bookUUID())
	sb.WriteString(`"/>
    <meta name="dtb:depth" content="1"/>
  </head>
  <docTitle>
    <text>`)
	sb.WriteString(escapeXML(b.book.Title))
	sb.WriteString(`</text>
  </docTitle>
  <navMap>
`)
	for i, ch := range b.chapters {
		sb.WriteString(fmt.Sprintf("    <navPoint id=\"navpoint-%d\" playOrder=\"%d\">\n", i+1, i+1))
		sb.WriteString(fmt.Sprintf("      <navLabel><text>%s</text></navLabel>\n", escapeXML(ch.Chapter.Title)))
		sb.WriteString(fmt.Sprintf("      <content src=\"%s\"/>\n", chapterHREF(i)))
		sb.WriteString("    </navPoint>\n")
	}
	sb.WriteString(`  </navMap>
</ncx>
`)
	return sb.String()
}

// generateChapterXHTML renders one chapter's body as paragraph-wrapped
// XHTML, matching the §4.7 html-format rendering rule: each non-empty line
// becomes its own escaped <p>, blank lines become <p>&nbsp;</p>.
func (b *EPUBBuilder) generateChapterXHTML(ch ChapterBody) string {
	var sb strings.Builder

	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <title>`)
	sb.WriteString(escapeXML(ch.Chapter.Title))
	sb.WriteString(`</title>
  <link rel="stylesheet" type="text/css" href="../styles/style.css"/>
</head>
<body>
`)
	sb.WriteString(fmt.Sprintf("  <h1 class=\"chapter-title\">%s</h1>\n", escapeXML(ch.Chapter.Title)))
	sb.WriteString(paragraphsToXHTML(ch.Text))
	sb.WriteString("\n</body>\n</html>\n")

	return sb.String()
}

// paragraphsToXHTML wraps each line of text in a <p>, escaping HTML special
// characters and rendering blank lines as a non-breaking space paragraph.
func paragraphsToXHTML(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var sb strings.Builder
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			sb.WriteString("  <p>&#160;</p>\n")
			continue
		}
		sb.WriteString(fmt.Sprintf("  <p>%s</p>\n", html.EscapeString(line)))
	}
	return sb.String()
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}

const defaultStylesheet = `body {
  font-family: Georgia, "Times New Roman", serif;
  font-size: 1em;
  line-height: 1.6;
  margin: 1em;
  text-align: justify;
}

h1, h2 {
  font-family: "Helvetica Neue", Helvetica, Arial, sans-serif;
  font-weight: bold;
  text-align: center;
}

.chapter-title {
  margin-top: 2em;
  margin-bottom: 1.5em;
}

p {
  margin: 0.5em 0;
  text-indent: 1.5em;
}
`
