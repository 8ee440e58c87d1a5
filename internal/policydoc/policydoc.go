// Package policydoc reads privacy policy and terms documents shipped with
// the web build, so the release checklist can tell a real policy from an
// empty placeholder.
package policydoc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var ErrEmptyText = errors.New("document has no extractable text")

// maxTextBytes bounds what is kept from a document body.
const maxTextBytes = 20000

type Document struct {
	Path  string
	Kind  string
	Title string
	Text  string
	Words int
}

// Read loads the document at path, choosing the extractor by extension.
// Anything that is not .pdf is parsed as HTML.
func Read(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	doc := Document{Path: path}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		doc.Kind = "pdf"
		doc.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		doc.Text, err = ExtractPDF(data)
	} else {
		doc.Kind = "html"
		doc.Title, doc.Text, err = ExtractHTML(data)
	}
	if err != nil {
		return doc, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	doc.Words = len(strings.Fields(doc.Text))
	return doc, nil
}

// ExtractHTML returns the page title and the visible body text, dropping
// scripts and styles. A page whose body has no text is ErrEmptyText even
// if it has a title.
func ExtractHTML(data []byte) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		return "", "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script,style,noscript,template").Remove()

	title := collapseSpace(doc.Find("title").First().Text())
	text := collapseSpace(doc.Find("body").Text())
	if len(text) > maxTextBytes {
		text = truncateUTF8(text, maxTextBytes)
	}
	if text == "" {
		return title, "", ErrEmptyText
	}
	return title, text, nil
}

// collapseSpace drops NUL bytes and folds every whitespace run into a
// single space.
func collapseSpace(input string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(input, "\x00", "")), " ")
}

func truncateUTF8(s string, n int) string {
	for n > 0 && n < len(s) && !utf8Start(s[n]) {
		n--
	}
	return s[:n]
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
