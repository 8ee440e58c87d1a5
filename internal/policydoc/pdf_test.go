package policydoc

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractPDFReadsTextLayer(t *testing.T) {
	got, err := ExtractPDF(onePagePDF("Privacy Policy for Zikalyze"))
	if err != nil {
		t.Fatalf("ExtractPDF error: %v", err)
	}
	if !strings.Contains(got, "Privacy Policy for Zikalyze") {
		t.Fatalf("expected extracted text to contain phrase, got: %q", got)
	}
}

func TestExtractPDFRejectsEmptyInput(t *testing.T) {
	if _, err := ExtractPDF(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestReadPDFDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "privacy.pdf")
	if err := os.WriteFile(path, onePagePDF("We collect no personal data"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if doc.Kind != "pdf" || doc.Title != "privacy" {
		t.Fatalf("unexpected document %+v", doc)
	}
	if doc.Words != 5 {
		t.Fatalf("expected 5 words, got %d", doc.Words)
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "terms.html"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

// onePagePDF builds a minimal single page PDF that draws text in
// Helvetica, with a correct xref table.
func onePagePDF(text string) []byte {
	var buf bytes.Buffer
	write := func(s string) { _, _ = buf.WriteString(s) }

	write("%PDF-1.4\n")
	offsets := []int{0}
	obj := func(num int, body string) {
		offsets = append(offsets, buf.Len())
		write(fmt.Sprintf("%d 0 obj\n%s\nendobj\n", num, strings.TrimSuffix(body, "\n")))
	}

	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	obj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>")
	escaped := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(text)
	content := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET\n", escaped)
	obj(4, fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(content), content))
	obj(5, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	xref := buf.Len()
	write(fmt.Sprintf("xref\n0 %d\n", len(offsets)))
	write("0000000000 65535 f \n")
	for _, off := range offsets[1:] {
		write(fmt.Sprintf("%010d 00000 n \n", off))
	}
	write(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets), xref))
	return buf.Bytes()
}

func TestExtractPDFStopsAtTextBound(t *testing.T) {
	long := strings.Repeat("word ", maxTextBytes/4)
	got, err := ExtractPDF(onePagePDF(long))
	if err != nil {
		t.Fatalf("ExtractPDF error: %v", err)
	}
	if len(got) > maxTextBytes {
		t.Fatalf("expected at most %d bytes, got %d", maxTextBytes, len(got))
	}
}
