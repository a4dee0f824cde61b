package ingest

import (
	"archive/zip"
	"bytes"
	"testing"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("creating zip entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("writing zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractDocxText_Paragraphs(t *testing.T) {
	docx := buildDocx(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	got, err := extractDocxText(docx)
	if err != nil {
		t.Fatalf("extractDocxText() error = %v", err)
	}
	want := "First paragraph.\nSecond paragraph.\n"
	if string(got) != want {
		t.Fatalf("expected %q, got %q", want, string(got))
	}
}

func TestExtractDocxText_SkipsTrackedDeletions(t *testing.T) {
	docx := buildDocx(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Kept text.</w:t></w:r><w:del><w:r><w:t>Deleted text.</w:t></w:r></w:del></w:p>
  </w:body>
</w:document>`)

	got, err := extractDocxText(docx)
	if err != nil {
		t.Fatalf("extractDocxText() error = %v", err)
	}
	if string(got) != "Kept text.\n" {
		t.Fatalf("expected deleted run to be skipped, got %q", string(got))
	}
}

func TestExtractDocxText_TableCellsTabSeparated(t *testing.T) {
	docx := buildDocx(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Name</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Age</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`)

	got, err := extractDocxText(docx)
	if err != nil {
		t.Fatalf("extractDocxText() error = %v", err)
	}
	if !bytes.Contains(got, []byte("Name\tAge")) {
		t.Fatalf("expected tab-separated cells, got %q", string(got))
	}
}

func TestExtractDocxText_MissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("word/styles.xml")
	w.Write([]byte("<styles/>"))
	zw.Close()

	if _, err := extractDocxText(buf.Bytes()); err == nil {
		t.Fatalf("expected error for archive without document.xml")
	}
}

func TestExtractDocxText_NotAZip(t *testing.T) {
	if _, err := extractDocxText([]byte("plain text, not a zip")); err == nil {
		t.Fatalf("expected error for non-zip input")
	}
}
