package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExtractBytes_plain(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("Hello world\n\nLine 2"), ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Hello world\n\nLine 2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_plainInvalidUTF8(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("hello\x80world"), ".md")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "hello�world" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_plainDropsBOM(t *testing.T) {
	got, err := NewExtractor().ExtractBytes([]byte("\xef\xbb\xbfnotes"), ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "notes" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_unsupported(t *testing.T) {
	e := NewExtractor()
	for _, ext := range []string{".pptx", ".exe", ""} {
		_, err := e.ExtractBytes([]byte("x"), ext)
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("ExtractBytes(%q): err=%v, want ErrUnsupportedFormat", ext, err)
		}
	}
}

func TestExtract_unsupportedFileIsNotRead(t *testing.T) {
	e := NewExtractor()
	_, err := e.Extract(filepath.Join(t.TempDir(), "missing.odp"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err=%v, want ErrUnsupportedFormat", err)
	}
}

func TestExtract_nonexistent(t *testing.T) {
	e := NewExtractor()
	if _, err := e.Extract(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExtract_plainFileUppercaseExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "NOTES.TXT")
	if err := os.WriteFile(path, []byte("File content"), 0600); err != nil {
		t.Fatal(err)
	}
	got, err := NewExtractor().Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "File content" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Title")
	f.SetCellValue("Sheet1", "A2", "Value 1")
	f.SetCellValue("Sheet1", "B2", "Value 2")
	if _, err := f.NewSheet("Notes"); err != nil {
		t.Fatal(err)
	}
	f.SetCellValue("Notes", "A1", "second sheet")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := NewExtractor().ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Title\nValue 1\tValue 2\n\nsecond sheet" {
		t.Errorf("got %q", got)
	}
}

const wNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func docxZip(files map[string]string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		fw, _ := w.Create(name)
		_, _ = fw.Write([]byte(body))
	}
	_ = w.Close()
	return buf.Bytes()
}

func TestExtractBytes_docxParagraphs(t *testing.T) {
	body := `<w:document ` + wNS + `><w:body>` +
		`<w:p w:rsidR="00AB"><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:t>Quarterly</w:t></w:r><w:r><w:t xml:space="preserve"> report</w:t></w:r></w:p>` +
		`<w:p/>` +
		`<w:p><w:r><w:t>Revenue</w:t><w:tab/><w:t>grew</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>   </w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Costs &amp; margins</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	got, err := NewExtractor().ExtractBytes(docxZip(map[string]string{"word/document.xml": body}), ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	want := "Quarterly report\n\nRevenue\tgrew\n\nCosts & margins"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractBytes_docxContentTypes(t *testing.T) {
	doc := `<w:document ` + wNS + `><w:body><w:p><w:r><w:t>Content from document2</w:t></w:r></w:p></w:body></w:document>`
	for name, ct := range map[string]string{
		"PartName first":    `<Override PartName="/word/document2.xml" ContentType="` + docxMainContentType + `"/>`,
		"ContentType first": `<Override ContentType="` + docxMainContentType + `" PartName="/word/document2.xml"/>`,
	} {
		content := docxZip(map[string]string{
			"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` + ct + `</Types>`,
			"word/document2.xml":  doc,
		})
		got, err := NewExtractor().ExtractBytes(content, ".docx")
		if err != nil {
			t.Fatalf("%s: ExtractBytes: %v", name, err)
		}
		if got != "Content from document2" {
			t.Errorf("%s: got %q", name, got)
		}
	}
}

func TestExtractBytes_docxMissingBody(t *testing.T) {
	_, err := NewExtractor().ExtractBytes(docxZip(map[string]string{"other.xml": "<x/>"}), ".docx")
	if err == nil {
		t.Error("expected error when document.xml is missing")
	}
}

func TestExtractBytes_docxPartSizeLimit(t *testing.T) {
	old := maxZipPartBytes
	maxZipPartBytes = 1024
	t.Cleanup(func() { maxZipPartBytes = old })

	body := `<w:document ` + wNS + `><w:body><w:p><w:r><w:t>` +
		strings.Repeat("a", 8192) + `</w:t></w:r></w:p></w:body></w:document>`
	content := docxZip(map[string]string{"word/document.xml": body})
	if len(content) >= 1024 {
		t.Fatalf("fixture should compress below the limit, got %d bytes", len(content))
	}
	_, err := NewExtractor().ExtractBytes(content, ".docx")
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("err = %v, want part size error", err)
	}
}

func TestExtractBytes_docxNotZip(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("plain text"), ".docx"); err == nil {
		t.Error("expected error for non-zip docx")
	}
}

func TestExtractBytes_pdfCorrupt(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("%PDF-1.4 truncated"), ".pdf"); err == nil {
		t.Error("expected error for corrupt PDF")
	}
}

func TestSupports(t *testing.T) {
	for ext, want := range map[string]bool{".pdf": true, ".DOCX": true, ".md": true, ".pptx": false, "": false} {
		if got := Supports(ext); got != want {
			t.Errorf("Supports(%q)=%v, want %v", ext, got, want)
		}
	}
	exts := SupportedExtensions()
	exts[0] = "mutated"
	if SupportedExtensions()[0] == "mutated" {
		t.Error("SupportedExtensions must return a copy")
	}
}
