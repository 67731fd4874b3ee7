package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFromFile_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.txt")
	if err := os.WriteFile(path, []byte("  Jane Doe\r\nSkills: Go, SQL\r\n"), 0600); err != nil {
		t.Fatal(err)
	}

	text, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile failed: %v", err)
	}
	if text != "Jane Doe\nSkills: Go, SQL" {
		t.Errorf("got %q", text)
	}
}

func TestFromFile_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.odt")
	if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := FromFile(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestFromBytes_Empty(t *testing.T) {
	if _, err := FromBytes(MIMEText, []byte(" \n\t ")); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestFromBytes_InvalidPDF(t *testing.T) {
	if _, err := FromBytes(MIMEPDF, []byte("not a pdf")); err == nil {
		t.Error("expected error for invalid pdf")
	}
}

func TestFromBytes_InvalidDocx(t *testing.T) {
	if _, err := FromBytes(MIMEDocx, []byte("not a zip")); err == nil {
		t.Error("expected error for invalid docx")
	}
}

func TestStripDocumentXML(t *testing.T) {
	xml := `<w:body><w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p><w:p><w:r><w:t>Skills: Go &amp; SQL</w:t></w:r></w:p></w:body>`
	got := StripDocumentXML(xml)
	if got != "Jane Doe\nSkills: Go & SQL\n" {
		t.Errorf("got %q", got)
	}
}

func TestMIMEFor(t *testing.T) {
	tests := map[string]string{
		"cv.PDF":  MIMEPDF,
		"cv.docx": MIMEDocx,
		"cv.md":   MIMEText,
	}
	for path, want := range tests {
		got, err := MIMEFor(path)
		if err != nil || got != want {
			t.Errorf("MIMEFor(%q) = %q, %v; want %q", path, got, err, want)
		}
	}
}
