package loader

import (
	"errors"
	"testing"
)

func TestTypeFor(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		want    DocumentType
		wantErr bool
	}{
		{
			name:   "pdf file",
			source: "report.pdf",
			want:   DocumentTypePDF,
		},
		{
			name:   "uppercase extension",
			source: "REPORT.PDF",
			want:   DocumentTypePDF,
		},
		{
			name:   "text file",
			source: "notes.txt",
			want:   DocumentTypeText,
		},
		{
			name:   "word document",
			source: "thesis.docx",
			want:   DocumentTypeDocx,
		},
		{
			name:   "markdown file",
			source: "README.md",
			want:   DocumentTypeMarkdown,
		},
		{
			name:   "nested object key",
			source: "uploads/abc123/report.pdf",
			want:   DocumentTypePDF,
		},
		{
			name:   "http url",
			source: "http://example.com/article",
			want:   DocumentTypeWeb,
		},
		{
			name:   "https url",
			source: "https://example.com/article.html",
			want:   DocumentTypeWeb,
		},
		{
			name:   "url takes precedence over extension",
			source: "https://example.com/files/report.pdf",
			want:   DocumentTypeWeb,
		},
		{
			name:    "legacy word document",
			source:  "old.doc",
			wantErr: true,
		},
		{
			name:    "image file",
			source:  "scan.png",
			wantErr: true,
		},
		{
			name:    "no extension",
			source:  "LICENSE",
			wantErr: true,
		},
		{
			name:    "empty source",
			source:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TypeFor(tt.source)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedType) {
					t.Fatalf("TypeFor(%q) error = %v, want ErrUnsupportedType", tt.source, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("TypeFor(%q) unexpected error: %v", tt.source, err)
			}
			if got != tt.want {
				t.Errorf("TypeFor(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestNewDocumentFile(t *testing.T) {
	file, err := NewDocumentFile(NewDocumentFileParams{
		ID:     "doc-1",
		Source: "uploads/doc-1/report.pdf",
	})
	if err != nil {
		t.Fatalf("NewDocumentFile() unexpected error: %v", err)
	}
	if file.Type != DocumentTypePDF {
		t.Errorf("file.Type = %q, want %q", file.Type, DocumentTypePDF)
	}
	if file.ID != "doc-1" || file.Source != "uploads/doc-1/report.pdf" {
		t.Errorf("unexpected file metadata: %+v", file)
	}

	if _, err := NewDocumentFile(NewDocumentFileParams{
		ID:     "doc-2",
		Source: "archive.zip",
	}); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("NewDocumentFile() error = %v, want ErrUnsupportedType", err)
	}
}

func TestCacheKey(t *testing.T) {
	a := DocumentFile{ID: "1", Source: "uploads/1/a.txt"}
	b := DocumentFile{ID: "2", Source: "uploads/1/a.txt"}

	if CacheKey(a) == CacheKey(b) {
		t.Errorf("CacheKey() collision for distinct documents: %q", CacheKey(a))
	}
	if got, want := CacheKey(a), "1:uploads/1/a.txt"; got != want {
		t.Errorf("CacheKey() = %q, want %q", got, want)
	}
}
