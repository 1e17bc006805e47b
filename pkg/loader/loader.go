package loader

import (
	"context"
	"errors"
)

// DocumentType identifies the format of a source document.
type DocumentType string

const (
	DocumentTypePDF      DocumentType = "pdf"
	DocumentTypeText     DocumentType = "txt"
	DocumentTypeDocx     DocumentType = "docx"
	DocumentTypeMarkdown DocumentType = "md"
	DocumentTypeWeb      DocumentType = "web"
)

var (
	// ErrUnsupportedType is returned for sources outside the supported
	// document formats.
	ErrUnsupportedType = errors.New("unsupported document type")
)

// DocumentFile represents a source document that can be reduced to plain
// text for indexing. It carries the document id, the source (a file path,
// an object storage key, or a URL) and the detected document type.
//
// The actual content is retrieved via the associated DocumentLoader.
type DocumentFile struct {
	ID     string
	Source string
	Type   DocumentType
	Loader DocumentLoader
}

// NewDocumentFileParams defines the input parameters for creating a new
// DocumentFile instance. It is used by NewDocumentFile to initialize
// DocumentFile values with consistent metadata and loader configuration.
type NewDocumentFileParams struct {
	ID     string
	Source string
	Loader DocumentLoader
}

// NewDocumentFile creates a DocumentFile for the given source, deriving the
// document type from the source name. Sources outside the supported formats
// return ErrUnsupportedType.
func NewDocumentFile(params NewDocumentFileParams) (DocumentFile, error) {
	docType, err := TypeFor(params.Source)
	if err != nil {
		return DocumentFile{}, err
	}

	return DocumentFile{
		ID:     params.ID,
		Source: params.Source,
		Type:   docType,
		Loader: params.Loader,
	}, nil
}

// GetText retrieves the plain text content of the document using its Loader.
//
// Example:
//
//	text, err := file.GetText(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(string(text))
func (f *DocumentFile) GetText(ctx context.Context) ([]byte, error) {
	return f.Loader.GetFileText(ctx, *f)
}

// DocumentLoader defines the interface for loading the contents of a
// DocumentFile. Implementations may load documents from disk, object
// storage, or the web.
type DocumentLoader interface {
	GetFileText(ctx context.Context, file DocumentFile) ([]byte, error)
}
