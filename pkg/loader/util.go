package loader

import (
	"fmt"
	"path"
	"strings"
)

// TypeFor maps a source name to its document type. HTTP and HTTPS URLs map
// to DocumentTypeWeb regardless of their path; file names are matched on
// their lowercased extension. Anything else returns ErrUnsupportedType.
func TypeFor(source string) (DocumentType, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return DocumentTypeWeb, nil
	}

	switch strings.ToLower(path.Ext(source)) {
	case ".pdf":
		return DocumentTypePDF, nil
	case ".txt":
		return DocumentTypeText, nil
	case ".docx":
		return DocumentTypeDocx, nil
	case ".md":
		return DocumentTypeMarkdown, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedType, source)
}

// CacheKey generates a unique cache key for a DocumentFile based on its ID
// and source.
func CacheKey(file DocumentFile) string {
	return file.ID + ":" + file.Source
}
