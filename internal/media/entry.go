package media

import (
	"encoding/base64"
	"strings"
)

// PlaceholderURL is the embedded "no image" graphic some legacy records carry
// in place of real content. It is never treated as a real entry and never
// serialized.
const PlaceholderURL = "data:image/svg+xml;base64,PHN2ZyB3aWR0aD0iMTAwIiBoZWlnaHQ9IjEwMCIgeG1sbnM9Imh0dHA6Ly93d3cudzMub3JnLzIwMDAvc3ZnIj48cmVjdCB3aWR0aD0iMTAwIiBoZWlnaHQ9IjEwMCIgZmlsbD0iI2Y1ZjVmNSIvPjx0ZXh0IHg9IjUwJSIgeT0iNTAlIiBmb250LWZhbWlseT0iQXJpYWwiIGZvbnQtc2l6ZT0iMTQiIGZpbGw9IiM5OTk5OTkiIHRleHQtYW5jaG9yPSJtaWRkbGUiIGR5PSIuM2VtIj5ObyBJbWFnZTwvdGV4dD48L3N2Zz4="

// StagedFile owns the raw bytes of a locally staged upload.
type StagedFile struct {
	Name string
	MIME string
	Data []byte
}

// Entry is one slot in an editable ordered media list.
//
// Exactly one of two shapes is valid: an existing entry (IsNew false, remote
// URL, nil File) or a staged entry (IsNew true, data-URI preview, non-nil
// File).
type Entry struct {
	URL       string
	File      *StagedFile
	IsNew     bool
	IsRemoved bool
}

func newExistingEntry(url string) *Entry {
	return &Entry{URL: url}
}

func newStagedEntry(file StagedFile) *Entry {
	f := file
	return &Entry{
		URL:   dataURI(f.MIME, f.Data),
		File:  &f,
		IsNew: true,
	}
}

func dataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// isRealContent filters out empty URLs and the placeholder sentinel. Any SVG
// data URI counts as placeholder, matching how legacy records were written.
func isRealContent(url string) bool {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return false
	}
	if trimmed == PlaceholderURL || strings.Contains(trimmed, "data:image/svg+xml") {
		return false
	}
	return true
}
