package media

import "strings"

// SavePayload is the partition of the visible list submitted on save. The
// multipart boundary carries the two halves in different channels: the
// ordered keys inside the JSON metadata part, the raw files as binary parts.
// The server appends uploaded files after the existing-key order, so keeping
// ExistingKeys ordered preserves the user's overall order.
type SavePayload struct {
	ExistingKeys []string
	NewFiles     []StagedFile
}

// BuildSavePayload partitions VisibleEntries into retained existing keys and
// files to upload. Removed entries appear in neither half; an entry whose URL
// cannot yield a key is omitted rather than blocking the save.
func (l *List) BuildSavePayload(markers []string) SavePayload {
	var payload SavePayload
	for _, entry := range l.VisibleEntries() {
		if isStagedUpload(entry) {
			payload.NewFiles = append(payload.NewFiles, *entry.File)
			continue
		}
		if key, ok := ExtractStableKey(entry.URL, markers); ok {
			payload.ExistingKeys = append(payload.ExistingKeys, key)
		}
	}
	return payload
}

// isStagedUpload treats an entry as an upload when flagged new, or when it
// still carries an image data-URI preview with its file handle (legacy rows
// that lost the flag).
func isStagedUpload(entry *Entry) bool {
	if entry.IsNew && entry.File != nil {
		return true
	}
	hasDataURI := strings.HasPrefix(entry.URL, "data:image/") && !strings.Contains(entry.URL, "data:image/svg+xml")
	return hasDataURI && entry.File != nil
}
