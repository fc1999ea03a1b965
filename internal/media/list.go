package media

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/parsifal-shop/storefront-client/internal/catalog"
	pkgerrors "github.com/parsifal-shop/storefront-client/pkg/errors"
)

// List is the editable ordered media list behind an entity editor: existing
// server-hosted entries mixed with locally staged ones.
//
// Ordering invariant: entries flagged removed always sit after the visible
// ones in the backing slice, so reorder operations never touch them. All
// operations are synchronous in-memory transforms.
type List struct {
	entries []*Entry
}

// NewListFromImages builds a list from an entity's stored image URLs,
// deduplicating by exact URL and dropping placeholders.
func NewListFromImages(urls []string) *List {
	list := &List{}
	seen := map[string]struct{}{}
	for _, url := range urls {
		if !isRealContent(url) {
			continue
		}
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		list.entries = append(list.entries, newExistingEntry(url))
	}
	return list
}

// NewListFromProduct builds the list for a product editor, honoring the
// legacy single-image fallback.
func NewListFromProduct(p *catalog.Product) *List {
	if p == nil {
		return &List{}
	}
	return NewListFromImages(p.AllImages())
}

// Stage appends image files to the end of the list, preserving their order.
// Files whose content is not an image are skipped without aborting the batch;
// their names are returned so the caller can log them.
func (l *List) Stage(files ...StagedFile) (added int, skipped []string) {
	for _, file := range files {
		detected := mimetype.Detect(file.Data)
		if !strings.HasPrefix(detected.String(), "image/") {
			skipped = append(skipped, file.Name)
			continue
		}
		if file.MIME == "" {
			file.MIME = detected.String()
		}
		l.entries = append(l.entries, newStagedEntry(file))
		added++
	}
	return added, skipped
}

// VisibleEntries is the projection shown to the user: not removed, real
// content only. It is the only ordering reorder and removal operate on.
func (l *List) VisibleEntries() []*Entry {
	var visible []*Entry
	for _, entry := range l.entries {
		if entry.IsRemoved {
			continue
		}
		if !isRealContent(entry.URL) {
			continue
		}
		visible = append(visible, entry)
	}
	return visible
}

// Len is the backing list size, removed entries included.
func (l *List) Len() int {
	return len(l.entries)
}

// Reorder moves the visible entry at from to position to, then rebuilds the
// backing list as the reordered visible entries followed by the removed ones
// in their original relative order.
func (l *List) Reorder(from, to int) error {
	visible := l.VisibleEntries()
	if from < 0 || from >= len(visible) || to < 0 || to >= len(visible) {
		return pkgerrors.New(pkgerrors.CodeValidation, "reorder index out of range")
	}
	if from == to {
		return nil
	}

	moved := visible[from]
	visible = append(visible[:from], visible[from+1:]...)
	visible = append(visible[:to], append([]*Entry{moved}, visible[to:]...)...)

	var removed []*Entry
	for _, entry := range l.entries {
		if entry.IsRemoved {
			removed = append(removed, entry)
		}
	}
	l.entries = append(visible, removed...)
	return nil
}

// RemoveAt removes the visible entry at the given index. Staged entries are
// deleted outright; existing ones are soft-deleted so the server is told to
// detach them rather than inferring removal from absence.
func (l *List) RemoveAt(visibleIndex int) error {
	visible := l.VisibleEntries()
	if visibleIndex < 0 || visibleIndex >= len(visible) {
		return pkgerrors.New(pkgerrors.CodeValidation, "remove index out of range")
	}

	target := visible[visibleIndex]
	if target.IsNew {
		for i, entry := range l.entries {
			if entry == target {
				l.entries = append(l.entries[:i], l.entries[i+1:]...)
				break
			}
		}
		return nil
	}

	// Soft-deleted entries live after the visible ones in the backing
	// slice, so reorders never have to step over them.
	target.IsRemoved = true
	for i, entry := range l.entries {
		if entry == target {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			break
		}
	}
	l.entries = append(l.entries, target)
	return nil
}
