package change

import (
	"fmt"
	"slices"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/signadot/go-sdf/sdfpath"
)

// Entry describes what changed at one path during a batch.
type Entry struct {
	Path sdfpath.Path
	// OldPath is the path the spec had before the batch when Renamed.
	OldPath sdfpath.Path
	// Fields lists the changed field names in sorted order.
	Fields  []string
	Added   bool
	Removed bool
	Renamed bool
}

// HasField reports whether the field name changed.
func (e *Entry) HasField(name string) bool {
	_, ok := slices.BinarySearch(e.Fields, name)
	return ok
}

func (e *Entry) String() string {
	var flags []string
	if e.Added {
		flags = append(flags, "added")
	}
	if e.Removed {
		flags = append(flags, "removed")
	}
	if e.Renamed {
		flags = append(flags, "renamed from "+e.OldPath.String())
	}
	if len(e.Fields) > 0 {
		flags = append(flags, "fields "+strings.Join(e.Fields, ","))
	}
	return fmt.Sprintf("%s: %s", e.Path, strings.Join(flags, "; "))
}

// List is the coalesced set of changes of one layer in one batch,
// ordered by path.
type List struct {
	// Serial identifies the batch. Serials increase across batches.
	Serial ulid.ULID
	// Reloaded is set when the whole layer content was replaced.
	Reloaded bool
	Entries  []Entry
}

func (l *List) Len() int { return len(l.Entries) }

// Find returns the entry for p, or nil.
func (l *List) Find(p sdfpath.Path) *Entry {
	i, ok := slices.BinarySearchFunc(l.Entries, p, func(e Entry, p sdfpath.Path) int {
		return sdfpath.Compare(e.Path, p)
	})
	if !ok {
		return nil
	}
	return &l.Entries[i]
}

// Paths returns the entry paths.
func (l *List) Paths() []sdfpath.Path {
	res := make([]sdfpath.Path, len(l.Entries))
	for i := range l.Entries {
		res[i] = l.Entries[i].Path
	}
	return res
}

func (l *List) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "changes %s", l.Serial)
	if l.Reloaded {
		b.WriteString(" (reloaded)")
	}
	for i := range l.Entries {
		b.WriteString("\n  ")
		b.WriteString(l.Entries[i].String())
	}
	return b.String()
}
