// Package api defines the data model and wire contract shared between the
// lla host and its plugins. Both sides of the boundary import this package
// and nothing else from each other: a plugin is a dynamic library exporting
// a single constructor that returns a raw bytes-in/bytes-out handler, and
// every exchange across that boundary is a schema-encoded Message.
package api

import (
	"fmt"
	"os"
)

// DecoratedEntry is one filesystem entry flowing through the listing
// pipeline. CustomFields is a side channel for plugin-contributed data;
// no key namespace is reserved, and a later writer silently overwrites an
// earlier one.
type DecoratedEntry struct {
	Path         string
	Metadata     EntryMetadata
	CustomFields map[string]string
}

// EntryMetadata is a fixed snapshot taken once at discovery time. The
// runtime never re-reads it. Created is zero on platforms that do not
// expose a birth time.
type EntryMetadata struct {
	Size        uint64
	Modified    uint64
	Accessed    uint64
	Created     uint64
	IsDir       bool
	IsFile      bool
	IsSymlink   bool
	Permissions uint32
	UID         uint32
	GID         uint32
}

// NewEntry stats path (without following symlinks) and returns a decorated
// entry with its metadata snapshot and an empty custom-fields map.
func NewEntry(path string) (*DecoratedEntry, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return NewEntryFromInfo(path, info), nil
}

// NewEntryFromInfo builds a decorated entry from an already collected
// os.FileInfo. Owner, group and the remaining timestamps are filled in from
// the platform stat structure where available.
func NewEntryFromInfo(path string, info os.FileInfo) *DecoratedEntry {
	mod := info.ModTime().Unix()
	if mod < 0 {
		mod = 0
	}
	meta := EntryMetadata{
		Size:        uint64(info.Size()),
		Modified:    uint64(mod),
		IsDir:       info.IsDir(),
		IsFile:      info.Mode().IsRegular(),
		IsSymlink:   info.Mode()&os.ModeSymlink != 0,
		Permissions: uint32(info.Mode().Perm()),
	}
	fillStat(&meta, info)
	return &DecoratedEntry{
		Path:         path,
		Metadata:     meta,
		CustomFields: make(map[string]string),
	}
}

// Clone returns a deep copy of the entry. Plugins receive copies over the
// wire, but in-process callers that hold on to an entry across a dispatch
// pass should clone first.
func (e *DecoratedEntry) Clone() *DecoratedEntry {
	fields := make(map[string]string, len(e.CustomFields))
	for k, v := range e.CustomFields {
		fields[k] = v
	}
	return &DecoratedEntry{Path: e.Path, Metadata: e.Metadata, CustomFields: fields}
}
