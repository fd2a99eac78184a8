// file_hash decorates regular files with a truncated SHA-256 of their
// contents.
//
// Build with:
//
//	go build -buildmode=plugin -o file_hash.so ./plugins/file_hash
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/triyanox/lla/lib/api"
)

// hashLimit caps how much of a file is hashed so huge files do not stall
// the listing.
const hashLimit = 16 << 20

type fileHash struct{}

func (fileHash) Name() string        { return "file_hash" }
func (fileHash) Version() string     { return "1.0.0" }
func (fileHash) Description() string { return "Show a content hash for each file" }

func (fileHash) SupportedFormats() []string {
	return []string{api.FormatDefault, api.FormatLong}
}

func (fileHash) Decorate(entry *api.DecoratedEntry) {
	if !entry.Metadata.IsFile {
		return
	}
	f, err := os.Open(entry.Path)
	if err != nil {
		return
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, io.LimitReader(f, hashLimit)); err != nil {
		return
	}
	entry.CustomFields["hash"] = hex.EncodeToString(h.Sum(nil))[:8]
}

func (fileHash) FormatField(entry *api.DecoratedEntry, format string) string {
	hash, ok := entry.CustomFields["hash"]
	if !ok {
		return ""
	}
	return "#" + hash
}

func (fileHash) PerformAction(action string, args []string) error {
	if action == "help" {
		fmt.Println("file_hash has no actions; it only decorates listings")
		return nil
	}
	return fmt.Errorf("unknown action %q", action)
}

// NewPlugin is the constructor symbol the host resolves.
func NewPlugin() func(request []byte) []byte {
	return api.NewHandler(fileHash{})
}

func main() {}
