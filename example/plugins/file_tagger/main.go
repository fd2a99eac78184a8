// file_tagger decorates entries with user-assigned tags and manages them
// through plugin actions. Tags persist in a small JSON file under the
// user's config directory.
//
// Build with:
//
//	go build -buildmode=plugin -o file_tagger.so ./plugins/file_tagger
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/triyanox/lla/lib/api"
)

type fileTagger struct {
	tagFile string
	tags    map[string][]string
}

func newFileTagger() *fileTagger {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	p := &fileTagger{
		tagFile: filepath.Join(dir, "lla", "file_tags.json"),
		tags:    make(map[string][]string),
	}
	p.loadTags()
	return p
}

func (p *fileTagger) loadTags() {
	data, err := os.ReadFile(p.tagFile)
	if err != nil {
		return
	}
	var tags map[string][]string
	if err := json.Unmarshal(data, &tags); err == nil {
		p.tags = tags
	}
}

func (p *fileTagger) saveTags() error {
	data, err := json.MarshalIndent(p.tags, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.tagFile), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.tagFile, data, 0o644)
}

func (p *fileTagger) Name() string        { return "file_tagger" }
func (p *fileTagger) Version() string     { return "1.0.0" }
func (p *fileTagger) Description() string { return "Tag files and show tags in listings" }

func (p *fileTagger) SupportedFormats() []string {
	return []string{api.FormatDefault, api.FormatLong}
}

func (p *fileTagger) Decorate(entry *api.DecoratedEntry) {
	if tags, ok := p.tags[entry.Path]; ok && len(tags) > 0 {
		entry.CustomFields["tags"] = strings.Join(tags, ", ")
	}
}

func (p *fileTagger) FormatField(entry *api.DecoratedEntry, format string) string {
	tags, ok := entry.CustomFields["tags"]
	if !ok {
		return ""
	}
	return "[" + tags + "]"
}

func (p *fileTagger) PerformAction(action string, args []string) error {
	switch action {
	case "add-tag":
		if len(args) != 2 {
			return fmt.Errorf("usage: add-tag <path> <tag>")
		}
		if !slices.Contains(p.tags[args[0]], args[1]) {
			p.tags[args[0]] = append(p.tags[args[0]], args[1])
		}
		return p.saveTags()
	case "remove-tag":
		if len(args) != 2 {
			return fmt.Errorf("usage: remove-tag <path> <tag>")
		}
		remaining := slices.DeleteFunc(p.tags[args[0]], func(t string) bool { return t == args[1] })
		if len(remaining) == 0 {
			delete(p.tags, args[0])
		} else {
			p.tags[args[0]] = remaining
		}
		return p.saveTags()
	case "list-tags":
		if len(args) != 1 {
			return fmt.Errorf("usage: list-tags <path>")
		}
		for _, tag := range p.tags[args[0]] {
			fmt.Println(tag)
		}
		return nil
	case "help":
		fmt.Println("Available actions:")
		fmt.Println("  add-tag <path> <tag>     attach a tag to a file")
		fmt.Println("  remove-tag <path> <tag>  detach a tag from a file")
		fmt.Println("  list-tags <path>         print a file's tags")
		return nil
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

// NewPlugin is the constructor symbol the host resolves.
func NewPlugin() func(request []byte) []byte {
	return api.NewHandler(newFileTagger())
}

func main() {}
