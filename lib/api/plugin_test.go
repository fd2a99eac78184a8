package api

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

// taggerPlugin is a minimal in-process plugin used to exercise the handler
// adapter end to end.
type taggerPlugin struct {
	formats []string
	actions map[string]error
}

func (p *taggerPlugin) Name() string        { return "tagger" }
func (p *taggerPlugin) Version() string     { return "1.0.0" }
func (p *taggerPlugin) Description() string { return "tags entries it has seen" }

func (p *taggerPlugin) SupportedFormats() []string { return p.formats }

func (p *taggerPlugin) Decorate(entry *DecoratedEntry) {
	entry.CustomFields["tag"] = "seen"
}

func (p *taggerPlugin) FormatField(entry *DecoratedEntry, format string) string {
	if format != FormatLong {
		return ""
	}
	return fmt.Sprintf("tag: %s", entry.CustomFields["tag"])
}

func (p *taggerPlugin) PerformAction(action string, args []string) error {
	err, ok := p.actions[action]
	if !ok {
		return fmt.Errorf("unknown action %q", action)
	}
	return err
}

func newTagger() *taggerPlugin {
	return &taggerPlugin{
		formats: []string{FormatDefault, FormatLong},
		actions: map[string]error{"help": nil},
	}
}

func call(t *testing.T, handler func([]byte) []byte, req Message) Message {
	t.Helper()
	raw, err := EncodeMessage(req)
	if err != nil {
		t.Fatalf("encode request: %v", err)
	}
	resp, err := DecodeMessage(handler(raw))
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestHandlerIdentity(t *testing.T) {
	handler := NewHandler(newTagger())

	if got := call(t, handler, GetNameRequest{}); got != (NameResponse{Name: "tagger"}) {
		t.Errorf("name: got %#v", got)
	}
	if got := call(t, handler, GetVersionRequest{}); got != (VersionResponse{Version: "1.0.0"}) {
		t.Errorf("version: got %#v", got)
	}
	if got := call(t, handler, GetDescriptionRequest{}); got != (DescriptionResponse{Description: "tags entries it has seen"}) {
		t.Errorf("description: got %#v", got)
	}
	want := SupportedFormatsResponse{Formats: []string{"default", "long"}}
	if got := call(t, handler, GetSupportedFormatsRequest{}); !reflect.DeepEqual(got, want) {
		t.Errorf("formats: got %#v, want %#v", got, want)
	}
}

func TestHandlerDecorate(t *testing.T) {
	handler := NewHandler(newTagger())
	entry, err := decodedEntryFor(t, handler)
	if err != nil {
		t.Fatal(err)
	}
	if got := entry.CustomFields["tag"]; got != "seen" {
		t.Errorf(`custom field "tag": got %q, want "seen"`, got)
	}
}

func decodedEntryFor(t *testing.T, handler func([]byte) []byte) (DecoratedEntry, error) {
	t.Helper()
	resp := call(t, handler, DecorateRequest{Entry: testEntry()})
	decorated, ok := resp.(DecoratedResponse)
	if !ok {
		return DecoratedEntry{}, fmt.Errorf("got %T, want DecoratedResponse", resp)
	}
	return decorated.Entry, nil
}

func TestHandlerFormatFieldDeclines(t *testing.T) {
	handler := NewHandler(newTagger())

	resp := call(t, handler, FormatFieldRequest{Entry: testEntry(), Format: FormatTree})
	field, ok := resp.(FormattedFieldResponse)
	if !ok {
		t.Fatalf("got %T, want FormattedFieldResponse", resp)
	}
	if field.Field != nil {
		t.Errorf("plugin should decline unsupported format, got %q", *field.Field)
	}

	resp = call(t, handler, FormatFieldRequest{Entry: testEntry(), Format: FormatLong})
	field, ok = resp.(FormattedFieldResponse)
	if !ok {
		t.Fatalf("got %T, want FormattedFieldResponse", resp)
	}
	if field.Field == nil || *field.Field != "tag: seen" {
		t.Errorf("long format: got %v, want \"tag: seen\"", field.Field)
	}
}

func TestHandlerActionResult(t *testing.T) {
	p := newTagger()
	p.actions["purge"] = errors.New("cache is locked")
	handler := NewHandler(p)

	resp := call(t, handler, ActionRequest{Action: "help"})
	if result, ok := resp.(ActionResponse); !ok || result.Err != nil {
		t.Errorf("help action: got %#v, want success", resp)
	}

	resp = call(t, handler, ActionRequest{Action: "purge"})
	result, ok := resp.(ActionResponse)
	if !ok {
		t.Fatalf("got %T, want ActionResponse", resp)
	}
	if result.Err == nil || *result.Err != "cache is locked" {
		t.Errorf("purge action: got %v, want plugin error text verbatim", result.Err)
	}
}

func TestHandlerMalformedRequest(t *testing.T) {
	handler := NewHandler(newTagger())
	resp, err := DecodeMessage(handler([]byte{0xff, 0xff, 0xff}))
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := resp.(ErrorResponse); !ok {
		t.Errorf("malformed request: got %T, want ErrorResponse", resp)
	}
}

func TestHandlerResponseAsRequest(t *testing.T) {
	handler := NewHandler(newTagger())
	resp := call(t, handler, NameResponse{Name: "x"})
	if _, ok := resp.(ErrorResponse); !ok {
		t.Errorf("response sent as request: got %T, want ErrorResponse", resp)
	}
}
