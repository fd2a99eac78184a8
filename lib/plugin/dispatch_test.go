package plugin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triyanox/lla/lib/api"
)

func entryFor(path string) *api.DecoratedEntry {
	return &api.DecoratedEntry{
		Path:         path,
		Metadata:     api.EntryMetadata{Size: 10, IsFile: true},
		CustomFields: make(map[string]string),
	}
}

func taggerFake() *fakePlugin {
	return &fakePlugin{
		name:    "tagger",
		formats: []string{api.FormatDefault},
		decorate: func(e *api.DecoratedEntry) {
			e.CustomFields["tag"] = "seen"
		},
	}
}

func TestDecorateScenario(t *testing.T) {
	// One file a.txt, one enabled plugin "tagger" supporting only
	// "default": decorating for "default" contributes exactly the tag,
	// decorating for "long" leaves the fields empty.
	r := NewRegistry(&memStore{}, quietLogger())
	registerFake(t, r, taggerFake())
	require.NoError(t, r.Enable("tagger"))

	entry := entryFor("/tmp/a.txt")
	r.DecorateEntry(entry, api.FormatDefault)
	assert.Equal(t, map[string]string{"tag": "seen"}, entry.CustomFields)

	entry = entryFor("/tmp/a.txt")
	r.DecorateEntry(entry, api.FormatLong)
	assert.Empty(t, entry.CustomFields)
}

func TestDecorateSkipsDisabledPlugins(t *testing.T) {
	r := NewRegistry(&memStore{}, quietLogger())
	p := taggerFake()
	registerFake(t, r, p)

	entry := entryFor("/tmp/a.txt")
	r.DecorateEntry(entry, api.FormatDefault)
	assert.Empty(t, entry.CustomFields)
	assert.Zero(t, p.decorated)
}

func TestDecorateFormatEligibility(t *testing.T) {
	r := NewRegistry(&memStore{}, quietLogger())
	treeOnly := &fakePlugin{
		name:    "trees",
		formats: []string{api.FormatTree},
		decorate: func(e *api.DecoratedEntry) {
			e.CustomFields["depth"] = "3"
		},
	}
	longOnly := &fakePlugin{
		name:    "longs",
		formats: []string{api.FormatLong},
		decorate: func(e *api.DecoratedEntry) {
			e.CustomFields["extra"] = "yes"
		},
	}
	registerFake(t, r, treeOnly)
	registerFake(t, r, longOnly)
	require.NoError(t, r.Enable("trees"))
	require.NoError(t, r.Enable("longs"))

	entry := entryFor("/tmp/a.txt")
	r.DecorateEntry(entry, api.FormatTree)
	assert.Equal(t, map[string]string{"depth": "3"}, entry.CustomFields)
	assert.Equal(t, 1, treeOnly.decorated)
	assert.Zero(t, longOnly.decorated)
}

func TestDecorateLastWriterWins(t *testing.T) {
	// Two plugins writing the same key resolve to the later registration.
	r := NewRegistry(&memStore{}, quietLogger())
	first := &fakePlugin{
		name:    "first",
		formats: []string{api.FormatDefault},
		decorate: func(e *api.DecoratedEntry) {
			e.CustomFields["owner"] = "first"
		},
	}
	second := &fakePlugin{
		name:    "second",
		formats: []string{api.FormatDefault},
		decorate: func(e *api.DecoratedEntry) {
			e.CustomFields["owner"] = "second"
		},
	}
	registerFake(t, r, first)
	registerFake(t, r, second)
	require.NoError(t, r.Enable("first"))
	require.NoError(t, r.Enable("second"))

	entry := entryFor("/tmp/a.txt")
	r.DecorateEntry(entry, api.FormatDefault)
	assert.Equal(t, "second", entry.CustomFields["owner"])
}

func TestDecorateSeesEarlierMutations(t *testing.T) {
	r := NewRegistry(&memStore{}, quietLogger())
	first := &fakePlugin{
		name:    "first",
		formats: []string{api.FormatDefault},
		decorate: func(e *api.DecoratedEntry) {
			e.CustomFields["a"] = "1"
		},
	}
	var sawA string
	second := &fakePlugin{
		name:    "second",
		formats: []string{api.FormatDefault},
		decorate: func(e *api.DecoratedEntry) {
			sawA = e.CustomFields["a"]
			e.CustomFields["b"] = "2"
		},
	}
	registerFake(t, r, first)
	registerFake(t, r, second)
	require.NoError(t, r.Enable("first"))
	require.NoError(t, r.Enable("second"))

	entry := entryFor("/tmp/a.txt")
	r.DecorateEntry(entry, api.FormatDefault)
	assert.Equal(t, "1", sawA, "second plugin should see the first plugin's field")
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, entry.CustomFields)
}

func TestDecorateDeterministic(t *testing.T) {
	r := NewRegistry(&memStore{}, quietLogger())
	registerFake(t, r, taggerFake())
	require.NoError(t, r.Enable("tagger"))

	one := entryFor("/tmp/a.txt")
	r.DecorateEntry(one, api.FormatDefault)
	two := entryFor("/tmp/a.txt")
	r.DecorateEntry(two, api.FormatDefault)
	assert.Equal(t, one.CustomFields, two.CustomFields)
}

func TestDecorateUsesCache(t *testing.T) {
	r := NewRegistry(&memStore{}, quietLogger())
	p := taggerFake()
	registerFake(t, r, p)
	require.NoError(t, r.Enable("tagger"))

	r.DecorateEntry(entryFor("/tmp/a.txt"), api.FormatDefault)
	entry := entryFor("/tmp/a.txt")
	r.DecorateEntry(entry, api.FormatDefault)

	assert.Equal(t, 1, p.decorated, "second pass should be served from the cache")
	assert.Equal(t, map[string]string{"tag": "seen"}, entry.CustomFields)
}

func TestDecorateErrorLeavesEntryUnchanged(t *testing.T) {
	// A handler that cannot decorate answers with an error; the running
	// entry must pass through untouched and later plugins still run.
	r := NewRegistry(&memStore{}, quietLogger())

	failing, err := NewHandle("", nil, func(req []byte) []byte {
		msg, decodeErr := api.DecodeMessage(req)
		if decodeErr == nil {
			switch msg.(type) {
			case api.GetNameRequest:
				raw, _ := api.EncodeMessage(api.NameResponse{Name: "broken"})
				return raw
			case api.GetSupportedFormatsRequest:
				raw, _ := api.EncodeMessage(api.SupportedFormatsResponse{Formats: []string{api.FormatDefault}})
				return raw
			}
		}
		raw, _ := api.EncodeMessage(api.ErrorResponse{Message: "cannot decorate"})
		return raw
	})
	require.NoError(t, err)
	require.NoError(t, r.Register(failing))
	registerFake(t, r, taggerFake())
	require.NoError(t, r.Enable("broken"))
	require.NoError(t, r.Enable("tagger"))

	entry := entryFor("/tmp/a.txt")
	r.DecorateEntry(entry, api.FormatDefault)
	assert.Equal(t, map[string]string{"tag": "seen"}, entry.CustomFields)
}

func TestFormatFields(t *testing.T) {
	r := NewRegistry(&memStore{}, quietLogger())
	registerFake(t, r, &fakePlugin{
		name:    "hasher",
		formats: []string{api.FormatLong},
		field: func(e *api.DecoratedEntry, format string) string {
			return "hash: deadbeef"
		},
	})
	registerFake(t, r, &fakePlugin{
		name:    "silent",
		formats: []string{api.FormatLong},
	})
	registerFake(t, r, &fakePlugin{
		name:    "tagsum",
		formats: []string{api.FormatLong},
		field: func(e *api.DecoratedEntry, format string) string {
			return "tags: 2"
		},
	})
	for _, name := range []string{"hasher", "silent", "tagsum"} {
		require.NoError(t, r.Enable(name))
	}

	fields := r.FormatFields(entryFor("/tmp/a.txt"), api.FormatLong)
	assert.Equal(t, []string{"hash: deadbeef", "tags: 2"}, fields)

	assert.Empty(t, r.FormatFields(entryFor("/tmp/a.txt"), api.FormatTree))
}

func TestPerformActionUnknownPlugin(t *testing.T) {
	r := NewRegistry(&memStore{}, quietLogger())
	err := r.PerformAction("nonexistent", "help", nil)
	assert.ErrorIs(t, err, ErrPluginNotFound)
}

func TestPerformActionDisabledPluginStillRuns(t *testing.T) {
	r := NewRegistry(&memStore{}, quietLogger())
	ran := false
	registerFake(t, r, &fakePlugin{
		name: "maint",
		action: func(action string, args []string) error {
			ran = true
			return nil
		},
	})

	require.NoError(t, r.PerformAction("maint", "purge", nil))
	assert.True(t, ran, "actions must not be filtered by enabled state")
}

func TestPerformActionErrorPassesThrough(t *testing.T) {
	r := NewRegistry(&memStore{}, quietLogger())
	registerFake(t, r, &fakePlugin{
		name: "maint",
		action: func(action string, args []string) error {
			return errors.New("nothing to purge")
		},
	})

	err := r.PerformAction("maint", "purge", []string{"--force"})
	require.Error(t, err)
	assert.Equal(t, "nothing to purge", err.Error())
}
