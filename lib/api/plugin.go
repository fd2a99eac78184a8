package api

// ConstructorSymbol is the one exported symbol every plugin library must
// carry: a niladic function returning the plugin's raw request handler.
//
//	func NewPlugin() func(request []byte) []byte
//
// The host never exchanges richer types with the library; everything past
// the constructor is wire bytes.
const ConstructorSymbol = "NewPlugin"

// Formats a plugin may advertise through GetSupportedFormats. These are
// plain strings on the wire; the list here mirrors the host's renderers.
const (
	FormatDefault   = "default"
	FormatLong      = "long"
	FormatTree      = "tree"
	FormatTable     = "table"
	FormatGrid      = "grid"
	FormatGit       = "git"
	FormatSizemap   = "sizemap"
	FormatTimeline  = "timeline"
	FormatRecursive = "recursive"
)

// Plugin is the capability set a plugin author implements. Every plugin
// implements all of it uniformly; optional richer behavior (typed
// configuration, caches, state files) stays internal to the plugin and is
// invisible across the boundary.
//
// Decorate may mutate the entry's custom fields in place. FormatField
// returns the empty string to decline. PerformAction runs a named operation
// outside the listing flow; its error text travels back to the host
// verbatim.
type Plugin interface {
	Name() string
	Version() string
	Description() string
	SupportedFormats() []string
	Decorate(entry *DecoratedEntry)
	FormatField(entry *DecoratedEntry, format string) string
	PerformAction(action string, args []string) error
}

// NewHandler adapts a Plugin into the raw bytes-in/bytes-out handler the
// constructor symbol must return. It decodes each request, dispatches to
// the interface, and encodes the mirror response; unreadable request bytes
// come back as an ErrorResponse rather than a panic.
func NewHandler(p Plugin) func(request []byte) []byte {
	return func(request []byte) []byte {
		msg, err := DecodeMessage(request)
		if err != nil {
			return mustEncode(ErrorResponse{Message: err.Error()})
		}
		switch m := msg.(type) {
		case GetNameRequest:
			return mustEncode(NameResponse{Name: p.Name()})
		case GetVersionRequest:
			return mustEncode(VersionResponse{Version: p.Version()})
		case GetDescriptionRequest:
			return mustEncode(DescriptionResponse{Description: p.Description()})
		case GetSupportedFormatsRequest:
			return mustEncode(SupportedFormatsResponse{Formats: p.SupportedFormats()})
		case DecorateRequest:
			entry := m.Entry
			if entry.CustomFields == nil {
				entry.CustomFields = make(map[string]string)
			}
			p.Decorate(&entry)
			return mustEncode(DecoratedResponse{Entry: entry})
		case FormatFieldRequest:
			field := p.FormatField(&m.Entry, m.Format)
			if field == "" {
				return mustEncode(FormattedFieldResponse{})
			}
			return mustEncode(FormattedFieldResponse{Field: &field})
		case ActionRequest:
			if err := p.PerformAction(m.Action, m.Args); err != nil {
				text := err.Error()
				return mustEncode(ActionResponse{Err: &text})
			}
			return mustEncode(ActionResponse{})
		default:
			return mustEncode(ErrorResponse{Message: "unexpected request type"})
		}
	}
}

// mustEncode is safe for the package-constructed responses NewHandler
// builds; EncodeMessage cannot fail for them.
func mustEncode(m Message) []byte {
	b, err := EncodeMessage(m)
	if err != nil {
		b, _ = EncodeMessage(ErrorResponse{Message: err.Error()})
	}
	return b
}
