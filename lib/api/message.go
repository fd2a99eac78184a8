package api

// Message is the closed set of requests and responses exchanged across the
// plugin boundary. Exactly one request produces exactly one response; there
// is no streaming and no multiplexing. The set is sealed: every variant
// lives in this package and maps onto one field of the PluginMessage union
// in plugin.proto.
type Message interface {
	isMessage()
}

// Requests.

// GetNameRequest asks a plugin for its stable identity name.
type GetNameRequest struct{}

// GetVersionRequest asks a plugin for its version string.
type GetVersionRequest struct{}

// GetDescriptionRequest asks a plugin for its one-line description.
type GetDescriptionRequest struct{}

// GetSupportedFormatsRequest asks a plugin which render formats it
// participates in.
type GetSupportedFormatsRequest struct{}

// DecorateRequest hands a plugin an entry to mutate through its
// custom-fields side channel.
type DecorateRequest struct {
	Entry DecoratedEntry
}

// FormatFieldRequest asks a plugin for a renderable text fragment for one
// entry under one format.
type FormatFieldRequest struct {
	Entry  DecoratedEntry
	Format string
}

// ActionRequest invokes a named, plugin-defined operation with string
// arguments, outside the normal listing flow.
type ActionRequest struct {
	Action string
	Args   []string
}

// Responses.

// NameResponse mirrors GetNameRequest.
type NameResponse struct {
	Name string
}

// VersionResponse mirrors GetVersionRequest.
type VersionResponse struct {
	Version string
}

// DescriptionResponse mirrors GetDescriptionRequest.
type DescriptionResponse struct {
	Description string
}

// SupportedFormatsResponse mirrors GetSupportedFormatsRequest.
type SupportedFormatsResponse struct {
	Formats []string
}

// DecoratedResponse returns the possibly mutated entry from a
// DecorateRequest.
type DecoratedResponse struct {
	Entry DecoratedEntry
}

// FormattedFieldResponse carries an optional text fragment. A nil Field is
// the plugin declining to contribute for this entry/format pair.
type FormattedFieldResponse struct {
	Field *string
}

// ActionResponse reports the outcome of an ActionRequest. A nil Err is
// success; otherwise Err is the plugin's own error text, passed through to
// the caller verbatim.
type ActionResponse struct {
	Err *string
}

// ErrorResponse is a plugin-side failure to handle a request at all, for
// example unreadable request bytes.
type ErrorResponse struct {
	Message string
}

func (GetNameRequest) isMessage()             {}
func (GetVersionRequest) isMessage()          {}
func (GetDescriptionRequest) isMessage()      {}
func (GetSupportedFormatsRequest) isMessage() {}
func (DecorateRequest) isMessage()            {}
func (FormatFieldRequest) isMessage()         {}
func (ActionRequest) isMessage()              {}
func (NameResponse) isMessage()               {}
func (VersionResponse) isMessage()            {}
func (DescriptionResponse) isMessage()        {}
func (SupportedFormatsResponse) isMessage()   {}
func (DecoratedResponse) isMessage()          {}
func (FormattedFieldResponse) isMessage()     {}
func (ActionResponse) isMessage()             {}
func (ErrorResponse) isMessage()              {}
