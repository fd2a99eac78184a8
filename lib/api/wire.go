package api

import (
	"fmt"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
)

// The wire form is the protobuf encoding of the PluginMessage union in
// plugin.proto, assembled field by field with protowire. Host and plugin
// agree on tagged bytes, never on in-memory layout, so independently
// compiled binaries stay compatible.

// Field numbers of the PluginMessage oneof.
const (
	fieldGetName             protowire.Number = 1
	fieldGetVersion          protowire.Number = 2
	fieldGetDescription      protowire.Number = 3
	fieldGetSupportedFormats protowire.Number = 4
	fieldDecorate            protowire.Number = 5
	fieldFormatField         protowire.Number = 6
	fieldAction              protowire.Number = 7
	fieldNameResponse        protowire.Number = 8
	fieldVersionResponse     protowire.Number = 9
	fieldDescriptionResponse protowire.Number = 10
	fieldFormatsResponse     protowire.Number = 11
	fieldDecoratedResponse   protowire.Number = 12
	fieldFieldResponse       protowire.Number = 13
	fieldActionResponse      protowire.Number = 14
	fieldErrorResponse       protowire.Number = 15
)

// DecodeError reports wire bytes that could not be decoded into a Message:
// truncated input, an unknown union tag, or a field carried with the wrong
// wire type. It is always returned, never panicked.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "decode plugin message: " + e.Reason
}

func decodeErrorf(format string, args ...any) *DecodeError {
	return &DecodeError{Reason: fmt.Sprintf(format, args...)}
}

// EncodeMessage encodes a message into its wire form. It is total for
// messages constructed from this package; the only error is a nil message.
func EncodeMessage(m Message) ([]byte, error) {
	switch m := m.(type) {
	case GetNameRequest:
		return appendBool(nil, fieldGetName), nil
	case GetVersionRequest:
		return appendBool(nil, fieldGetVersion), nil
	case GetDescriptionRequest:
		return appendBool(nil, fieldGetDescription), nil
	case GetSupportedFormatsRequest:
		return appendBool(nil, fieldGetSupportedFormats), nil
	case DecorateRequest:
		return appendSub(nil, fieldDecorate, encodeEntry(m.Entry)), nil
	case FormatFieldRequest:
		sub := appendSub(nil, 1, encodeEntry(m.Entry))
		sub = appendString(sub, 2, m.Format)
		return appendSub(nil, fieldFormatField, sub), nil
	case ActionRequest:
		var sub []byte
		sub = appendString(sub, 1, m.Action)
		for _, arg := range m.Args {
			sub = protowire.AppendTag(sub, 2, protowire.BytesType)
			sub = protowire.AppendString(sub, arg)
		}
		return appendSub(nil, fieldAction, sub), nil
	case NameResponse:
		return appendTopString(fieldNameResponse, m.Name), nil
	case VersionResponse:
		return appendTopString(fieldVersionResponse, m.Version), nil
	case DescriptionResponse:
		return appendTopString(fieldDescriptionResponse, m.Description), nil
	case SupportedFormatsResponse:
		var sub []byte
		for _, f := range m.Formats {
			sub = protowire.AppendTag(sub, 1, protowire.BytesType)
			sub = protowire.AppendString(sub, f)
		}
		return appendSub(nil, fieldFormatsResponse, sub), nil
	case DecoratedResponse:
		return appendSub(nil, fieldDecoratedResponse, encodeEntry(m.Entry)), nil
	case FormattedFieldResponse:
		var sub []byte
		if m.Field != nil {
			sub = protowire.AppendTag(sub, 1, protowire.BytesType)
			sub = protowire.AppendString(sub, *m.Field)
		}
		return appendSub(nil, fieldFieldResponse, sub), nil
	case ActionResponse:
		var sub []byte
		if m.Err == nil {
			sub = protowire.AppendTag(sub, 1, protowire.VarintType)
			sub = protowire.AppendVarint(sub, 1)
		} else {
			sub = protowire.AppendTag(sub, 2, protowire.BytesType)
			sub = protowire.AppendString(sub, *m.Err)
		}
		return appendSub(nil, fieldActionResponse, sub), nil
	case ErrorResponse:
		return appendTopString(fieldErrorResponse, m.Message), nil
	case nil:
		return nil, fmt.Errorf("encode plugin message: nil message")
	default:
		return nil, fmt.Errorf("encode plugin message: unknown variant %T", m)
	}
}

// DecodeMessage decodes wire bytes into a message. Unknown union tags and
// malformed input produce a *DecodeError. Unknown fields inside nested
// messages are skipped, which is what keeps the schema versionable.
func DecodeMessage(b []byte) (Message, error) {
	if len(b) == 0 {
		return nil, decodeErrorf("empty input")
	}
	var msg Message
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, decodeErrorf("bad tag: %v", protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case fieldGetName, fieldGetVersion, fieldGetDescription, fieldGetSupportedFormats:
			if typ != protowire.VarintType {
				return nil, decodeErrorf("field %d: want varint, got wire type %d", num, typ)
			}
			_, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, decodeErrorf("field %d: %v", num, protowire.ParseError(n))
			}
			b = b[n:]
			switch num {
			case fieldGetName:
				msg = GetNameRequest{}
			case fieldGetVersion:
				msg = GetVersionRequest{}
			case fieldGetDescription:
				msg = GetDescriptionRequest{}
			case fieldGetSupportedFormats:
				msg = GetSupportedFormatsRequest{}
			}
		case fieldNameResponse, fieldVersionResponse, fieldDescriptionResponse, fieldErrorResponse:
			s, rest, err := consumeString(b, num, typ)
			if err != nil {
				return nil, err
			}
			b = rest
			switch num {
			case fieldNameResponse:
				msg = NameResponse{Name: s}
			case fieldVersionResponse:
				msg = VersionResponse{Version: s}
			case fieldDescriptionResponse:
				msg = DescriptionResponse{Description: s}
			case fieldErrorResponse:
				msg = ErrorResponse{Message: s}
			}
		case fieldDecorate, fieldDecoratedResponse:
			sub, rest, err := consumeSub(b, num, typ)
			if err != nil {
				return nil, err
			}
			b = rest
			entry, err := decodeEntry(sub)
			if err != nil {
				return nil, err
			}
			if num == fieldDecorate {
				msg = DecorateRequest{Entry: entry}
			} else {
				msg = DecoratedResponse{Entry: entry}
			}
		case fieldFormatField:
			sub, rest, err := consumeSub(b, num, typ)
			if err != nil {
				return nil, err
			}
			b = rest
			req, err := decodeFormatField(sub)
			if err != nil {
				return nil, err
			}
			msg = req
		case fieldAction:
			sub, rest, err := consumeSub(b, num, typ)
			if err != nil {
				return nil, err
			}
			b = rest
			req, err := decodeAction(sub)
			if err != nil {
				return nil, err
			}
			msg = req
		case fieldFormatsResponse:
			sub, rest, err := consumeSub(b, num, typ)
			if err != nil {
				return nil, err
			}
			b = rest
			resp, err := decodeFormats(sub)
			if err != nil {
				return nil, err
			}
			msg = resp
		case fieldFieldResponse:
			sub, rest, err := consumeSub(b, num, typ)
			if err != nil {
				return nil, err
			}
			b = rest
			resp, err := decodeField(sub)
			if err != nil {
				return nil, err
			}
			msg = resp
		case fieldActionResponse:
			sub, rest, err := consumeSub(b, num, typ)
			if err != nil {
				return nil, err
			}
			b = rest
			resp, err := decodeActionResult(sub)
			if err != nil {
				return nil, err
			}
			msg = resp
		default:
			return nil, decodeErrorf("unknown message tag %d", num)
		}
	}
	if msg == nil {
		return nil, decodeErrorf("no message variant set")
	}
	return msg, nil
}

func appendBool(b []byte, num protowire.Number) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, 1)
}

func appendSub(b []byte, num protowire.Number, sub []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, sub)
}

// appendString follows proto3 presence rules for fields inside nested
// messages: empty strings are omitted and read back as the zero value.
func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// appendTopString always emits the field: for the top-level oneof the tag
// itself marks which variant is set.
func appendTopString(num protowire.Number, s string) []byte {
	b := protowire.AppendTag(nil, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendUint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendFlag(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, 1)
}

func encodeMetadata(m EntryMetadata) []byte {
	var b []byte
	b = appendUint(b, 1, m.Size)
	b = appendUint(b, 2, m.Modified)
	b = appendUint(b, 3, m.Accessed)
	b = appendUint(b, 4, m.Created)
	b = appendFlag(b, 5, m.IsDir)
	b = appendFlag(b, 6, m.IsFile)
	b = appendFlag(b, 7, m.IsSymlink)
	b = appendUint(b, 8, uint64(m.Permissions))
	b = appendUint(b, 9, uint64(m.UID))
	b = appendUint(b, 10, uint64(m.GID))
	return b
}

func encodeEntry(e DecoratedEntry) []byte {
	var b []byte
	b = appendString(b, 1, e.Path)
	b = appendSub(b, 2, encodeMetadata(e.Metadata))
	keys := make([]string, 0, len(e.CustomFields))
	for k := range e.CustomFields {
		keys = append(keys, k)
	}
	sort.Strings(keys) // stable byte output for identical entries
	for _, k := range keys {
		var pair []byte
		pair = appendString(pair, 1, k)
		pair = appendString(pair, 2, e.CustomFields[k])
		b = appendSub(b, 3, pair)
	}
	return b
}

func consumeSub(b []byte, num protowire.Number, typ protowire.Type) ([]byte, []byte, error) {
	if typ != protowire.BytesType {
		return nil, nil, decodeErrorf("field %d: want length-delimited, got wire type %d", num, typ)
	}
	sub, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, nil, decodeErrorf("field %d: %v", num, protowire.ParseError(n))
	}
	return sub, b[n:], nil
}

func consumeString(b []byte, num protowire.Number, typ protowire.Type) (string, []byte, error) {
	sub, rest, err := consumeSub(b, num, typ)
	if err != nil {
		return "", nil, err
	}
	return string(sub), rest, nil
}

func consumeUint(b []byte, num protowire.Number, typ protowire.Type) (uint64, []byte, error) {
	if typ != protowire.VarintType {
		return 0, nil, decodeErrorf("field %d: want varint, got wire type %d", num, typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, nil, decodeErrorf("field %d: %v", num, protowire.ParseError(n))
	}
	return v, b[n:], nil
}

// skipField drops an unknown nested field so newer peers can add fields
// without breaking older ones.
func skipField(b []byte, num protowire.Number, typ protowire.Type) ([]byte, error) {
	n := protowire.ConsumeFieldValue(num, typ, b)
	if n < 0 {
		return nil, decodeErrorf("field %d: %v", num, protowire.ParseError(n))
	}
	return b[n:], nil
}

func decodeMetadata(b []byte) (EntryMetadata, error) {
	var m EntryMetadata
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return m, decodeErrorf("metadata: bad tag: %v", protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case 1, 2, 3, 4, 5, 6, 7, 8, 9, 10:
			v, rest, err := consumeUint(b, num, typ)
			if err != nil {
				return m, err
			}
			b = rest
			switch num {
			case 1:
				m.Size = v
			case 2:
				m.Modified = v
			case 3:
				m.Accessed = v
			case 4:
				m.Created = v
			case 5:
				m.IsDir = v != 0
			case 6:
				m.IsFile = v != 0
			case 7:
				m.IsSymlink = v != 0
			case 8:
				m.Permissions = uint32(v)
			case 9:
				m.UID = uint32(v)
			case 10:
				m.GID = uint32(v)
			}
		default:
			rest, err := skipField(b, num, typ)
			if err != nil {
				return m, err
			}
			b = rest
		}
	}
	return m, nil
}

func decodeEntry(b []byte) (DecoratedEntry, error) {
	e := DecoratedEntry{CustomFields: make(map[string]string)}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return e, decodeErrorf("entry: bad tag: %v", protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case 1:
			s, rest, err := consumeString(b, num, typ)
			if err != nil {
				return e, err
			}
			e.Path = s
			b = rest
		case 2:
			sub, rest, err := consumeSub(b, num, typ)
			if err != nil {
				return e, err
			}
			meta, err := decodeMetadata(sub)
			if err != nil {
				return e, err
			}
			e.Metadata = meta
			b = rest
		case 3:
			sub, rest, err := consumeSub(b, num, typ)
			if err != nil {
				return e, err
			}
			k, v, err := decodeMapPair(sub)
			if err != nil {
				return e, err
			}
			e.CustomFields[k] = v
			b = rest
		default:
			rest, err := skipField(b, num, typ)
			if err != nil {
				return e, err
			}
			b = rest
		}
	}
	return e, nil
}

func decodeMapPair(b []byte) (string, string, error) {
	var k, v string
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", "", decodeErrorf("custom field: bad tag: %v", protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case 1:
			s, rest, err := consumeString(b, num, typ)
			if err != nil {
				return "", "", err
			}
			k = s
			b = rest
		case 2:
			s, rest, err := consumeString(b, num, typ)
			if err != nil {
				return "", "", err
			}
			v = s
			b = rest
		default:
			rest, err := skipField(b, num, typ)
			if err != nil {
				return "", "", err
			}
			b = rest
		}
	}
	return k, v, nil
}

func decodeFormatField(b []byte) (FormatFieldRequest, error) {
	var req FormatFieldRequest
	req.Entry.CustomFields = make(map[string]string)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return req, decodeErrorf("format field request: bad tag: %v", protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case 1:
			sub, rest, err := consumeSub(b, num, typ)
			if err != nil {
				return req, err
			}
			entry, err := decodeEntry(sub)
			if err != nil {
				return req, err
			}
			req.Entry = entry
			b = rest
		case 2:
			s, rest, err := consumeString(b, num, typ)
			if err != nil {
				return req, err
			}
			req.Format = s
			b = rest
		default:
			rest, err := skipField(b, num, typ)
			if err != nil {
				return req, err
			}
			b = rest
		}
	}
	return req, nil
}

func decodeAction(b []byte) (ActionRequest, error) {
	var req ActionRequest
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return req, decodeErrorf("action request: bad tag: %v", protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case 1:
			s, rest, err := consumeString(b, num, typ)
			if err != nil {
				return req, err
			}
			req.Action = s
			b = rest
		case 2:
			s, rest, err := consumeString(b, num, typ)
			if err != nil {
				return req, err
			}
			req.Args = append(req.Args, s)
			b = rest
		default:
			rest, err := skipField(b, num, typ)
			if err != nil {
				return req, err
			}
			b = rest
		}
	}
	return req, nil
}

func decodeFormats(b []byte) (SupportedFormatsResponse, error) {
	var resp SupportedFormatsResponse
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return resp, decodeErrorf("formats response: bad tag: %v", protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case 1:
			s, rest, err := consumeString(b, num, typ)
			if err != nil {
				return resp, err
			}
			resp.Formats = append(resp.Formats, s)
			b = rest
		default:
			rest, err := skipField(b, num, typ)
			if err != nil {
				return resp, err
			}
			b = rest
		}
	}
	return resp, nil
}

func decodeField(b []byte) (FormattedFieldResponse, error) {
	var resp FormattedFieldResponse
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return resp, decodeErrorf("field response: bad tag: %v", protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case 1:
			s, rest, err := consumeString(b, num, typ)
			if err != nil {
				return resp, err
			}
			resp.Field = &s
			b = rest
		default:
			rest, err := skipField(b, num, typ)
			if err != nil {
				return resp, err
			}
			b = rest
		}
	}
	return resp, nil
}

func decodeActionResult(b []byte) (ActionResponse, error) {
	var resp ActionResponse
	success := false
	errSet := false
	var errText string
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return resp, decodeErrorf("action response: bad tag: %v", protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case 1:
			v, rest, err := consumeUint(b, num, typ)
			if err != nil {
				return resp, err
			}
			success = v != 0
			b = rest
		case 2:
			s, rest, err := consumeString(b, num, typ)
			if err != nil {
				return resp, err
			}
			errText = s
			errSet = true
			b = rest
		default:
			rest, err := skipField(b, num, typ)
			if err != nil {
				return resp, err
			}
			b = rest
		}
	}
	if !success {
		if !errSet {
			errText = "unknown error"
		}
		resp.Err = &errText
	}
	return resp, nil
}
