package plugin

import (
	"fmt"
	goplugin "plugin"

	"github.com/google/uuid"

	"github.com/triyanox/lla/lib/api"
)

// Handle is the host-side representation of one loaded plugin: its identity
// (queried over the wire once at load time), the library reference that
// keeps the code resident for the process lifetime, and the raw request
// function everything else goes through.
type Handle struct {
	id          uuid.UUID
	name        string
	version     string
	description string
	path        string

	// lib pins the dynamic library. It is nil for in-process handles and
	// is never closed; unloading a library whose code may still be
	// reachable is unsafe, so the host simply does not do it.
	lib  *goplugin.Plugin
	call func([]byte) []byte
}

// NewHandle wraps a raw request handler and resolves the plugin's identity
// through GetName, GetVersion and GetDescription. lib may be nil for
// handlers that live in the host process (tests, built-ins).
func NewHandle(path string, lib *goplugin.Plugin, call func([]byte) []byte) (*Handle, error) {
	if call == nil {
		return nil, loadErrorf(path, "nil request handler")
	}
	h := &Handle{
		id:   uuid.New(),
		path: path,
		lib:  lib,
		call: call,
	}

	resp, err := h.Send(api.GetNameRequest{})
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	name, ok := resp.(api.NameResponse)
	if !ok {
		return nil, loadErrorf(path, "plugin answered %T to a name request", resp)
	}
	if name.Name == "" {
		return nil, loadErrorf(path, "plugin reported an empty name")
	}
	h.name = name.Name

	if resp, err := h.Send(api.GetVersionRequest{}); err == nil {
		if v, ok := resp.(api.VersionResponse); ok {
			h.version = v.Version
		}
	}
	if resp, err := h.Send(api.GetDescriptionRequest{}); err == nil {
		if d, ok := resp.(api.DescriptionResponse); ok {
			h.description = d.Description
		}
	}
	return h, nil
}

// Send encodes one request, calls into the plugin synchronously, and
// decodes the response. There is no timeout: a plugin that blocks forever
// stalls the caller, which is the documented tradeoff of the in-process
// boundary.
func (h *Handle) Send(msg api.Message) (api.Message, error) {
	req, err := api.EncodeMessage(msg)
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %w", h.name, err)
	}
	raw := h.call(req)
	resp, err := api.DecodeMessage(raw)
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %w", h.name, err)
	}
	return resp, nil
}

// ID is the per-load instance id used in host logs.
func (h *Handle) ID() uuid.UUID { return h.id }

// Name is the plugin's stable identity within a registry.
func (h *Handle) Name() string { return h.name }

func (h *Handle) Version() string { return h.version }

func (h *Handle) Description() string { return h.description }

// Path is the canonical library path the handle was loaded from; empty for
// in-process handles.
func (h *Handle) Path() string { return h.path }
