package plugin

import (
	"errors"
	"fmt"
	"slices"

	"github.com/triyanox/lla/lib/api"
)

// The dispatch pass: once per entry, once per needed format, strictly
// sequential. Plugin code is third-party and may lean on process-global
// state, so no plugin is ever called concurrently with another.

// supportsFormat re-queries the plugin's advertised formats. Advertised
// formats are expected to stay stable for the process lifetime, but the
// runtime does not cache them.
func (r *Registry) supportsFormat(h *Handle, format string) bool {
	resp, err := h.Send(api.GetSupportedFormatsRequest{})
	if err != nil {
		r.log.Debugf("plugin %s: supported formats query failed: %v", h.Name(), err)
		return false
	}
	formats, ok := resp.(api.SupportedFormatsResponse)
	if !ok {
		return false
	}
	return slices.Contains(formats.Formats, format)
}

// DecorateEntry runs the entry through every enabled plugin that supports
// format, in registration order. Each plugin's response replaces the
// running entry, so a later plugin sees every earlier mutation and two
// plugins writing the same custom-field key resolve to the last writer. A
// plugin that answers with an error, or with anything other than a
// decorated entry, leaves the running entry unchanged.
func (r *Registry) DecorateEntry(entry *api.DecoratedEntry, format string) {
	if len(r.enabled) == 0 {
		return
	}
	if entry.CustomFields == nil {
		entry.CustomFields = make(map[string]string)
	}

	cacheKey := entry.Path + "\x00" + format
	if fields, ok := r.decorations.Get(cacheKey); ok {
		for k, v := range fields {
			entry.CustomFields[k] = v
		}
		return
	}

	contributed := make(map[string]string)
	for _, name := range r.order {
		if !r.IsEnabled(name) {
			continue
		}
		h := r.handles[name]
		if !r.supportsFormat(h, format) {
			continue
		}
		resp, err := h.Send(api.DecorateRequest{Entry: *entry})
		if err != nil {
			r.log.Debugf("plugin %s: decorate failed: %v", name, err)
			continue
		}
		decorated, ok := resp.(api.DecoratedResponse)
		if !ok {
			r.log.Debugf("plugin %s: decorate answered %T, entry unchanged", name, resp)
			continue
		}
		for k, v := range decorated.Entry.CustomFields {
			contributed[k] = v
		}
		*entry = decorated.Entry
	}

	if len(contributed) > 0 {
		r.decorations.Add(cacheKey, contributed)
	}
}

// FormatFields collects one optional text fragment per enabled,
// format-supporting plugin, in registration order. Declined (empty)
// fragments are filtered out; how the fragments compose is the renderer's
// business.
func (r *Registry) FormatFields(entry *api.DecoratedEntry, format string) []string {
	if len(r.enabled) == 0 {
		return nil
	}
	var fields []string
	for _, name := range r.order {
		if !r.IsEnabled(name) {
			continue
		}
		h := r.handles[name]
		if !r.supportsFormat(h, format) {
			continue
		}
		resp, err := h.Send(api.FormatFieldRequest{Entry: *entry, Format: format})
		if err != nil {
			r.log.Debugf("plugin %s: format field failed: %v", name, err)
			continue
		}
		field, ok := resp.(api.FormattedFieldResponse)
		if !ok || field.Field == nil || *field.Field == "" {
			continue
		}
		fields = append(fields, *field.Field)
	}
	return fields
}

// PerformAction routes a named action with string arguments to the plugin
// with exactly that name. Enabled state is not consulted: disabled plugins
// can still run actions. The plugin's own error text is surfaced
// unchanged.
func (r *Registry) PerformAction(name, action string, args []string) error {
	h, ok := r.handles[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	resp, err := h.Send(api.ActionRequest{Action: action, Args: args})
	if err != nil {
		return err
	}
	switch resp := resp.(type) {
	case api.ActionResponse:
		if resp.Err != nil {
			return errors.New(*resp.Err)
		}
		return nil
	case api.ErrorResponse:
		return errors.New(resp.Message)
	default:
		return fmt.Errorf("plugin %s: unexpected response %T to action %q", name, resp, action)
	}
}
