// Package fieldmap translates human-friendly property field names and choice
// values into the vendor's numeric field and option IDs. Field metadata is
// fetched once, cached in-process, and replaced wholesale on refresh; nothing
// is persisted and no option labels are hard-coded, since the canonical label
// set is owned by the vendor and discovered at runtime.
package fieldmap

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/yourorg/opentoclose-go/apierr"
)

// Fetcher performs the single metadata fetch the resolver caches. Transport
// errors are returned to callers unchanged.
type Fetcher interface {
	FetchFieldDefinitions(ctx context.Context) ([]FieldDefinition, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) ([]FieldDefinition, error)

func (f FetcherFunc) FetchFieldDefinitions(ctx context.Context) ([]FieldDefinition, error) {
	return f(ctx)
}

// defaultAliases maps legacy simplified names onto vendor field keys.
var defaultAliases = map[string]string{
	"title":       "contract_title",
	"client_type": "contract_client_type",
	"status":      "contract_status",
	"address":     "property_address",
	"city":        "property_city",
	"state":       "property_state",
	"zip_code":    "property_zip",
}

// table is one immutable cache generation. Lookups never mutate it; refresh
// builds a new one and swaps the pointer.
type table struct {
	byKey  map[string]*FieldDefinition
	fields []FieldDefinition
}

// Resolver owns the field-mapping cache for one client instance. Reads are
// lock-free once loaded; load and refresh serialize on the mutex so the
// metadata fetch runs at most once per cache generation.
type Resolver struct {
	fetch   Fetcher
	aliases map[string]string

	mu    sync.Mutex
	cache atomic.Pointer[table]
}

func NewResolver(fetch Fetcher) *Resolver {
	return &Resolver{fetch: fetch, aliases: defaultAliases}
}

// EnsureLoaded populates the cache on first use. A caller arriving during an
// in-flight fetch blocks on the mutex and reuses the result instead of
// issuing a duplicate fetch.
func (r *Resolver) EnsureLoaded(ctx context.Context) error {
	if r.cache.Load() != nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cache.Load() != nil {
		// another caller loaded while we waited
		return nil
	}
	return r.load(ctx)
}

// Refresh unconditionally re-fetches and atomically swaps the cache. Readers
// holding the old table are never blocked mid-swap.
func (r *Resolver) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *Resolver) load(ctx context.Context) error {
	defs, err := r.fetch.FetchFieldDefinitions(ctx)
	if err != nil {
		return err
	}
	t := &table{byKey: make(map[string]*FieldDefinition, len(defs)), fields: defs}
	for i := range t.fields {
		t.byKey[t.fields[i].Key] = &t.fields[i]
	}
	r.cache.Store(t)
	return nil
}

func (r *Resolver) loaded(ctx context.Context) (*table, error) {
	if err := r.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	return r.cache.Load(), nil
}

// ResolveField looks name up directly, then through the alias table.
func (r *Resolver) ResolveField(ctx context.Context, name string) (*FieldDefinition, error) {
	t, err := r.loaded(ctx)
	if err != nil {
		return nil, err
	}
	return t.resolve(r.aliases, name)
}

func (t *table) resolve(aliases map[string]string, name string) (*FieldDefinition, error) {
	if f, ok := t.byKey[name]; ok {
		return f, nil
	}
	if canonical, ok := aliases[name]; ok {
		if f, ok := t.byKey[canonical]; ok {
			return f, nil
		}
	}
	return nil, apierr.Validationf("Unknown field: %s", name)
}

// ResolveOption matches value against the field's options under Normalize
// and returns the numeric option ID.
func (r *Resolver) ResolveOption(field *FieldDefinition, value string) (int, error) {
	opt, ok := field.findOption(value)
	if !ok {
		return 0, apierr.NewValidationError(optionMismatch(field.Key, field, value))
	}
	return opt.ID, nil
}

func optionMismatch(name string, field *FieldDefinition, value string) string {
	return fmt.Sprintf("Invalid %s: %s. Must be one of: %s",
		name, value, strings.Join(field.OptionLabels(), ", "))
}

// Fields returns a snapshot of every known definition, loading the cache if
// needed.
func (r *Resolver) Fields(ctx context.Context) ([]FieldDefinition, error) {
	t, err := r.loaded(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]FieldDefinition, len(t.fields))
	copy(out, t.fields)
	return out, nil
}

// TranslateOptions selects the output mode for choice fields.
type TranslateOptions struct {
	// PreserveText keeps the caller's option text verbatim instead of
	// substituting the numeric option ID. The text is still validated
	// against the field's options under the shared normalization rule, so
	// the vendor UI can pre-select the matching dropdown entry.
	PreserveText bool
}

// Each payload key takes exactly one handling path; the shape is decided
// once, up front, not inferred at access time.
type entryKind int

const (
	entryNative  entryKind = iota // vendor-native {id,value} shape, bypasses translation
	entryUnknown                  // no field or alias by that name
	entryKnown
)

type payloadEntry struct {
	kind  entryKind
	field *FieldDefinition
}

func (t *table) classify(aliases map[string]string, key string, value any) payloadEntry {
	if isNativeShape(key, value) {
		return payloadEntry{kind: entryNative}
	}
	f, err := t.resolve(aliases, key)
	if err != nil {
		return payloadEntry{kind: entryUnknown}
	}
	return payloadEntry{kind: entryKnown, field: f}
}

// isNativeShape reports values already expressed in the vendor's raw format:
// the top-level "fields" array, or an object carrying id/value. These bypass
// translation entirely so pre-existing raw payloads keep working.
func isNativeShape(key string, value any) bool {
	if key == "fields" {
		switch value.(type) {
		case []any, []map[string]any:
			return true
		}
	}
	if m, ok := value.(map[string]any); ok {
		_, hasID := m["id"]
		_, hasValue := m["value"]
		return hasID && hasValue
	}
	return false
}

// Translate rewrites payload onto canonical vendor field keys, substituting
// choice text for option IDs (or, in PreserveText mode, validating the text
// and passing it through verbatim). Unknown keys and vendor-native shapes
// pass through unmodified. Fails fast on the first bad value; omission of
// required fields is not checked here, the server owns that.
func (r *Resolver) Translate(ctx context.Context, payload map[string]any, opts ...TranslateOptions) (map[string]any, error) {
	t, err := r.loaded(ctx)
	if err != nil {
		return nil, err
	}
	var mode TranslateOptions
	if len(opts) > 0 {
		mode = opts[0]
	}

	out := make(map[string]any, len(payload))
	for _, key := range sortedKeys(payload) {
		value := payload[key]
		entry := t.classify(r.aliases, key, value)
		switch entry.kind {
		case entryNative, entryUnknown:
			out[key] = value
		case entryKnown:
			translated, err := translateValue(entry.field, key, value, mode)
			if err != nil {
				return nil, err
			}
			out[entry.field.Key] = translated
		}
	}
	return out, nil
}

func translateValue(field *FieldDefinition, name string, value any, mode TranslateOptions) (any, error) {
	if field.Type != FieldTypeChoice {
		return value, nil
	}
	text, ok := value.(string)
	if !ok {
		// already an option ID; numeric values pass unchanged
		return value, nil
	}
	opt, found := field.findOption(text)
	if !found {
		return nil, apierr.NewValidationError(optionMismatch(name, field, text))
	}
	if mode.PreserveText {
		return text, nil
	}
	return opt.ID, nil
}

// Validate runs the same resolution as Translate but collects every problem
// instead of failing on the first, and never returns an error for data
// content. Only a transport failure during the implicit cache load surfaces
// as an error.
func (r *Resolver) Validate(ctx context.Context, payload map[string]any) (bool, []string, error) {
	t, err := r.loaded(ctx)
	if err != nil {
		return false, nil, err
	}

	var msgs []string
	for _, key := range sortedKeys(payload) {
		value := payload[key]
		entry := t.classify(r.aliases, key, value)
		switch entry.kind {
		case entryNative:
		case entryUnknown:
			msgs = append(msgs, fmt.Sprintf("Unknown field: %s", key))
		case entryKnown:
			if _, err := translateValue(entry.field, key, value, TranslateOptions{}); err != nil {
				var verr *apierr.ValidationError
				if errors.As(err, &verr) {
					msgs = append(msgs, verr.Message)
				} else {
					msgs = append(msgs, err.Error())
				}
			}
		}
	}
	return len(msgs) == 0, msgs, nil
}

// sortedKeys keeps translation and validation output deterministic.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
