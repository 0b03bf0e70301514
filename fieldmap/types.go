package fieldmap

import "sort"

// FieldType is the vendor's field type discriminator. The set is open;
// values the client has no special handling for are kept verbatim.
type FieldType string

const (
	FieldTypeText   FieldType = "text"
	FieldTypeChoice FieldType = "choice"
	FieldTypeDate   FieldType = "date"
	FieldTypeNumber FieldType = "number"
)

// Option is one allowed value of a choice field. Label is stored exactly as
// the vendor returns it, spacing quirks included; matching always goes
// through Normalize.
type Option struct {
	ID    int
	Label string
}

// FieldDefinition is the vendor-supplied metadata for one property field.
// Immutable once fetched; identified by Key.
type FieldDefinition struct {
	ID       int
	Key      string
	Title    string
	Type     FieldType
	Required bool
	Options  []Option
}

// OptionLabels returns the verbatim option labels, sorted.
func (f *FieldDefinition) OptionLabels() []string {
	labels := make([]string, 0, len(f.Options))
	for _, o := range f.Options {
		labels = append(labels, o.Label)
	}
	sort.Strings(labels)
	return labels
}

func (f *FieldDefinition) findOption(value string) (Option, bool) {
	want := Normalize(value)
	for _, o := range f.Options {
		if Normalize(o.Label) == want {
			return o, true
		}
	}
	return Option{}, false
}
