package fieldmap

import (
	json "github.com/goccy/go-json"
)

// flexInt accepts number or numeric-string JSON; the vendor is not
// consistent about which it sends for IDs.
type flexInt int

func (v *flexInt) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		var n json.Number = json.Number(s)
		i, err := n.Int64()
		if err != nil {
			*v = 0
			return nil
		}
		*v = flexInt(i)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	i, err := n.Int64()
	if err != nil {
		*v = 0
		return nil
	}
	*v = flexInt(i)
	return nil
}

// flexBool accepts true/false as well as 0/1.
type flexBool bool

func (v *flexBool) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case "true", "1", `"1"`, `"true"`:
		*v = true
	default:
		*v = false
	}
	return nil
}

// ParseFieldGroups flattens the vendor's /propertyFields payload into field
// definitions. The wire shape is a list of group wrappers, each holding
// section wrappers, each holding fields; options carry their label under
// either "title" or "label" depending on endpoint vintage. Decoding is
// deliberately defensive: entries without a key are skipped, not failed.
func ParseFieldGroups(raw []byte) ([]FieldDefinition, error) {
	type wOption struct {
		ID    flexInt `json:"id"`
		Title string  `json:"title"`
		Label string  `json:"label"`
	}
	type wField struct {
		ID       flexInt   `json:"id"`
		Key      string    `json:"key"`
		Title    string    `json:"title"`
		Type     string    `json:"type"`
		Required flexBool  `json:"required"`
		Options  []wOption `json:"options"`
	}
	type wSection struct {
		Section struct {
			Title  string   `json:"title"`
			Fields []wField `json:"fields"`
		} `json:"section"`
	}
	type wGroup struct {
		Group struct {
			Title    string     `json:"title"`
			Sections []wSection `json:"sections"`
		} `json:"group"`
	}

	var groups []wGroup
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, err
	}

	var out []FieldDefinition
	for _, g := range groups {
		for _, s := range g.Group.Sections {
			for _, f := range s.Section.Fields {
				if f.Key == "" {
					continue
				}
				def := FieldDefinition{
					ID:       int(f.ID),
					Key:      f.Key,
					Title:    f.Title,
					Type:     FieldType(f.Type),
					Required: bool(f.Required),
				}
				for _, o := range f.Options {
					label := o.Title
					if label == "" {
						label = o.Label
					}
					if label == "" {
						continue
					}
					def.Options = append(def.Options, Option{ID: int(o.ID), Label: label})
				}
				out = append(out, def)
			}
		}
	}
	return out, nil
}
