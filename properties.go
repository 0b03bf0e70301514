package opentoclose

import (
	"context"
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/yourorg/opentoclose-go/apierr"
	"github.com/yourorg/opentoclose-go/fieldmap"
	"github.com/yourorg/opentoclose-go/rest"
)

// PropertiesService manages properties. Create and Update accept
// human-friendly payloads and run them through the field-mapping resolver;
// payloads already in the vendor's native fields-array format bypass
// translation.
type PropertiesService struct {
	rest     *rest.Client
	resolver *fieldmap.Resolver
	teams    *TeamsService
}

// CreateOptions tune property creation. Zero values mean auto-detect the
// team member and use the vendor's default time zone.
type CreateOptions struct {
	TeamMemberID int
	TimeZoneID   int

	// PreserveText validates choice labels against the vendor's option set
	// but keeps them as text on the wire instead of substituting option IDs,
	// so the vendor UI can pre-select the matching dropdown entry.
	PreserveText bool
}

// UpdateOptions tune property updates.
type UpdateOptions struct {
	// PreserveText works as in CreateOptions.
	PreserveText bool
}

func (s *PropertiesService) List(ctx context.Context, params *ListParams) ([]rest.Record, error) {
	v, err := params.values()
	if err != nil {
		return nil, err
	}
	res, err := s.rest.Get(ctx, "/properties", v)
	if err != nil {
		return nil, err
	}
	return rest.AsRecords(res, "/properties")
}

func (s *PropertiesService) Retrieve(ctx context.Context, id int) (rest.Record, error) {
	if err := validateID(id, "property"); err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("/properties/%d", id)
	res, err := s.rest.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return rest.AsRecord(res, endpoint)
}

func (s *PropertiesService) Delete(ctx context.Context, id int) (rest.Record, error) {
	if err := validateID(id, "property"); err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("/properties/%d", id)
	res, err := s.rest.Delete(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return rest.AsRecord(res, endpoint)
}

// Create makes a new property. data may use simplified field names and
// human-readable choice labels; it is translated to the vendor's
// fields-array format. A payload that already carries "fields" and
// "team_member_id" is treated as native and sent as-is.
func (s *PropertiesService) Create(ctx context.Context, data map[string]any, opts ...CreateOptions) (rest.Record, error) {
	if len(data) == 0 {
		return nil, apierr.NewValidationError("property data cannot be empty")
	}

	var opt CreateOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	payload, err := s.prepare(ctx, data, opt)
	if err != nil {
		return nil, err
	}

	// the create endpoint requires the trailing slash
	res, err := s.rest.Post(ctx, "/properties/", payload)
	if err != nil {
		return nil, err
	}
	return rest.AsRecord(res, "/properties/")
}

// CreateFromTitle is the minimal create: just a contract title.
func (s *PropertiesService) CreateFromTitle(ctx context.Context, title string, opts ...CreateOptions) (rest.Record, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apierr.NewValidationError("property title cannot be empty")
	}
	return s.Create(ctx, map[string]any{"title": strings.TrimSpace(title)}, opts...)
}

// Update modifies a property. data goes through the same translation as
// Create, so simplified names and choice labels work here too.
func (s *PropertiesService) Update(ctx context.Context, id int, data map[string]any, opts ...UpdateOptions) (rest.Record, error) {
	if err := validateID(id, "property"); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, apierr.NewValidationError("property data cannot be empty")
	}
	var opt UpdateOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	translated, err := s.resolver.Translate(ctx, data, fieldmap.TranslateOptions{PreserveText: opt.PreserveText})
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("/properties/%d", id)
	res, err := s.rest.Put(ctx, endpoint, translated)
	if err != nil {
		return nil, err
	}
	return rest.AsRecord(res, endpoint)
}

// Fields returns the raw grouped field metadata from /propertyFields.
func (s *PropertiesService) Fields(ctx context.Context) ([]rest.Record, error) {
	res, err := s.rest.Get(ctx, "/propertyFields", nil)
	if err != nil {
		return nil, err
	}
	return rest.AsRecords(res, "/propertyFields")
}

// Translate exposes the resolver's translation for callers that want the
// canonical payload without sending it. Pass PreserveText to keep choice
// labels verbatim for the vendor UI.
func (s *PropertiesService) Translate(ctx context.Context, payload map[string]any, opts ...fieldmap.TranslateOptions) (map[string]any, error) {
	return s.resolver.Translate(ctx, payload, opts...)
}

// prepare converts caller data into the vendor's create format:
// {team_member_id, time_zone_id, fields: [{id, value}, ...]}.
func (s *PropertiesService) prepare(ctx context.Context, data map[string]any, opt CreateOptions) (rest.Record, error) {
	if isNativeCreate(data) {
		if _, ok := data["fields"].([]any); !ok {
			if _, ok := data["fields"].([]map[string]any); !ok {
				return nil, apierr.NewValidationError(`native format "fields" must be a list`)
			}
		}
		out := make(rest.Record, len(data))
		for k, v := range data {
			out[k] = v
		}
		return out, nil
	}

	translated, err := s.resolver.Translate(ctx, data, fieldmap.TranslateOptions{PreserveText: opt.PreserveText})
	if err != nil {
		return nil, err
	}
	if err := s.requireTitle(ctx, translated); err != nil {
		return nil, err
	}

	fields, err := s.fieldArray(ctx, translated)
	if err != nil {
		return nil, err
	}

	teamID := opt.TeamMemberID
	if teamID == 0 {
		teamID, err = s.detectTeamMember(ctx)
		if err != nil {
			return nil, err
		}
	}
	tz := opt.TimeZoneID
	if tz == 0 {
		tz = 1
	}

	return rest.Record{
		"team_member_id": teamID,
		"time_zone_id":   tz,
		"fields":         fields,
	}, nil
}

func isNativeCreate(data map[string]any) bool {
	_, hasFields := data["fields"]
	_, hasTeam := data["team_member_id"]
	return hasFields && hasTeam
}

func (s *PropertiesService) requireTitle(ctx context.Context, translated map[string]any) error {
	if v, ok := translated["contract_title"]; ok {
		if t, ok := v.(string); !ok || strings.TrimSpace(t) == "" {
			return apierr.Validationf("contract_title must be a non-empty string, got: %v", v)
		}
		return nil
	}
	// a native fields array may carry the title instead, keyed either by
	// "contract_title" or by the field's numeric ID
	titleID := 0
	if def, err := s.resolver.ResolveField(ctx, "contract_title"); err == nil {
		titleID = def.ID
	}
	if list, ok := translated["fields"].([]any); ok {
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if m["key"] == "contract_title" {
				return nil
			}
			if id, ok := intValue(m["id"]); ok && titleID != 0 && id == titleID {
				return nil
			}
		}
	}
	return apierr.NewValidationError("property title is required (use 'title' or 'contract_title' field)")
}

// fieldArray maps a canonical-key payload onto the vendor's fields array.
// Keys the vendor does not know are skipped with a warning rather than
// failed, matching the server's own leniency.
func (s *PropertiesService) fieldArray(ctx context.Context, translated map[string]any) ([]rest.Record, error) {
	var fields []rest.Record
	for _, key := range sortedRecordKeys(translated) {
		value := translated[key]
		if key == "fields" {
			if list, ok := value.([]any); ok {
				for _, item := range list {
					if m, ok := item.(map[string]any); ok {
						fields = append(fields, m)
					}
				}
				continue
			}
		}
		def, err := s.resolver.ResolveField(ctx, key)
		if err != nil {
			s.rest.Logger().Warn("skipping unknown property field", "field", key)
			continue
		}
		fields = append(fields, rest.Record{"id": def.ID, "value": wireValue(def, value)})
	}
	return fields, nil
}

// wireValue keeps numeric option IDs numeric and stringifies everything
// else, which is what the vendor's ingestion path expects.
func wireValue(def *fieldmap.FieldDefinition, value any) any {
	if def.Type == fieldmap.FieldTypeChoice {
		switch value.(type) {
		case int, int64, float64, json.Number:
			return value
		}
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func (s *PropertiesService) detectTeamMember(ctx context.Context) (int, error) {
	teams, err := s.teams.List(ctx, nil)
	if err != nil {
		return 0, err
	}
	for _, team := range teams {
		members, ok := team["team_members"].([]any)
		if !ok || len(members) == 0 {
			continue
		}
		if m, ok := members[0].(map[string]any); ok {
			if id, ok := intValue(m["id"]); ok && id > 0 {
				return id, nil
			}
		}
	}
	return 0, apierr.NewValidationError("no team members found in any teams; pass CreateOptions.TeamMemberID")
}

func intValue(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		var n json.Number = json.Number(t)
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

// deterministic wire order keeps request logs and tests stable
func sortedRecordKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
