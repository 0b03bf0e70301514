package opentoclose

import (
	"context"
	"sort"

	"github.com/yourorg/opentoclose-go/fieldmap"
	"github.com/yourorg/opentoclose-go/rest"
)

// Client is the entry point to the Open To Close API. Each resource has its
// own service; they all share one transport and one field-mapping cache.
type Client struct {
	Properties        *PropertiesService
	Agents            *AgentsService
	Contacts          *ContactsService
	Teams             *TeamsService
	Users             *UsersService
	Tags              *TagsService
	PropertyContacts  *PropertyContactsService
	PropertyDocuments *PropertyDocumentsService
	PropertyEmails    *PropertyEmailsService
	PropertyNotes     *PropertyNotesService
	PropertyTasks     *PropertyTasksService

	rest     *rest.Client
	resolver *fieldmap.Resolver
}

// New builds a client. The API key comes from cfg or the
// OPEN_TO_CLOSE_API_KEY environment variable; construction fails with an
// AuthenticationError when neither is set.
func New(cfg Config) (*Client, error) {
	rc, err := rest.NewClient(cfg.rest())
	if err != nil {
		return nil, err
	}

	c := &Client{rest: rc}
	c.resolver = fieldmap.NewResolver(fieldmap.FetcherFunc(c.fetchFieldDefinitions))

	c.Teams = &TeamsService{crud: crud{rest: rc, base: "/teams", name: "team"}}
	c.Agents = &AgentsService{crud: crud{rest: rc, base: "/agents", name: "agent"}}
	c.Contacts = &ContactsService{crud: crud{rest: rc, base: "/contacts", name: "contact"}}
	c.Users = &UsersService{crud: crud{rest: rc, base: "/users", name: "user"}}
	c.Tags = &TagsService{crud: crud{rest: rc, base: "/tags", name: "tag"}}

	c.Properties = &PropertiesService{rest: rc, resolver: c.resolver, teams: c.Teams}
	c.PropertyContacts = &PropertyContactsService{sub: subResource{rest: rc, path: "contacts", name: "property contact"}}
	c.PropertyDocuments = &PropertyDocumentsService{sub: subResource{rest: rc, path: "documents", name: "property document"}}
	c.PropertyEmails = &PropertyEmailsService{sub: subResource{rest: rc, path: "emails", name: "property email"}}
	c.PropertyNotes = &PropertyNotesService{sub: subResource{rest: rc, path: "notes", name: "property note"}}
	c.PropertyTasks = &PropertyTasksService{sub: subResource{rest: rc, path: "tasks", name: "property task"}}
	return c, nil
}

// fetchFieldDefinitions is the resolver's one outbound collaborator call.
func (c *Client) fetchFieldDefinitions(ctx context.Context) ([]fieldmap.FieldDefinition, error) {
	raw, err := c.rest.GetRaw(ctx, "/propertyFields", nil)
	if err != nil {
		return nil, err
	}
	return fieldmap.ParseFieldGroups(raw)
}

// FieldInfo is the discovery view of one field definition.
type FieldInfo struct {
	Name     string             `json:"name"`
	ID       int                `json:"id"`
	Type     fieldmap.FieldType `json:"type"`
	Title    string             `json:"title"`
	Required bool               `json:"required"`
	Options  []string           `json:"options,omitempty"`
}

// ListAvailableFields reports every property field the vendor currently
// accepts, required fields first, then by name. Option labels are verbatim
// and sorted.
func (c *Client) ListAvailableFields(ctx context.Context) ([]FieldInfo, error) {
	defs, err := c.resolver.Fields(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]FieldInfo, 0, len(defs))
	for i := range defs {
		f := &defs[i]
		info := FieldInfo{
			Name:     f.Key,
			ID:       f.ID,
			Type:     f.Type,
			Title:    f.Title,
			Required: f.Required,
		}
		if info.Title == "" {
			info.Title = f.Key
		}
		if len(f.Options) > 0 {
			info.Options = f.OptionLabels()
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Required != out[j].Required {
			return out[i].Required
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// ValidatePropertyData checks a payload without sending it. It never fails
// on data content: the verdict and messages cover everything found. Only a
// transport failure during the implicit metadata load returns an error.
func (c *Client) ValidatePropertyData(ctx context.Context, payload map[string]any) (bool, []string, error) {
	return c.resolver.Validate(ctx, payload)
}

// GetPropertyFields returns the raw grouped field metadata, unflattened.
func (c *Client) GetPropertyFields(ctx context.Context) ([]rest.Record, error) {
	return c.Properties.Fields(ctx)
}

// RefreshFieldMappings re-fetches field metadata and swaps the cache.
func (c *Client) RefreshFieldMappings(ctx context.Context) error {
	return c.resolver.Refresh(ctx)
}
