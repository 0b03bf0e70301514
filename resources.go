package opentoclose

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/yourorg/opentoclose-go/apierr"
	"github.com/yourorg/opentoclose-go/rest"
)

// ListParams are the common list-endpoint filters. Zero values are omitted
// from the query.
type ListParams struct {
	Limit  int
	Offset int
	Status string
	Search string
}

func (p *ListParams) values() (url.Values, error) {
	v := url.Values{}
	if p == nil {
		return v, nil
	}
	if p.Limit < 0 {
		return nil, apierr.Validationf("limit must be a positive integer, got %d", p.Limit)
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset < 0 {
		return nil, apierr.Validationf("offset must be non-negative, got %d", p.Offset)
	}
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	if p.Status != "" {
		v.Set("status", p.Status)
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	return v, nil
}

func validateID(id int, resource string) error {
	if id <= 0 {
		return apierr.Validationf("%s ID must be a positive integer, got %d", resource, id)
	}
	return nil
}

// crud implements the vendor's uniform CRUD surface for flat resources.
type crud struct {
	rest *rest.Client
	base string // e.g. "/agents"
	name string // e.g. "agent", for error messages
}

func (c *crud) list(ctx context.Context, params *ListParams) ([]rest.Record, error) {
	v, err := params.values()
	if err != nil {
		return nil, err
	}
	res, err := c.rest.Get(ctx, c.base, v)
	if err != nil {
		return nil, err
	}
	return rest.AsRecords(res, c.base)
}

func (c *crud) create(ctx context.Context, data rest.Record) (rest.Record, error) {
	if len(data) == 0 {
		return nil, apierr.Validationf("%s data cannot be empty", c.name)
	}
	res, err := c.rest.Post(ctx, c.base, data)
	if err != nil {
		return nil, err
	}
	return rest.AsRecord(res, c.base)
}

func (c *crud) retrieve(ctx context.Context, id int) (rest.Record, error) {
	if err := validateID(id, c.name); err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/%d", c.base, id)
	res, err := c.rest.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return rest.AsRecord(res, endpoint)
}

func (c *crud) update(ctx context.Context, id int, data rest.Record) (rest.Record, error) {
	if err := validateID(id, c.name); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, apierr.Validationf("%s data cannot be empty", c.name)
	}
	endpoint := fmt.Sprintf("%s/%d", c.base, id)
	res, err := c.rest.Put(ctx, endpoint, data)
	if err != nil {
		return nil, err
	}
	return rest.AsRecord(res, endpoint)
}

func (c *crud) delete(ctx context.Context, id int) (rest.Record, error) {
	if err := validateID(id, c.name); err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/%d", c.base, id)
	res, err := c.rest.Delete(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return rest.AsRecord(res, endpoint)
}

// AgentsService manages agents.
type AgentsService struct{ crud }

func (s *AgentsService) List(ctx context.Context, params *ListParams) ([]rest.Record, error) {
	return s.list(ctx, params)
}
func (s *AgentsService) Create(ctx context.Context, data rest.Record) (rest.Record, error) {
	return s.create(ctx, data)
}
func (s *AgentsService) Retrieve(ctx context.Context, id int) (rest.Record, error) {
	return s.retrieve(ctx, id)
}
func (s *AgentsService) Update(ctx context.Context, id int, data rest.Record) (rest.Record, error) {
	return s.update(ctx, id, data)
}
func (s *AgentsService) Delete(ctx context.Context, id int) (rest.Record, error) {
	return s.delete(ctx, id)
}

// ContactsService manages contacts.
type ContactsService struct{ crud }

func (s *ContactsService) List(ctx context.Context, params *ListParams) ([]rest.Record, error) {
	return s.list(ctx, params)
}
func (s *ContactsService) Create(ctx context.Context, data rest.Record) (rest.Record, error) {
	return s.create(ctx, data)
}
func (s *ContactsService) Retrieve(ctx context.Context, id int) (rest.Record, error) {
	return s.retrieve(ctx, id)
}
func (s *ContactsService) Update(ctx context.Context, id int, data rest.Record) (rest.Record, error) {
	return s.update(ctx, id, data)
}
func (s *ContactsService) Delete(ctx context.Context, id int) (rest.Record, error) {
	return s.delete(ctx, id)
}

// TeamsService manages teams.
type TeamsService struct{ crud }

func (s *TeamsService) List(ctx context.Context, params *ListParams) ([]rest.Record, error) {
	return s.list(ctx, params)
}
func (s *TeamsService) Create(ctx context.Context, data rest.Record) (rest.Record, error) {
	return s.create(ctx, data)
}
func (s *TeamsService) Retrieve(ctx context.Context, id int) (rest.Record, error) {
	return s.retrieve(ctx, id)
}
func (s *TeamsService) Update(ctx context.Context, id int, data rest.Record) (rest.Record, error) {
	return s.update(ctx, id, data)
}
func (s *TeamsService) Delete(ctx context.Context, id int) (rest.Record, error) {
	return s.delete(ctx, id)
}

// UsersService manages users.
type UsersService struct{ crud }

func (s *UsersService) List(ctx context.Context, params *ListParams) ([]rest.Record, error) {
	return s.list(ctx, params)
}
func (s *UsersService) Create(ctx context.Context, data rest.Record) (rest.Record, error) {
	return s.create(ctx, data)
}
func (s *UsersService) Retrieve(ctx context.Context, id int) (rest.Record, error) {
	return s.retrieve(ctx, id)
}
func (s *UsersService) Update(ctx context.Context, id int, data rest.Record) (rest.Record, error) {
	return s.update(ctx, id, data)
}
func (s *UsersService) Delete(ctx context.Context, id int) (rest.Record, error) {
	return s.delete(ctx, id)
}

// TagsService manages tags.
type TagsService struct{ crud }

func (s *TagsService) List(ctx context.Context, params *ListParams) ([]rest.Record, error) {
	return s.list(ctx, params)
}
func (s *TagsService) Create(ctx context.Context, data rest.Record) (rest.Record, error) {
	return s.create(ctx, data)
}
func (s *TagsService) Retrieve(ctx context.Context, id int) (rest.Record, error) {
	return s.retrieve(ctx, id)
}
func (s *TagsService) Update(ctx context.Context, id int, data rest.Record) (rest.Record, error) {
	return s.update(ctx, id, data)
}
func (s *TagsService) Delete(ctx context.Context, id int) (rest.Record, error) {
	return s.delete(ctx, id)
}
