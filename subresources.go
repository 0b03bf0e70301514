package opentoclose

import (
	"context"
	"fmt"

	"github.com/yourorg/opentoclose-go/apierr"
	"github.com/yourorg/opentoclose-go/rest"
)

// subResource implements CRUD for collections scoped under one property,
// e.g. /properties/{id}/notes.
type subResource struct {
	rest *rest.Client
	path string // e.g. "notes"
	name string // for error messages
}

func (s *subResource) base(propertyID int) (string, error) {
	if err := validateID(propertyID, "property"); err != nil {
		return "", err
	}
	return fmt.Sprintf("/properties/%d/%s", propertyID, s.path), nil
}

func (s *subResource) list(ctx context.Context, propertyID int, params *ListParams) ([]rest.Record, error) {
	endpoint, err := s.base(propertyID)
	if err != nil {
		return nil, err
	}
	v, err := params.values()
	if err != nil {
		return nil, err
	}
	res, err := s.rest.Get(ctx, endpoint, v)
	if err != nil {
		return nil, err
	}
	return rest.AsRecords(res, endpoint)
}

func (s *subResource) create(ctx context.Context, propertyID int, data rest.Record) (rest.Record, error) {
	endpoint, err := s.base(propertyID)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, apierr.Validationf("%s data cannot be empty", s.name)
	}
	res, err := s.rest.Post(ctx, endpoint, data)
	if err != nil {
		return nil, err
	}
	return rest.AsRecord(res, endpoint)
}

func (s *subResource) retrieve(ctx context.Context, propertyID, id int) (rest.Record, error) {
	endpoint, err := s.item(propertyID, id)
	if err != nil {
		return nil, err
	}
	res, err := s.rest.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return rest.AsRecord(res, endpoint)
}

func (s *subResource) update(ctx context.Context, propertyID, id int, data rest.Record) (rest.Record, error) {
	endpoint, err := s.item(propertyID, id)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, apierr.Validationf("%s data cannot be empty", s.name)
	}
	res, err := s.rest.Put(ctx, endpoint, data)
	if err != nil {
		return nil, err
	}
	return rest.AsRecord(res, endpoint)
}

func (s *subResource) delete(ctx context.Context, propertyID, id int) (rest.Record, error) {
	endpoint, err := s.item(propertyID, id)
	if err != nil {
		return nil, err
	}
	res, err := s.rest.Delete(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return rest.AsRecord(res, endpoint)
}

func (s *subResource) item(propertyID, id int) (string, error) {
	base, err := s.base(propertyID)
	if err != nil {
		return "", err
	}
	if err := validateID(id, s.name); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%d", base, id), nil
}

// PropertyContactsService manages contacts attached to a property.
type PropertyContactsService struct{ sub subResource }

func (s *PropertyContactsService) List(ctx context.Context, propertyID int, params *ListParams) ([]rest.Record, error) {
	return s.sub.list(ctx, propertyID, params)
}
func (s *PropertyContactsService) Create(ctx context.Context, propertyID int, data rest.Record) (rest.Record, error) {
	return s.sub.create(ctx, propertyID, data)
}
func (s *PropertyContactsService) Retrieve(ctx context.Context, propertyID, id int) (rest.Record, error) {
	return s.sub.retrieve(ctx, propertyID, id)
}
func (s *PropertyContactsService) Update(ctx context.Context, propertyID, id int, data rest.Record) (rest.Record, error) {
	return s.sub.update(ctx, propertyID, id, data)
}
func (s *PropertyContactsService) Delete(ctx context.Context, propertyID, id int) (rest.Record, error) {
	return s.sub.delete(ctx, propertyID, id)
}

// PropertyDocumentsService manages documents attached to a property.
type PropertyDocumentsService struct{ sub subResource }

func (s *PropertyDocumentsService) List(ctx context.Context, propertyID int, params *ListParams) ([]rest.Record, error) {
	return s.sub.list(ctx, propertyID, params)
}
func (s *PropertyDocumentsService) Create(ctx context.Context, propertyID int, data rest.Record) (rest.Record, error) {
	return s.sub.create(ctx, propertyID, data)
}
func (s *PropertyDocumentsService) Retrieve(ctx context.Context, propertyID, id int) (rest.Record, error) {
	return s.sub.retrieve(ctx, propertyID, id)
}
func (s *PropertyDocumentsService) Update(ctx context.Context, propertyID, id int, data rest.Record) (rest.Record, error) {
	return s.sub.update(ctx, propertyID, id, data)
}
func (s *PropertyDocumentsService) Delete(ctx context.Context, propertyID, id int) (rest.Record, error) {
	return s.sub.delete(ctx, propertyID, id)
}

// PropertyEmailsService manages emails attached to a property.
type PropertyEmailsService struct{ sub subResource }

func (s *PropertyEmailsService) List(ctx context.Context, propertyID int, params *ListParams) ([]rest.Record, error) {
	return s.sub.list(ctx, propertyID, params)
}
func (s *PropertyEmailsService) Create(ctx context.Context, propertyID int, data rest.Record) (rest.Record, error) {
	return s.sub.create(ctx, propertyID, data)
}
func (s *PropertyEmailsService) Retrieve(ctx context.Context, propertyID, id int) (rest.Record, error) {
	return s.sub.retrieve(ctx, propertyID, id)
}
func (s *PropertyEmailsService) Update(ctx context.Context, propertyID, id int, data rest.Record) (rest.Record, error) {
	return s.sub.update(ctx, propertyID, id, data)
}
func (s *PropertyEmailsService) Delete(ctx context.Context, propertyID, id int) (rest.Record, error) {
	return s.sub.delete(ctx, propertyID, id)
}

// PropertyNotesService manages notes attached to a property.
type PropertyNotesService struct{ sub subResource }

func (s *PropertyNotesService) List(ctx context.Context, propertyID int, params *ListParams) ([]rest.Record, error) {
	return s.sub.list(ctx, propertyID, params)
}
func (s *PropertyNotesService) Create(ctx context.Context, propertyID int, data rest.Record) (rest.Record, error) {
	return s.sub.create(ctx, propertyID, data)
}
func (s *PropertyNotesService) Retrieve(ctx context.Context, propertyID, id int) (rest.Record, error) {
	return s.sub.retrieve(ctx, propertyID, id)
}
func (s *PropertyNotesService) Update(ctx context.Context, propertyID, id int, data rest.Record) (rest.Record, error) {
	return s.sub.update(ctx, propertyID, id, data)
}
func (s *PropertyNotesService) Delete(ctx context.Context, propertyID, id int) (rest.Record, error) {
	return s.sub.delete(ctx, propertyID, id)
}

// PropertyTasksService manages tasks attached to a property.
type PropertyTasksService struct{ sub subResource }

func (s *PropertyTasksService) List(ctx context.Context, propertyID int, params *ListParams) ([]rest.Record, error) {
	return s.sub.list(ctx, propertyID, params)
}
func (s *PropertyTasksService) Create(ctx context.Context, propertyID int, data rest.Record) (rest.Record, error) {
	return s.sub.create(ctx, propertyID, data)
}
func (s *PropertyTasksService) Retrieve(ctx context.Context, propertyID, id int) (rest.Record, error) {
	return s.sub.retrieve(ctx, propertyID, id)
}
func (s *PropertyTasksService) Update(ctx context.Context, propertyID, id int, data rest.Record) (rest.Record, error) {
	return s.sub.update(ctx, propertyID, id, data)
}
func (s *PropertyTasksService) Delete(ctx context.Context, propertyID, id int) (rest.Record, error) {
	return s.sub.delete(ctx, propertyID, id)
}
