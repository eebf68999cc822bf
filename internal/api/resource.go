package api

import (
	"context"
	"net/http"
	"net/url"

	"taskdeck/internal/apperr"
	"taskdeck/internal/model"
)

// Resource is the CRUD surface of one collection, e.g. /api/tasks.
type Resource[T model.Entity[T]] struct {
	client *Client
	name   string
}

// NewResource binds the collection named by T's Resource method.
func NewResource[T model.Entity[T]](c *Client) *Resource[T] {
	var zero T
	return &Resource[T]{client: c, name: zero.Resource()}
}

func (r *Resource[T]) Name() string { return r.name }

func (r *Resource[T]) collection() string { return "/api/" + r.name }

func (r *Resource[T]) item(id model.ID) string {
	return r.collection() + "/" + url.PathEscape(id.String())
}

// List calls GET /api/{name}.
func (r *Resource[T]) List(ctx context.Context, token string) ([]T, error) {
	if token == "" {
		return nil, apperr.ErrNoSession
	}
	var out []T
	if err := r.client.do(ctx, "list "+r.name, http.MethodGet, r.collection(), token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create calls POST /api/{name} and returns the entity with its assigned id.
func (r *Resource[T]) Create(ctx context.Context, token string, draft T) (T, error) {
	var out T
	if token == "" {
		return out, apperr.ErrNoSession
	}
	err := r.client.do(ctx, "create "+r.name, http.MethodPost, r.collection(), token, draft, &out)
	return out, err
}

// Replace calls PUT /api/{name}/{id} with the complete entity.
func (r *Resource[T]) Replace(ctx context.Context, token string, id model.ID, entity T) (T, error) {
	var out T
	if token == "" {
		return out, apperr.ErrNoSession
	}
	err := r.client.do(ctx, "update "+r.name, http.MethodPut, r.item(id), token, entity, &out)
	return out, err
}

// Delete calls DELETE /api/{name}/{id}.
func (r *Resource[T]) Delete(ctx context.Context, token string, id model.ID) error {
	if token == "" {
		return apperr.ErrNoSession
	}
	return r.client.do(ctx, "delete "+r.name, http.MethodDelete, r.item(id), token, nil, nil)
}
