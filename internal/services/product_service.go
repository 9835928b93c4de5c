package services

import (
	"context"

	"storefront-admin/internal/backend"
	"storefront-admin/internal/models"
	"storefront-admin/internal/session"
	"storefront-admin/internal/validation"

	"github.com/rs/zerolog"
)

type ProductService struct {
	api    *backend.Client
	logger zerolog.Logger
}

func NewProductService(api *backend.Client, logger zerolog.Logger) *ProductService {
	return &ProductService{
		api:    api,
		logger: logger,
	}
}

// Create submits form. On success the form is reset to its defaults; on
// any failure it is left untouched so the admin can retry. An invalid form
// never reaches the backend.
func (s *ProductService) Create(ctx context.Context, store *session.Store, form *models.ProductForm) (string, error) {
	if err := validation.Struct(form); err != nil {
		return "", err
	}

	upload, err := form.Upload()
	if err != nil {
		return "", validation.FieldErrors{"price": "Must be a number."}
	}

	msg, err := s.api.CreateProduct(ctx, store.Token(), upload)
	if err != nil {
		s.logger.Error().Err(err).Str("name", form.Name).Msg("Create product failed")
		return "", expireOnUnauthorized(ctx, store, err, s.logger)
	}

	s.logger.Info().Str("name", form.Name).Msg("Product created")
	form.Reset()
	return msg, nil
}

// List returns the backend's product list. Without a token it issues no
// request and returns an empty list.
func (s *ProductService) List(ctx context.Context, store *session.Store) ([]models.Product, error) {
	token := store.Token()
	if token == "" {
		return []models.Product{}, nil
	}

	products, err := s.api.ListProducts(ctx, token)
	if err != nil {
		s.logger.Error().Err(err).Msg("Fetch product list failed")
		return []models.Product{}, expireOnUnauthorized(ctx, store, err, s.logger)
	}
	return products, nil
}

// Remove deletes product id and then refetches the whole list, so the
// returned list is always the backend's view. A failed refetch after a
// successful delete is reported as *RefetchError.
func (s *ProductService) Remove(ctx context.Context, store *session.Store, id string) (string, []models.Product, error) {
	msg, err := s.api.RemoveProduct(ctx, store.Token(), id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("Remove product failed")
		return "", nil, expireOnUnauthorized(ctx, store, err, s.logger)
	}
	s.logger.Info().Str("product_id", id).Msg("Product removed")

	products, err := s.List(ctx, store)
	if err != nil {
		return msg, nil, &RefetchError{Message: msg, Err: err}
	}
	return msg, products, nil
}
