package catalog

import (
	"context"
	"fmt"
)

type api interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, in, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// Service loads catalog entities from the storefront API.
type Service struct {
	api api
}

func NewService(client api) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("api client required")
	}
	return &Service{api: client}, nil
}

// Products lists products, optionally filtered by category.
func (s *Service) Products(ctx context.Context, categoryID *int) ([]Product, error) {
	path := "/products"
	if categoryID != nil {
		path = fmt.Sprintf("/products?categoryId=%d", *categoryID)
	}
	var out []Product
	if err := s.api.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Product(ctx context.Context, id int) (*Product, error) {
	var out Product
	if err := s.api.Get(ctx, fmt.Sprintf("/products/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int) error {
	return s.api.Delete(ctx, fmt.Sprintf("/products/%d", id), nil)
}

func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := s.api.Get(ctx, "/categories", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Category(ctx context.Context, id int) (*Category, error) {
	var out Category
	if err := s.api.Get(ctx, fmt.Sprintf("/categories/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int) error {
	return s.api.Delete(ctx, fmt.Sprintf("/categories/%d", id), nil)
}

// ReorderCategories submits the admin's chosen category ordering.
func (s *Service) ReorderCategories(ctx context.Context, orders []CategoryOrder) error {
	return s.api.Post(ctx, "/categories/reorder", orders, nil)
}

// CategorySpecifications returns the specification names suggested for
// products in the given category.
func (s *Service) CategorySpecifications(ctx context.Context, categoryID int) ([]string, error) {
	var out []string
	if err := s.api.Get(ctx, fmt.Sprintf("/categories/%d/specifications", categoryID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) News(ctx context.Context) ([]News, error) {
	var out []News
	if err := s.api.Get(ctx, "/news", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) NewsItem(ctx context.Context, id int) (*News, error) {
	var out News
	if err := s.api.Get(ctx, fmt.Sprintf("/news/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) DeleteNews(ctx context.Context, id int) error {
	return s.api.Delete(ctx, fmt.Sprintf("/news/%d", id), nil)
}
