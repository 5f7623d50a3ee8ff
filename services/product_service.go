package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"storefront/models"
)

type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Stock       int
	Category    string
	Images      []models.Image
}

type ProductPage struct {
	Products      []models.Product `json:"products"`
	Page          int64            `json:"page"`
	Limit         int64            `json:"limit"`
	TotalProducts int64            `json:"totalProducts"`
	TotalPages    int64            `json:"totalPages"`
}

type ProductService struct {
	products ProductStore
	now      func() time.Time
}

func NewProductService(products ProductStore) *ProductService {
	return &ProductService{products: products, now: time.Now}
}

func (s *ProductService) List(ctx context.Context, filter models.ProductFilter, page Page) (*ProductPage, error) {
	filter.Category = strings.TrimSpace(filter.Category)
	filter.Query = strings.TrimSpace(filter.Query)

	var (
		products []models.Product
		total    int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.products.List(gctx, filter, page.Skip(), page.Limit)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.products.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	if products == nil {
		products = []models.Product{}
	}
	return &ProductPage{
		Products:      products,
		Page:          page.Page,
		Limit:         page.Limit,
		TotalProducts: total,
		TotalPages:    TotalPages(total, page.Limit),
	}, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseID(id, "product")
	if err != nil {
		return nil, err
	}
	p, err := s.products.FindByID(ctx, oid)
	if errors.Is(err, models.ErrNotFound) {
		return nil, NotFound("Product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	name := strings.TrimSpace(in.Name)
	category := strings.TrimSpace(in.Category)
	switch {
	case name == "":
		return nil, Validation("Product name is required")
	case category == "":
		return nil, Validation("Product category is required")
	case in.Price < 0:
		return nil, Validation("Price must not be negative")
	case in.Stock < 0:
		return nil, Validation("Stock must not be negative")
	}

	images := in.Images
	if images == nil {
		images = []models.Image{}
	}
	now := s.now()
	p := &models.Product{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    category,
		Images:      images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// Update applies only the fields present in patch.
func (s *ProductService) Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	oid, err := parseID(id, "product")
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, Validation("No fields to update")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, Validation("Product name must not be empty")
	}
	if patch.Category != nil && strings.TrimSpace(*patch.Category) == "" {
		return nil, Validation("Product category must not be empty")
	}
	if (patch.Price != nil && *patch.Price < 0) || (patch.Stock != nil && *patch.Stock < 0) {
		return nil, Validation("Price and stock must not be negative")
	}

	p, err := s.products.Update(ctx, oid, patch)
	if errors.Is(err, models.ErrNotFound) {
		return nil, NotFound("Product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id, "product")
	if err != nil {
		return err
	}
	err = s.products.Delete(ctx, oid)
	if errors.Is(err, models.ErrNotFound) {
		return NotFound("Product not found")
	}
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func parseID(raw, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, Validation("Invalid %s id", what)
	}
	return id, nil
}
