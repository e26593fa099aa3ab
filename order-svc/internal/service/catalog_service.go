package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"quiosco/order-svc/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const ProductPageSize = 6

type CatalogService struct {
	repo  CatalogRepository
	blobs BlobStore
}

func NewCatalogService(repo CatalogRepository, blobs BlobStore) *CatalogService {
	return &CatalogService{repo: repo, blobs: blobs}
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *CatalogService) ProductsByCategory(ctx context.Context, slug string) ([]domain.Product, error) {
	return s.repo.ListProductsByCategory(ctx, slug)
}

func (s *CatalogService) GetProduct(ctx context.Context, id int) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ListProducts returns one admin page. A search term covers the whole catalog
// (name, category name or id) and returns every match on a single page.
func (s *CatalogService) ListProducts(ctx context.Context, page int, search string) (*domain.ProductPage, error) {
	if page < 1 {
		page = 1
	}

	if term := strings.TrimSpace(search); term != "" {
		products, err := s.repo.SearchProducts(ctx, term)
		if err != nil {
			return nil, err
		}
		return &domain.ProductPage{
			Products:   products,
			Total:      len(products),
			Page:       1,
			PageSize:   len(products),
			TotalPages: 1,
		}, nil
	}

	var (
		products []domain.Product
		total    int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.repo.ListProducts(gctx, ProductPageSize, (page-1)*ProductPageSize)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.ProductCount(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.ProductPage{
		Products:   products,
		Total:      total,
		Page:       page,
		PageSize:   ProductPageSize,
		TotalPages: (total + ProductPageSize - 1) / ProductPageSize,
	}, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, input domain.ProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(input.Name)
	image := strings.TrimSpace(input.Image)
	if name == "" || input.Price == "" || input.CategoryID == "" || image == "" {
		return nil, ErrMissingFields
	}

	categoryID, err := strconv.Atoi(string(input.CategoryID))
	if err != nil {
		return nil, ErrInvalidCategory
	}

	price, err := decimal.NewFromString(string(input.Price))
	if err != nil || price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	category, err := s.repo.GetCategory(ctx, categoryID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}

	product := &domain.Product{
		Name:         name,
		Price:        price.Round(2).InexactFloat64(),
		Image:        image,
		CategoryID:   category.ID,
		CategoryName: category.Name,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicate):
			return nil, ErrDuplicateProduct
		case errors.Is(err, domain.ErrForeignKey):
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return product, nil
}

// UploadImage stores a product image under a collision-free key and returns its public URL.
func (s *CatalogService) UploadImage(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error) {
	if body == nil || filename == "" {
		return "", ErrNoFile
	}
	key := "products/" + uuid.NewString() + "-" + sanitizeFilename(filename)
	return s.blobs.Put(ctx, key, contentType, body, size)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
