// Package seed bootstraps a database with the baseline catalog. Seeding is an
// explicit call: it runs in one transaction under an advisory lock and is
// idempotent by natural key (categories by name, products by slug).
package seed

import (
	"context"
	"errors"
	"fmt"

	"smrt/internal/models"
	"smrt/internal/store"
	"smrt/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// advisoryLockKey serializes concurrent seed runs ("SMRT" in ASCII).
const advisoryLockKey int64 = 0x534d5254

// ProductSeed describes one baseline product.
type ProductSeed struct {
	Name         string
	PriceInCents int64
	Body         string
	Category     string
}

// Slug is the deterministic slug the product is stored under.
func (p ProductSeed) Slug() string {
	return util.Slugify(p.Name)
}

// Categories is the fixed category list, in insertion order.
var Categories = []string{
	"Mobile & Wearable Tech",
	"Drones & Cameras",
	"Headphones & Speakers",
	"Computers",
	"Tablets",
	"TV & Home Cinema",
}

// Products is the fixed product batch.
var Products = []ProductSeed{
	{Name: "sai", PriceInCents: 200, Body: "asd;flkasdjf", Category: "Tablets"},
	{Name: "haru", PriceInCents: 200, Body: "ads;flkjadsf", Category: "Drones & Cameras"},
}

var (
	ErrUnknownCategory   = errors.New("product references unknown category")
	ErrDuplicateSeedData = errors.New("duplicate seed entry")
)

// Repository is the subset of the store the seed procedure writes through.
type Repository interface {
	GetCategoryByName(ctx context.Context, name string) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	InsertProductIfAbsent(ctx context.Context, product *models.Product) (bool, error)
}

// Result summarizes a run.
type Result struct {
	CategoriesCreated  int
	CategoriesExisting int
	ProductsCreated    int
	ProductsExisting   int
	CategoryIDs        map[string]uuid.UUID
}

type Seeder struct {
	store      *store.Store
	categories []string
	products   []ProductSeed
	logger     *zap.Logger
}

// New creates a seeder for the fixed baseline data
func New(st *store.Store) *Seeder {
	return NewWithData(st, Categories, Products)
}

// NewWithData creates a seeder for custom data
func NewWithData(st *store.Store, categories []string, products []ProductSeed) *Seeder {
	return &Seeder{
		store:      st,
		categories: categories,
		products:   products,
		logger:     util.GetLogger(),
	}
}

// Validate checks the seed data before anything is written.
func Validate(categories []string, products []ProductSeed) error {
	known := make(map[string]bool, len(categories))
	for _, name := range categories {
		if known[name] {
			return fmt.Errorf("%w: category %q", ErrDuplicateSeedData, name)
		}
		known[name] = true
	}

	slugs := make(map[string]string, len(products))
	for _, p := range products {
		if !known[p.Category] {
			return fmt.Errorf("%w: %q -> %q", ErrUnknownCategory, p.Name, p.Category)
		}
		slug := p.Slug()
		if slug == "" {
			return fmt.Errorf("product %q has an empty slug", p.Name)
		}
		if prev, ok := slugs[slug]; ok {
			return fmt.Errorf("%w: %q and %q share slug %q", ErrDuplicateSeedData, prev, p.Name, slug)
		}
		slugs[slug] = p.Name
	}
	return nil
}

// Run seeds the database. Nothing persists unless every row succeeds; the
// first store error aborts the run and is returned wrapped.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	ctx, span := util.StartSpan(ctx, "Seeder.Run")
	defer span.End()

	if err := Validate(s.categories, s.products); err != nil {
		util.SeedRunsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	var result *Result
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.LockAdvisory(ctx, advisoryLockKey); err != nil {
			return err
		}
		r, err := Apply(ctx, tx, s.categories, s.products)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		util.SpanError(span, err)
		util.SeedRunsTotal.WithLabelValues("failed").Inc()
		s.logger.Error("Seed failed", zap.Error(err))
		return nil, fmt.Errorf("seed: %w", err)
	}

	util.SeedRunsTotal.WithLabelValues("succeeded").Inc()
	util.SeedRowsCreated.WithLabelValues("categories").Add(float64(result.CategoriesCreated))
	util.SeedRowsCreated.WithLabelValues("products").Add(float64(result.ProductsCreated))

	s.logger.Info("Seed completed",
		zap.Int("categories_created", result.CategoriesCreated),
		zap.Int("categories_existing", result.CategoriesExisting),
		zap.Int("products_created", result.ProductsCreated),
		zap.Int("products_existing", result.ProductsExisting))
	return result, nil
}

// Apply writes categories then products through repo, building the
// name -> id map on the way.
func Apply(ctx context.Context, repo Repository, categories []string, products []ProductSeed) (*Result, error) {
	result := &Result{CategoryIDs: make(map[string]uuid.UUID, len(categories))}

	for _, name := range categories {
		existing, err := repo.GetCategoryByName(ctx, name)
		switch {
		case err == nil:
			result.CategoryIDs[name] = existing.ID
			result.CategoriesExisting++
			continue
		case !store.IsNotFound(err):
			return nil, err
		}

		category := &models.Category{Name: models.StringPtr(name)}
		if err := repo.CreateCategory(ctx, category); err != nil {
			return nil, err
		}
		result.CategoryIDs[name] = category.ID
		result.CategoriesCreated++
	}

	for _, p := range products {
		categoryID, ok := result.CategoryIDs[p.Category]
		if !ok {
			return nil, fmt.Errorf("%w: %q -> %q", ErrUnknownCategory, p.Name, p.Category)
		}

		product := &models.Product{
			Name:         models.StringPtr(p.Name),
			PriceInCents: p.PriceInCents,
			Body:         models.StringPtr(p.Body),
			CategoryID:   categoryID,
			Slug:         p.Slug(),
		}
		inserted, err := repo.InsertProductIfAbsent(ctx, product)
		if err != nil {
			return nil, err
		}
		if inserted {
			result.ProductsCreated++
		} else {
			result.ProductsExisting++
		}
	}

	return result, nil
}
