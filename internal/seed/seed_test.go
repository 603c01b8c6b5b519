package seed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"smrt/internal/models"
	"smrt/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	categories map[string]models.Category
	products   map[string]models.Product
	failOn     string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{categories: map[string]models.Category{}, products: map[string]models.Product{}}
}

func (f *fakeRepo) GetCategoryByName(_ context.Context, name string) (*models.Category, error) {
	c, ok := f.categories[name]
	if !ok {
		return nil, fmt.Errorf("category %s: %w", name, store.ErrNotFound)
	}
	return &c, nil
}

func (f *fakeRepo) CreateCategory(_ context.Context, c *models.Category) error {
	c.ID = uuid.New()
	f.categories[*c.Name] = *c
	return nil
}

func (f *fakeRepo) InsertProductIfAbsent(_ context.Context, p *models.Product) (bool, error) {
	if p.Slug == f.failOn {
		return false, store.ErrUniqueViolation
	}
	if existing, ok := f.products[p.Slug]; ok {
		*p = existing
		return false, nil
	}
	p.ID = uuid.New()
	f.products[p.Slug] = *p
	return true, nil
}

func TestApplyEmptyStore(t *testing.T) {
	repo := newFakeRepo()

	result, err := Apply(context.Background(), repo, Categories, Products)
	require.NoError(t, err)

	assert.Equal(t, len(Categories), result.CategoriesCreated)
	assert.Equal(t, len(Products), result.ProductsCreated)
	assert.Len(t, repo.categories, 6)
	assert.Len(t, repo.products, 2)

	sai := repo.products["sai"]
	assert.Equal(t, repo.categories["Tablets"].ID, sai.CategoryID)
	assert.Equal(t, int64(200), sai.PriceInCents)
	assert.Equal(t, "asd;flkasdjf", *sai.Body)

	haru := repo.products["haru"]
	assert.Equal(t, repo.categories["Drones & Cameras"].ID, haru.CategoryID)
}

func TestApplyIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	ctx := context.Background()

	first, err := Apply(ctx, repo, Categories, Products)
	require.NoError(t, err)

	second, err := Apply(ctx, repo, Categories, Products)
	require.NoError(t, err)
	assert.Zero(t, second.CategoriesCreated)
	assert.Zero(t, second.ProductsCreated)
	assert.Equal(t, len(Categories), second.CategoriesExisting)
	assert.Equal(t, len(Products), second.ProductsExisting)
	assert.Equal(t, first.CategoryIDs, second.CategoryIDs)
	assert.Len(t, repo.products, 2)
}

func TestApplyPropagatesStoreErrors(t *testing.T) {
	repo := newFakeRepo()
	repo.failOn = "haru"

	_, err := Apply(context.Background(), repo, Categories, Products)
	assert.True(t, errors.Is(err, store.ErrUniqueViolation))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(Categories, Products))

	err := Validate([]string{"A", "A"}, nil)
	assert.ErrorIs(t, err, ErrDuplicateSeedData)

	err = Validate([]string{"A"}, []ProductSeed{{Name: "x", Category: "B"}})
	assert.ErrorIs(t, err, ErrUnknownCategory)

	err = Validate([]string{"A"}, []ProductSeed{{Name: "Foo Bar", Category: "A"}, {Name: "foo_bar", Category: "A"}})
	assert.ErrorIs(t, err, ErrDuplicateSeedData)

	err = Validate([]string{"A"}, []ProductSeed{{Name: "!!!", Category: "A"}})
	assert.Error(t, err)
}

func TestSeedSlugs(t *testing.T) {
	assert.Equal(t, "sai", Products[0].Slug())
	assert.Equal(t, "haru", Products[1].Slug())
}
