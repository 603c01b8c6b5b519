//go:build integration

package store_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"smrt/internal/models"
	"smrt/internal/store"
	"smrt/internal/testutil/pgtest"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStore *store.Store

func TestMain(m *testing.M) {
	st, cleanup, err := pgtest.Start(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "integration setup failed: %v\n", err)
		os.Exit(1)
	}
	testStore = st
	code := m.Run()
	cleanup()
	os.Exit(code)
}

func mustCreateCategory(t *testing.T, name string) *models.Category {
	t.Helper()
	c := &models.Category{Name: models.StringPtr(name)}
	require.NoError(t, testStore.CreateCategory(context.Background(), c))
	return c
}

func mustCreateProduct(t *testing.T, categoryID uuid.UUID) *models.Product {
	t.Helper()
	slug := "product-" + uuid.NewString()
	p := &models.Product{
		Name:         models.StringPtr(slug),
		PriceInCents: 1999,
		CategoryID:   categoryID,
		Slug:         slug,
	}
	require.NoError(t, testStore.CreateProduct(context.Background(), p))
	return p
}

func mustCreateUser(t *testing.T) *models.User {
	t.Helper()
	u := &models.User{ExternalAuthID: "auth|" + uuid.NewString()}
	require.NoError(t, testStore.CreateUser(context.Background(), u))
	return u
}

func TestDefaultsAndServerGeneratedFields(t *testing.T) {
	user := mustCreateUser(t)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)

	product := mustCreateProduct(t, mustCreateCategory(t, "Defaults").ID)
	assert.Equal(t, 0, product.Stock)
}

func TestDuplicateSlugRejected(t *testing.T) {
	ctx := context.Background()
	category := mustCreateCategory(t, "Slugs")
	first := mustCreateProduct(t, category.ID)

	dup := &models.Product{Name: models.StringPtr("other"), PriceInCents: 1, CategoryID: category.ID, Slug: first.Slug}
	err := testStore.CreateProduct(ctx, dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrUniqueViolation)
	assert.Equal(t, "products_slug_key", store.ConstraintName(err))

	var pqErr *pq.Error
	require.True(t, errors.As(err, &pqErr))
	assert.Equal(t, pq.ErrorCode("23505"), pqErr.Code)

	got, err := testStore.GetProductBySlug(ctx, first.Slug)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, first.Name, got.Name)
	assert.Equal(t, first.PriceInCents, got.PriceInCents)
	assert.Equal(t, first.UpdatedAt, got.UpdatedAt)
}

func TestInsertProductIfAbsent(t *testing.T) {
	ctx := context.Background()
	category := mustCreateCategory(t, "Idempotent")
	first := mustCreateProduct(t, category.ID)

	again := &models.Product{Name: models.StringPtr("changed"), PriceInCents: 5, CategoryID: category.ID, Slug: first.Slug}
	inserted, err := testStore.InsertProductIfAbsent(ctx, again)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, first.Name, again.Name)
}

func TestRatingCheck(t *testing.T) {
	ctx := context.Background()
	category := mustCreateCategory(t, "Ratings")
	user := mustCreateUser(t)

	for _, rating := range []int{0, 6} {
		r := rating
		review := &models.Review{UserID: user.ID, ProductID: mustCreateProduct(t, category.ID).ID, Rating: &r}
		err := testStore.CreateReview(ctx, review)
		require.Error(t, err, "rating %d", rating)
		assert.ErrorIs(t, err, store.ErrDomainViolation)
		assert.Equal(t, "rating_check", store.ConstraintName(err))
	}

	for _, rating := range []int{1, 5} {
		r := rating
		review := &models.Review{UserID: user.ID, ProductID: mustCreateProduct(t, category.ID).ID, Rating: &r}
		require.NoError(t, testStore.CreateReview(ctx, review), "rating %d", rating)
		assert.Equal(t, rating, *review.Rating)
		assert.False(t, review.ReviewedAt.IsZero())
	}
}

func TestOneReviewPerUserAndProduct(t *testing.T) {
	ctx := context.Background()
	user := mustCreateUser(t)
	product := mustCreateProduct(t, mustCreateCategory(t, "Reviews").ID)

	rating := 4
	original := &models.Review{UserID: user.ID, ProductID: product.ID, Rating: &rating, Body: models.StringPtr("solid")}
	require.NoError(t, testStore.CreateReview(ctx, original))
	_, err := testStore.IncrementFoundHelpful(ctx, original.ID)
	require.NoError(t, err)

	other := 1
	err = testStore.CreateReview(ctx, &models.Review{UserID: user.ID, ProductID: product.ID, Rating: &other, Body: models.StringPtr("bad")})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrUniqueViolation)
	assert.Equal(t, "reviews_user_product_unique", store.ConstraintName(err))

	got, err := testStore.GetReview(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.FoundHelpful)
	assert.Equal(t, "solid", *got.Body)
	assert.Equal(t, 4, *got.Rating)
}

func TestDeleteReferencedCategoryRejected(t *testing.T) {
	ctx := context.Background()
	category := mustCreateCategory(t, "Blocked")
	mustCreateProduct(t, category.ID)

	err := testStore.DeleteCategory(ctx, category.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrForeignKeyViolation)

	_, err = testStore.GetCategory(ctx, category.ID)
	assert.NoError(t, err)
}

func TestDeleteProductCascadesImages(t *testing.T) {
	ctx := context.Background()
	product := mustCreateProduct(t, mustCreateCategory(t, "Images").ID)

	for i := 0; i < 3; i++ {
		img := &models.ProductImage{ProductID: product.ID, ImageURL: models.StringPtr(fmt.Sprintf("https://cdn.example.com/%d.png", i))}
		require.NoError(t, testStore.AddProductImage(ctx, img))
	}

	require.NoError(t, testStore.DeleteProduct(ctx, product.ID))

	images, err := testStore.ListProductImages(ctx, product.ID)
	require.NoError(t, err)
	assert.Empty(t, images)

	var orphans int
	require.NoError(t, testStore.GetDB().GetContext(ctx, &orphans,
		"SELECT count(*) FROM product_images WHERE product_id = $1", product.ID))
	assert.Zero(t, orphans)
}

func TestDeleteReviewedProductRejected(t *testing.T) {
	ctx := context.Background()
	product := mustCreateProduct(t, mustCreateCategory(t, "Reviewed").ID)
	rating := 3
	require.NoError(t, testStore.CreateReview(ctx, &models.Review{UserID: mustCreateUser(t).ID, ProductID: product.ID, Rating: &rating}))

	err := testStore.DeleteProduct(ctx, product.ID)
	assert.ErrorIs(t, err, store.ErrForeignKeyViolation)
}

func TestUpdateAlwaysAdvancesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	category := mustCreateCategory(t, "Clock")

	prev := category.UpdatedAt
	created := category.CreatedAt
	for i := 0; i < 5; i++ {
		// same value every time
		updated, err := testStore.RenameCategory(ctx, category.ID, "Clock")
		require.NoError(t, err)
		assert.True(t, updated.UpdatedAt.After(prev), "iteration %d: %s <= %s", i, updated.UpdatedAt, prev)
		assert.True(t, updated.CreatedAt.Equal(created))
		prev = updated.UpdatedAt
	}
}

func TestRawUpdateCannotRewriteAuditColumns(t *testing.T) {
	ctx := context.Background()
	category := mustCreateCategory(t, "Raw")

	_, err := testStore.GetDB().ExecContext(ctx,
		"UPDATE categories SET created_at = '2000-01-01', updated_at = '2000-01-01' WHERE id = $1", category.ID)
	require.NoError(t, err)

	got, err := testStore.GetCategory(ctx, category.ID)
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(category.CreatedAt))
	assert.True(t, got.UpdatedAt.After(category.UpdatedAt))

	_, err = testStore.GetDB().ExecContext(ctx,
		"UPDATE categories SET id = gen_random_uuid() WHERE id = $1", category.ID)
	require.Error(t, err)
}

func TestInvalidEnumRejected(t *testing.T) {
	ctx := context.Background()
	user := mustCreateUser(t)

	_, err := testStore.UpdateUserRole(ctx, user.ID, models.Role("owner"))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrDomainViolation)

	got, err := testStore.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, got.Role)
}

func createOrder(t *testing.T) (*models.Order, *models.Product) {
	t.Helper()
	ctx := context.Background()
	user := mustCreateUser(t)
	addr := &models.ShippingAddress{UserID: user.ID, City: models.StringPtr("Austin")}
	require.NoError(t, testStore.CreateShippingAddress(ctx, addr))
	product := mustCreateProduct(t, mustCreateCategory(t, "Orders").ID)

	total := int64(3998)
	order := &models.Order{UserID: user.ID, ShippingAddressID: addr.ID, TotalInCents: &total}
	require.NoError(t, testStore.CreateOrder(ctx, order))

	item := &models.OrderItem{OrderID: order.ID, ProductID: product.ID, PriceAtPurchaseInCents: product.PriceInCents, Quantity: 2}
	require.NoError(t, testStore.CreateOrderItem(ctx, item))
	return order, product
}

func TestOrderDefaultsAndDetail(t *testing.T) {
	ctx := context.Background()
	order, product := createOrder(t)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "", order.Metadata["shipping_address"])

	detail, err := testStore.GetOrderDetail(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.User)
	require.NotNil(t, detail.ShippingAddress)
	assert.Equal(t, order.UserID, detail.User.ID)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, product.ID, detail.Items[0].ProductID)
}

func TestOrderHistorySurvivesPriceChange(t *testing.T) {
	ctx := context.Background()
	order, product := createOrder(t)

	product.PriceInCents = 99999
	require.NoError(t, testStore.UpdateProduct(ctx, product))

	items, err := testStore.ListOrderItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1999), items[0].PriceAtPurchaseInCents)

	_, err = testStore.GetDB().ExecContext(ctx,
		"UPDATE order_items SET price_at_purchase_in_cents = 1 WHERE id = $1", items[0].ID)
	assert.Error(t, err)
}

func TestOrderMetadataCanBeReplacedOrCleared(t *testing.T) {
	ctx := context.Background()
	order, _ := createOrder(t)

	updated, err := testStore.UpdateOrderMetadata(ctx, order.ID, models.OrderMetadata{"shipping_address": "1 Main St", "gift": true})
	require.NoError(t, err)
	assert.Equal(t, "1 Main St", updated.Metadata["shipping_address"])
	assert.Equal(t, true, updated.Metadata["gift"])

	cleared, err := testStore.UpdateOrderMetadata(ctx, order.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.Metadata)

	got, err := testStore.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Metadata)
}

func TestDeleteReferencedAddressRejected(t *testing.T) {
	ctx := context.Background()
	order, _ := createOrder(t)

	err := testStore.DeleteShippingAddress(ctx, order.ShippingAddressID)
	assert.ErrorIs(t, err, store.ErrForeignKeyViolation)
	assert.Equal(t, "orders_shipping_address_id_fkey", store.ConstraintName(err))

	_, err = testStore.GetShippingAddress(ctx, order.ShippingAddressID)
	assert.NoError(t, err)
}

func TestDeleteReviewWithFeedbackRejected(t *testing.T) {
	ctx := context.Background()
	author := mustCreateUser(t)
	replier := mustCreateUser(t)
	product := mustCreateProduct(t, mustCreateCategory(t, "Feedback").ID)

	rating := 3
	review := &models.Review{UserID: author.ID, ProductID: product.ID, Rating: &rating}
	require.NoError(t, testStore.CreateReview(ctx, review))
	fb := &models.ReviewFeedback{ReviewID: review.ID, UserID: replier.ID, Body: models.StringPtr("Agreed")}
	require.NoError(t, testStore.CreateReviewFeedback(ctx, fb))

	err := testStore.DeleteReview(ctx, review.ID)
	assert.ErrorIs(t, err, store.ErrForeignKeyViolation)
	assert.Equal(t, "review_feedbacks_review_id_fkey", store.ConstraintName(err))

	require.NoError(t, testStore.DeleteReviewFeedback(ctx, fb.ID))
	require.NoError(t, testStore.DeleteReview(ctx, review.ID))
	_, err = testStore.GetReview(ctx, review.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteUserWithOrdersRejected(t *testing.T) {
	ctx := context.Background()
	order, _ := createOrder(t)

	err := testStore.DeleteUser(ctx, order.UserID)
	assert.ErrorIs(t, err, store.ErrForeignKeyViolation)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	name := "rollback-" + uuid.NewString()
	boom := errors.New("boom")

	err := testStore.WithTx(ctx, func(tx *store.Store) error {
		require.True(t, tx.InTx())
		require.NoError(t, tx.CreateCategory(ctx, &models.Category{Name: models.StringPtr(name)}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = testStore.GetCategoryByName(ctx, name)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProductDetail(t *testing.T) {
	ctx := context.Background()
	category := mustCreateCategory(t, "Detail")
	product := mustCreateProduct(t, category.ID)
	require.NoError(t, testStore.AddProductImage(ctx, &models.ProductImage{ProductID: product.ID, ImageURL: models.StringPtr("https://cdn.example.com/a.png")}))

	detail, err := testStore.GetProductDetail(ctx, product.Slug)
	require.NoError(t, err)
	require.NotNil(t, detail.Category)
	assert.Equal(t, category.ID, detail.Category.ID)
	assert.Len(t, detail.Images, 1)
	assert.Empty(t, detail.Reviews)

	_, err = testStore.GetProductDetail(ctx, "missing-"+uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUniqueMarketingEmails(t *testing.T) {
	ctx := context.Background()
	email := uuid.NewString() + "@example.com"

	_, err := testStore.CreateNewsletterSubscription(ctx, email)
	require.NoError(t, err)
	_, err = testStore.CreateNewsletterSubscription(ctx, email)
	assert.ErrorIs(t, err, store.ErrUniqueViolation)

	contact := &models.Contact{Name: "Ada", Email: email, Phone: "555-0100"}
	require.NoError(t, testStore.CreateContact(ctx, contact))
	err = testStore.CreateContact(ctx, &models.Contact{Name: "Bob", Email: email, Phone: "555-0101"})
	assert.ErrorIs(t, err, store.ErrUniqueViolation)
}
