package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a storefront account mirrored from the external identity provider
type User struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Name           *string   `db:"name" json:"name,omitempty"`
	Email          *string   `db:"email" json:"email,omitempty"`
	ExternalAuthID string    `db:"external_auth_id" json:"external_auth_id"`
	ImageURL       *string   `db:"image_url" json:"image_url,omitempty"`
	Role           Role      `db:"role" json:"role"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ShippingAddress belongs to exactly one user
type ShippingAddress struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Address1  *string   `db:"address1" json:"address1,omitempty"`
	Address2  *string   `db:"address2" json:"address2,omitempty"`
	City      *string   `db:"city" json:"city,omitempty"`
	State     *string   `db:"state" json:"state,omitempty"`
	Zip       *string   `db:"zip" json:"zip,omitempty"`
	Country   *string   `db:"country" json:"country,omitempty"`
	IsDefault *bool     `db:"is_default" json:"is_default,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Category groups products in the catalog
type Category struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      *string   `db:"name" json:"name,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Product represents a product in the catalog
type Product struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         *string   `db:"name" json:"name,omitempty"`
	PriceInCents int64     `db:"price_in_cents" json:"price_in_cents"`
	Body         *string   `db:"body" json:"body,omitempty"`
	CategoryID   uuid.UUID `db:"category_id" json:"category_id"`
	Stock        int       `db:"stock" json:"stock"`
	Slug         string    `db:"slug" json:"slug"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ProductImage is removed together with its product
type ProductImage struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ProductID uuid.UUID `db:"product_id" json:"product_id"`
	ImageURL  *string   `db:"image_url" json:"image_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Order represents a customer order
type Order struct {
	ID                uuid.UUID     `db:"id" json:"id"`
	UserID            uuid.UUID     `db:"user_id" json:"user_id"`
	TotalInCents      *int64        `db:"total_in_cents" json:"total_in_cents,omitempty"`
	CheckoutSessionID *string       `db:"checkout_session_id" json:"checkout_session_id,omitempty"`
	ShippingAddressID uuid.UUID     `db:"shipping_address_id" json:"shipping_address_id"`
	Status            OrderStatus   `db:"status" json:"status"`
	Metadata          OrderMetadata `db:"metadata" json:"metadata"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updated_at"`
}

// OrderItem snapshots the unit price at purchase time so later catalog
// price changes never rewrite order history.
type OrderItem struct {
	ID                     uuid.UUID `db:"id" json:"id"`
	ProductID              uuid.UUID `db:"product_id" json:"product_id"`
	PriceAtPurchaseInCents int64     `db:"price_at_purchase_in_cents" json:"price_at_purchase_in_cents"`
	Quantity               int       `db:"quantity" json:"quantity"`
	OrderID                uuid.UUID `db:"order_id" json:"order_id"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time `db:"updated_at" json:"updated_at"`
}

// Review is unique per (user, product)
type Review struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	ProductID    uuid.UUID `db:"product_id" json:"product_id"`
	Rating       *int      `db:"rating" json:"rating,omitempty"`
	Title        *string   `db:"title" json:"title,omitempty"`
	Body         *string   `db:"body" json:"body,omitempty"`
	FoundHelpful int       `db:"found_helpful" json:"found_helpful"`
	ReviewedAt   time.Time `db:"reviewed_at" json:"reviewed_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ReviewFeedback is a reply left on a review
type ReviewFeedback struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ReviewID  uuid.UUID `db:"review_id" json:"review_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Body      *string   `db:"body" json:"body,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type NewsletterSubscription struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Contact is a contact-form submission
type Contact struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Subject   *string   `db:"subject" json:"subject,omitempty"`
	Message   *string   `db:"message" json:"message,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ProductDetail is a product with its eagerly loaded relations
type ProductDetail struct {
	Product
	Category *Category      `json:"category,omitempty"`
	Images   []ProductImage `json:"images"`
	Reviews  []Review       `json:"reviews"`
}

// OrderDetail is an order with its eagerly loaded relations
type OrderDetail struct {
	Order
	User            *User            `json:"user,omitempty"`
	ShippingAddress *ShippingAddress `json:"shipping_address,omitempty"`
	Items           []OrderItem      `json:"items"`
}

// ReviewDetail is a review with its eagerly loaded relations
type ReviewDetail struct {
	Review
	User     *User            `json:"user,omitempty"`
	Product  *Product         `json:"product,omitempty"`
	Feedback []ReviewFeedback `json:"feedback"`
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
