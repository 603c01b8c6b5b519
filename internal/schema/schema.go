// Package schema describes the storefront tables and the foreign keys between
// them. The relationship graph used for eager loading is derived from
// ForeignKeys and nothing else; the migrations under internal/migrate remain
// the DDL and tests keep both in agreement.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	TableUsers                   = "users"
	TableShippingAddresses       = "shipping_addresses"
	TableCategories              = "categories"
	TableProducts                = "products"
	TableProductImages           = "product_images"
	TableOrders                  = "orders"
	TableOrderItems              = "order_items"
	TableReviews                 = "reviews"
	TableReviewFeedbacks         = "review_feedbacks"
	TableNewsletterSubscriptions = "newsletter_subscriptions"
	TableContacts                = "contacts"
)

// Tables lists every table in creation order.
var Tables = []string{
	TableUsers,
	TableShippingAddresses,
	TableCategories,
	TableProducts,
	TableProductImages,
	TableOrders,
	TableOrderItems,
	TableReviews,
	TableReviewFeedbacks,
	TableNewsletterSubscriptions,
	TableContacts,
}

// OnDelete is the referential action taken when a parent row is deleted.
type OnDelete string

const (
	NoAction OnDelete = "NO ACTION"
	Restrict OnDelete = "RESTRICT"
	Cascade  OnDelete = "CASCADE"
)

// ForeignKey mirrors one REFERENCES clause in the migrations.
type ForeignKey struct {
	Name      string
	Table     string
	Column    string
	RefTable  string
	RefColumn string
	OnDelete  OnDelete
}

// ForeignKeys is the single source for the relationship graph.
var ForeignKeys = []ForeignKey{
	{Name: "shipping_addresses_user_id_fkey", Table: TableShippingAddresses, Column: "user_id", RefTable: TableUsers, RefColumn: "id", OnDelete: NoAction},
	{Name: "products_category_id_fkey", Table: TableProducts, Column: "category_id", RefTable: TableCategories, RefColumn: "id", OnDelete: NoAction},
	{Name: "product_images_product_id_fkey", Table: TableProductImages, Column: "product_id", RefTable: TableProducts, RefColumn: "id", OnDelete: Cascade},
	{Name: "orders_user_id_fkey", Table: TableOrders, Column: "user_id", RefTable: TableUsers, RefColumn: "id", OnDelete: Restrict},
	{Name: "orders_shipping_address_id_fkey", Table: TableOrders, Column: "shipping_address_id", RefTable: TableShippingAddresses, RefColumn: "id", OnDelete: NoAction},
	{Name: "order_items_product_id_fkey", Table: TableOrderItems, Column: "product_id", RefTable: TableProducts, RefColumn: "id", OnDelete: NoAction},
	{Name: "order_items_order_id_fkey", Table: TableOrderItems, Column: "order_id", RefTable: TableOrders, RefColumn: "id", OnDelete: NoAction},
	{Name: "reviews_user_id_fkey", Table: TableReviews, Column: "user_id", RefTable: TableUsers, RefColumn: "id", OnDelete: NoAction},
	{Name: "reviews_product_id_fkey", Table: TableReviews, Column: "product_id", RefTable: TableProducts, RefColumn: "id", OnDelete: Restrict},
	{Name: "review_feedbacks_review_id_fkey", Table: TableReviewFeedbacks, Column: "review_id", RefTable: TableReviews, RefColumn: "id", OnDelete: NoAction},
	{Name: "review_feedbacks_user_id_fkey", Table: TableReviewFeedbacks, Column: "user_id", RefTable: TableUsers, RefColumn: "id", OnDelete: NoAction},
}

// RelationKind distinguishes child->parent from parent->children edges.
type RelationKind string

const (
	One  RelationKind = "one"
	Many RelationKind = "many"
)

// Relation is one traversable edge of the graph. Loading it selects rows of
// Target whose TargetColumn matches the LocalColumn values of Table rows.
type Relation struct {
	Name         string
	Kind         RelationKind
	Table        string
	Target       string
	LocalColumn  string
	TargetColumn string
	ForeignKey   ForeignKey
}

// ErrUnknownRelation is returned by Lookup for names the graph does not hold.
var ErrUnknownRelation = errors.New("unknown relation")

var graph = Derive(ForeignKeys)

// Derive builds both directions of every foreign key. A "one" edge is named
// after the FK column without its _id suffix and a "many" edge after the
// child table.
func Derive(fks []ForeignKey) map[string][]Relation {
	out := make(map[string][]Relation)
	for _, fk := range fks {
		out[fk.Table] = append(out[fk.Table], Relation{
			Name:         strings.TrimSuffix(fk.Column, "_id"),
			Kind:         One,
			Table:        fk.Table,
			Target:       fk.RefTable,
			LocalColumn:  fk.Column,
			TargetColumn: fk.RefColumn,
			ForeignKey:   fk,
		})
		out[fk.RefTable] = append(out[fk.RefTable], Relation{
			Name:         fk.Table,
			Kind:         Many,
			Table:        fk.RefTable,
			Target:       fk.Table,
			LocalColumn:  fk.RefColumn,
			TargetColumn: fk.Column,
			ForeignKey:   fk,
		})
	}
	for table := range out {
		rels := out[table]
		sort.SliceStable(rels, func(i, j int) bool { return rels[i].Name < rels[j].Name })
	}
	return out
}

// Relations returns every edge leaving table, sorted by name.
func Relations(table string) []Relation {
	rels := graph[table]
	out := make([]Relation, len(rels))
	copy(out, rels)
	return out
}

// Lookup finds a named relation on table.
func Lookup(table, name string) (Relation, error) {
	for _, rel := range graph[table] {
		if rel.Name == name {
			return rel, nil
		}
	}
	return Relation{}, fmt.Errorf("%w: %s.%s", ErrUnknownRelation, table, name)
}

// ReferencedBy returns the foreign keys pointing at table.
func ReferencedBy(table string) []ForeignKey {
	var out []ForeignKey
	for _, fk := range ForeignKeys {
		if fk.RefTable == table {
			out = append(out, fk)
		}
	}
	return out
}

// LoadQuery selects the related rows for a batch of local key values bound
// as a single uuid[] parameter.
func (r Relation) LoadQuery() string {
	q := fmt.Sprintf("SELECT * FROM %s WHERE %s = ANY($1::uuid[])", r.Target, r.TargetColumn)
	if r.Kind == Many {
		q += " ORDER BY " + orderFor(r.Target)
	}
	return q
}

func orderFor(table string) string {
	if table == TableReviews {
		return "reviewed_at DESC, id"
	}
	return "created_at, id"
}
