package schema_test

import (
	"io/fs"
	"regexp"
	"testing"

	"smrt/internal/migrate"
	"smrt/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fkClauseRe = regexp.MustCompile(`CONSTRAINT (\w+) FOREIGN KEY \((\w+)\) REFERENCES (\w+)\((\w+)\) ON DELETE (CASCADE|RESTRICT|NO ACTION)`)

func TestForeignKeysMatchMigrations(t *testing.T) {
	matches, err := fs.Glob(migrate.FS(), migrate.EmbeddedDir+"/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	declared := map[string]schema.ForeignKey{}
	for _, path := range matches {
		data, err := fs.ReadFile(migrate.FS(), path)
		require.NoError(t, err)

		for _, m := range fkClauseRe.FindAllStringSubmatch(string(data), -1) {
			declared[m[1]] = schema.ForeignKey{
				Name:      m[1],
				Column:    m[2],
				RefTable:  m[3],
				RefColumn: m[4],
				OnDelete:  schema.OnDelete(m[5]),
			}
		}
	}

	require.Len(t, declared, len(schema.ForeignKeys))
	for _, fk := range schema.ForeignKeys {
		sql, ok := declared[fk.Name]
		if !assert.True(t, ok, "constraint %s missing from migrations", fk.Name) {
			continue
		}
		assert.Regexp(t, "^"+fk.Table+"_", fk.Name)
		assert.Equal(t, sql.Column, fk.Column, fk.Name)
		assert.Equal(t, sql.RefTable, fk.RefTable, fk.Name)
		assert.Equal(t, sql.RefColumn, fk.RefColumn, fk.Name)
		assert.Equal(t, sql.OnDelete, fk.OnDelete, fk.Name)
	}
}

func TestOnlyProductImagesCascade(t *testing.T) {
	for _, fk := range schema.ForeignKeys {
		if fk.Table == schema.TableProductImages {
			assert.Equal(t, schema.Cascade, fk.OnDelete)
			continue
		}
		assert.NotEqual(t, schema.Cascade, fk.OnDelete, fk.Name)
	}
}

func TestEveryForeignKeyHasBothDirections(t *testing.T) {
	for _, fk := range schema.ForeignKeys {
		var one, many bool
		for _, rel := range schema.Relations(fk.Table) {
			if rel.Kind == schema.One && rel.ForeignKey == fk {
				one = true
			}
		}
		for _, rel := range schema.Relations(fk.RefTable) {
			if rel.Kind == schema.Many && rel.ForeignKey == fk {
				many = true
			}
		}
		assert.True(t, one, "missing one-relation for %s", fk.Name)
		assert.True(t, many, "missing many-relation for %s", fk.Name)
	}
}

func TestRelationNamesUniquePerTable(t *testing.T) {
	for _, table := range schema.Tables {
		seen := map[string]bool{}
		for _, rel := range schema.Relations(table) {
			assert.False(t, seen[rel.Name], "duplicate relation %s.%s", table, rel.Name)
			seen[rel.Name] = true
		}
	}
}

func TestLookup(t *testing.T) {
	rel, err := schema.Lookup(schema.TableProducts, "category")
	require.NoError(t, err)
	assert.Equal(t, schema.One, rel.Kind)
	assert.Equal(t, schema.TableCategories, rel.Target)
	assert.Equal(t, "category_id", rel.LocalColumn)
	assert.Equal(t, "id", rel.TargetColumn)

	rel, err = schema.Lookup(schema.TableProducts, "product_images")
	require.NoError(t, err)
	assert.Equal(t, schema.Many, rel.Kind)
	assert.Equal(t, "id", rel.LocalColumn)
	assert.Equal(t, "product_id", rel.TargetColumn)

	_, err = schema.Lookup(schema.TableProducts, "wishlist")
	assert.ErrorIs(t, err, schema.ErrUnknownRelation)
}

func TestStandaloneTablesHaveNoRelations(t *testing.T) {
	assert.Empty(t, schema.Relations(schema.TableNewsletterSubscriptions))
	assert.Empty(t, schema.Relations(schema.TableContacts))
}

func TestLoadQuery(t *testing.T) {
	rel, err := schema.Lookup(schema.TableProducts, "reviews")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM reviews WHERE product_id = ANY($1::uuid[]) ORDER BY reviewed_at DESC, id", rel.LoadQuery())

	rel, err = schema.Lookup(schema.TableOrders, "user")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE id = ANY($1::uuid[])", rel.LoadQuery())
}

func TestReferencedBy(t *testing.T) {
	fks := schema.ReferencedBy(schema.TableUsers)
	assert.Len(t, fks, 4)
	assert.Empty(t, schema.ReferencedBy(schema.TableOrderItems))
}
