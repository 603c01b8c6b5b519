package migrate

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"
)

var (
	nonIdentRe = regexp.MustCompile(`[^a-z0-9_]+`)
	tableRe    = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
)

var blankTmpl = template.Must(template.New("blank").Parse(`-- +goose Up
-- +goose StatementBegin
-- {{.Name}}
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback {{.Name}}
-- +goose StatementEnd
`))

// Every storefront table carries the server-managed id and audit columns
// plus the trigger that maintains them on update.
var tableTmpl = template.Must(template.New("table").Parse(`-- +goose Up
CREATE TABLE IF NOT EXISTS {{.Table}} (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    created_at timestamptz NOT NULL DEFAULT now(),
    updated_at timestamptz NOT NULL DEFAULT now()
);

CREATE TRIGGER {{.Table}}_audit BEFORE UPDATE ON {{.Table}} FOR EACH ROW EXECUTE FUNCTION set_row_audit_columns();

-- +goose Down
DROP TRIGGER IF EXISTS {{.Table}}_audit ON {{.Table}};
DROP TABLE IF EXISTS {{.Table}};
`))

type scaffold struct {
	Name  string
	Table string
}

// CreateSQLMigration writes an empty migration named
// <dir>/<YYYYMMDDHHMMSS>_<name>.sql and returns its path. An empty dir means
// SourceDir.
func CreateSQLMigration(dir, name string) (string, error) {
	safe := sanitizeName(name)
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}
	return writeMigration(dir, safe, blankTmpl, scaffold{Name: safe})
}

// CreateTableMigration writes a create_<table> migration with the id and
// audit columns and the <table>_audit trigger already in place.
func CreateTableMigration(dir, table string) (string, error) {
	safe := sanitizeName(table)
	if !tableRe.MatchString(safe) {
		return "", fmt.Errorf("table name %q is not a valid identifier", table)
	}
	return writeMigration(dir, "create_"+safe, tableTmpl, scaffold{Name: "create_" + safe, Table: safe})
}

func writeMigration(dir, name string, tmpl *template.Template, data scaffold) (string, error) {
	if dir == "" {
		dir = SourceDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	version := time.Now().UTC().Format("20060102150405")
	path := filepath.Join(dir, version+"_"+name+".sql")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("migration already exists: %s", path)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render migration %s: %w", name, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, nil
}

func sanitizeName(name string) string {
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = nonIdentRe.ReplaceAllString(safe, "_")
	return strings.Trim(safe, "_")
}
