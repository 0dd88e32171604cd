package sqlstore

import (
	"strings"

	"github.com/custodia-labs/loam/internal/core/domain"
)

// dialect holds the engine-specific bits of SQL the store needs.
type dialect struct {
	driver     domain.StoreDriver
	driverName string

	// maxParams bounds the number of bind parameters in one statement.
	maxParams int

	tableExistsQuery string
	columnsQuery     string

	types map[domain.ColumnType]string
}

var sqliteDialect = dialect{
	driver:           domain.StoreDriverSQLite,
	driverName:       "sqlite",
	maxParams:        32766,
	tableExistsQuery: `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
	columnsQuery:     `SELECT name FROM pragma_table_info(?) ORDER BY cid`,
	types: map[domain.ColumnType]string{
		domain.ColumnText:     "TEXT",
		domain.ColumnInteger:  "INTEGER",
		domain.ColumnReal:     "REAL",
		domain.ColumnBoolean:  "BOOLEAN",
		domain.ColumnGeometry: "TEXT",
		domain.ColumnJSON:     "TEXT",
	},
}

var postgresDialect = dialect{
	driver:     domain.StoreDriverPostgres,
	driverName: "pgx",
	maxParams:  65535,
	tableExistsQuery: `SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = ?`,
	columnsQuery: `SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = ? ORDER BY ordinal_position`,
	types: map[domain.ColumnType]string{
		domain.ColumnText:     "TEXT",
		domain.ColumnInteger:  "BIGINT",
		domain.ColumnReal:     "DOUBLE PRECISION",
		domain.ColumnBoolean:  "BOOLEAN",
		domain.ColumnGeometry: "TEXT",
		domain.ColumnJSON:     "TEXT",
	},
}

func dialectFor(driver domain.StoreDriver) (dialect, bool) {
	switch driver {
	case domain.StoreDriverSQLite, "":
		return sqliteDialect, true
	case domain.StoreDriverPostgres:
		return postgresDialect, true
	default:
		return dialect{}, false
	}
}

func (d dialect) columnType(t domain.ColumnType) string {
	if s, ok := d.types[t]; ok {
		return s
	}
	return "TEXT"
}

// quoteIdent quotes an identifier for both SQLite and PostgreSQL.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteIdents(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

// createTableSQL renders a CREATE TABLE statement for def.
func (d dialect) createTableSQL(def domain.TableDef, ifNotExists bool) string {
	var pks []string
	for _, c := range def.Columns {
		if c.PrimaryKey {
			pks = append(pks, c.Name)
		}
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(quoteIdent(def.Name))
	b.WriteString(" (")
	for i, c := range def.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(c.Name))
		b.WriteByte(' ')
		b.WriteString(d.columnType(c.Type))
		if c.PrimaryKey && len(pks) == 1 {
			b.WriteString(" PRIMARY KEY")
		}
	}
	if len(pks) > 1 {
		b.WriteString(", PRIMARY KEY (")
		b.WriteString(quoteIdents(pks))
		b.WriteString(")")
	}
	b.WriteString(")")
	return b.String()
}
