package rowsql

import (
	"fmt"
	"strings"

	"github.com/roach88/ecreader/internal/model"
)

// Column is one physical column in the select list.
type Column struct {
	Table string
	Name  string
}

// RowRead describes the read of one instance row.
type RowRead struct {
	// Primary is the table holding one row per instance of the hierarchy.
	Primary string

	// ClassIDColumn, when set, is the discriminator on Primary. The compiled
	// query then only matches rows of the exact class.
	ClassIDColumn string

	// Columns are selected in order after the leading Id column. Columns on
	// tables other than Primary cause a LEFT JOIN on Id.
	Columns []Column
}

// Query is a compiled RowRead.
type Query struct {
	SQL string

	// Width is the number of result columns (Id plus Columns).
	Width int

	filterClass bool
}

// Args returns the positional parameters for reading instanceID of classID.
func (q Query) Args(classID model.ClassID, instanceID model.InstanceID) []any {
	if q.filterClass {
		return []any{int64(instanceID), int64(classID)}
	}
	return []any{int64(instanceID)}
}

// Compile converts a RowRead to parameterized SQL.
//
// Shape:
//
//	SELECT [t0].[Id], [t0].[a], [t1].[b] FROM [Primary] [t0]
//	LEFT JOIN [Other] [t1] ON [t1].[Id] = [t0].[Id]
//	WHERE [t0].[Id] = ? AND [t0].[ECClassId] = ?
//
// Join aliases follow first appearance in Columns, so output is
// deterministic for a given RowRead.
func Compile(r RowRead) (Query, error) {
	if r.Primary == "" {
		return Query{}, fmt.Errorf("row read has no primary table")
	}

	aliases := map[string]string{r.Primary: "t0"}
	var joins []string
	selectList := []string{column("t0", model.IDColumn)}

	for _, c := range r.Columns {
		if c.Name == "" {
			return Query{}, fmt.Errorf("empty column name on table %q", c.Table)
		}
		table := c.Table
		if table == "" {
			table = r.Primary
		}
		alias, ok := aliases[table]
		if !ok {
			alias = fmt.Sprintf("t%d", len(aliases))
			aliases[table] = alias
			joins = append(joins, fmt.Sprintf(" LEFT JOIN %s %s ON %s = %s",
				quote(table), quote(alias), column(alias, model.IDColumn), column("t0", model.IDColumn)))
		}
		selectList = append(selectList, column(alias, c.Name))
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(selectList, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(quote(r.Primary))
	sb.WriteString(" ")
	sb.WriteString(quote("t0"))
	for _, j := range joins {
		sb.WriteString(j)
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(column("t0", model.IDColumn))
	sb.WriteString(" = ?")
	if r.ClassIDColumn != "" {
		sb.WriteString(" AND ")
		sb.WriteString(column("t0", r.ClassIDColumn))
		sb.WriteString(" = ?")
	}

	return Query{
		SQL:         sb.String(),
		Width:       len(selectList),
		filterClass: r.ClassIDColumn != "",
	}, nil
}

func column(alias, name string) string {
	return quote(alias) + "." + quote(name)
}

// quote brackets an identifier. A closing bracket cannot be escaped inside
// [...], so identifiers containing one fall back to double quotes.
func quote(ident string) string {
	if strings.Contains(ident, "]") {
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	}
	return "[" + ident + "]"
}

// Quote exposes identifier quoting for DDL written elsewhere in the module.
func Quote(ident string) string {
	return quote(ident)
}
