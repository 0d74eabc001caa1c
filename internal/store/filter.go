package store

import (
	"fmt"
	"strings"

	"restaurant-pos/internal/models"
)

// Dialect captures the SQL differences between the backends
type Dialect struct {
	Placeholder func(n int) string
	// Like is the case-insensitive pattern operator
	Like string
}

var (
	Postgres = Dialect{
		Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		Like:        "ILIKE",
	}
	SQLite = Dialect{
		Placeholder: func(int) string { return "?" },
		Like:        "LIKE",
	}
)

// Where accumulates AND-ed conditions and their arguments
type Where struct {
	dialect Dialect
	conds   []string
	args    []any
}

func NewWhere(d Dialect) *Where {
	return &Where{dialect: d}
}

// Add appends a condition; each %s in cond is replaced by the next
// placeholder, one per argument
func (w *Where) Add(cond string, args ...any) {
	placeholders := make([]any, len(args))
	for i, arg := range args {
		w.args = append(w.args, arg)
		placeholders[i] = w.dialect.Placeholder(len(w.args))
	}
	w.conds = append(w.conds, fmt.Sprintf(cond, placeholders...))
}

// Contains adds a case-insensitive substring match on column
func (w *Where) Contains(column, value string) {
	w.Add(column+" "+w.dialect.Like+` %s ESCAPE '\'`, "%"+escapeLike(value)+"%")
}

// SQL renders the WHERE clause, or nothing when there are no conditions
func (w *Where) SQL() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// Args returns the arguments of the conditions added so far
func (w *Where) Args() []any {
	return append([]any(nil), w.args...)
}

// Page renders ORDER BY id with LIMIT/OFFSET, returning the full argument
// list for the paged select
func (w *Where) Page(page models.PageRequest) (string, []any) {
	args := w.Args()
	limit := w.dialect.Placeholder(len(args) + 1)
	offset := w.dialect.Placeholder(len(args) + 2)
	args = append(args, page.Size, page.Offset())
	return fmt.Sprintf(" ORDER BY id LIMIT %s OFFSET %s", limit, offset), args
}

// MenuWhere translates a menu filter into conditions
func MenuWhere(d Dialect, f models.MenuFilter) *Where {
	w := NewWhere(d)
	if f.Category != nil && *f.Category != "" {
		w.Contains("category", *f.Category)
	}
	if f.Search != nil && *f.Search != "" {
		w.Contains("name", *f.Search)
	}
	if f.MinPrice != nil {
		w.Add("price >= %s", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		w.Add("price <= %s", *f.MaxPrice)
	}
	return w
}

// OrderWhere translates an order filter into conditions
func OrderWhere(d Dialect, f models.OrderFilter) *Where {
	w := NewWhere(d)
	if f.Status != nil && *f.Status != "" {
		w.Contains("status", *f.Status)
	}
	if f.MinTotal != nil {
		w.Add("total_price >= %s", *f.MinTotal)
	}
	if f.MaxTotal != nil {
		w.Add("total_price <= %s", *f.MaxTotal)
	}
	return w
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
