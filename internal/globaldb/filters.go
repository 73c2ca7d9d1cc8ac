package globaldb

import (
	"gorm.io/gorm"
)

type predicate struct {
	query string
	args  []any
}

// filters is an ordered list of predicates joined with AND. Values are always bound, never
// formatted into the query.
type filters []predicate

func (f filters) and(query string, args ...any) filters {
	return append(f, predicate{query: query, args: args})
}

func (f filters) apply(db *gorm.DB) *gorm.DB {
	for _, p := range f {
		db = db.Where(p.query, p.args...)
	}
	return db
}

// chunks splits values so that IN lists stay well below the bound variable limit.
func chunks[T any](values []T, size int) [][]T {
	var ret [][]T
	for size < len(values) {
		values, ret = values[size:], append(ret, values[:size:size])
	}
	if len(values) > 0 {
		ret = append(ret, values)
	}
	return ret
}

const chunkSize = 500
