// pkg/cleaner/aggregate.go
package cleaner

import (
	"cmp"
	"errors"
	"fmt"
	"math"

	"github.com/David-Botos/sales-etl/pkg/model"
)

// ErrEmptyDistribution is matched by every EmptyDistributionError
var ErrEmptyDistribution = errors.New("empty distribution")

// EmptyDistributionError is returned when a fill rule has no non-null
// values in its source column to aggregate
type EmptyDistributionError struct {
	Column string
}

func (e *EmptyDistributionError) Error() string {
	return fmt.Sprintf("cannot fill %s: column has no non-null values", e.Column)
}

// Is lets errors.Is(err, ErrEmptyDistribution) match
func (e *EmptyDistributionError) Is(target error) bool {
	return target == ErrEmptyDistribution
}

// mode returns the most frequent value. Ties go to the smallest value so the
// result does not depend on row order.
func mode[V cmp.Ordered](values []V) (V, bool) {
	var best V
	if len(values) == 0 {
		return best, false
	}

	counts := make(map[V]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	bestCount := 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best, true
}

// roundedMean returns the arithmetic mean rounded half to even
func roundedMean(values []int64) (int64, bool) {
	if len(values) == 0 {
		return 0, false
	}

	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	return int64(math.RoundToEven(sum / float64(len(values)))), true
}

// present collects the non-null values of one field
func present[V any](rs model.RecordSet, get func(*model.Record) *V) []V {
	values := make([]V, 0, len(rs))
	for i := range rs {
		if p := get(&rs[i]); p != nil {
			values = append(values, *p)
		}
	}
	return values
}

// NoMatchPolicy decides what a grouped fill does with a row whose group has
// no non-null value to offer
type NoMatchPolicy int

const (
	// DropOnNoMatch removes the row
	DropOnNoMatch NoMatchPolicy = iota
	// KeepOnNoMatch leaves the value missing
	KeepOnNoMatch
)

func (p NoMatchPolicy) String() string {
	switch p {
	case DropOnNoMatch:
		return "drop"
	case KeepOnNoMatch:
		return "keep"
	default:
		return "unknown"
	}
}

// groupedFill groups rows by a key column, aggregates the non-null target
// values per group and writes the aggregate into the group's missing values.
// Lookups read the input set only, so fills made during the pass are never
// seen by later rows of the same pass.
type groupedFill[V cmp.Ordered] struct {
	column    string
	keyColumn string
	key       func(*model.Record) *string
	get       func(*model.Record) *V
	set       func(*model.Record, V)
	format    func(V) string
	aggregate func([]V) (V, bool)
	policy    NoMatchPolicy
}

func (g groupedFill[V]) step(rs model.RecordSet, log *opLog) (model.RecordSet, error) {
	return g.apply(rs, log), nil
}

func (g groupedFill[V]) apply(rs model.RecordSet, log *opLog) model.RecordSet {
	groups := make(map[string][]V)
	for i := range rs {
		k, v := g.key(&rs[i]), g.get(&rs[i])
		if k == nil || v == nil {
			continue
		}
		groups[*k] = append(groups[*k], *v)
	}

	fills := make(map[string]V, len(groups))
	out := make(model.RecordSet, 0, len(rs))
	for i, r := range rs.Clone() {
		if g.get(&r) != nil {
			out = append(out, r)
			continue
		}

		var (
			value V
			found bool
		)
		if k := g.key(&r); k != nil {
			if value, found = fills[*k]; !found {
				if value, found = g.aggregate(groups[*k]); found {
					fills[*k] = value
				}
			}
		}

		if found {
			g.set(&r, value)
			log.fill(&r, i, g.column, g.format(value), model.OpGroupModeFill, "inferred_from_"+g.keyColumn)
			out = append(out, r)
			continue
		}

		if g.policy == KeepOnNoMatch {
			out = append(out, r)
			continue
		}
		log.drop(&r, i, g.column, "no_"+g.column+"_for_"+g.keyColumn)
	}

	return out
}
