package table

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/kangaroo/filter"
)

// Plan describes how a query is evaluated.
type Plan struct {
	// Indexed are the equality filters answered from index buckets.
	Indexed []filter.Filter
	// Residual are the filters evaluated by scanning the candidates.
	Residual []filter.Filter
	// Candidates is the number of rows the residual filters are applied to.
	Candidates int
	// FullScan is true when no filter could use an index.
	FullScan bool
}

// String implements fmt.Stringer.
func (p Plan) String() string {
	var b strings.Builder
	if p.FullScan {
		b.WriteString("full scan")
	} else {
		fields := make([]string, len(p.Indexed))
		for i, f := range p.Indexed {
			fields[i] = f.Field
		}
		fmt.Fprintf(&b, "index(%s)", strings.Join(fields, ","))
	}
	fmt.Fprintf(&b, " candidates=%d", p.Candidates)
	if len(p.Residual) > 0 {
		keys := make([]string, len(p.Residual))
		for i, f := range p.Residual {
			keys[i] = f.Key()
		}
		fmt.Fprintf(&b, " filter(%s)", strings.Join(keys, ","))
	}
	return b.String()
}

// Find returns the first row, in insertion order, that satisfies every filter.
// With no filters it returns the first row of the table.
func (t *Table) Find(filters ...filter.Filter) (*Row, bool) {
	rows, _ := t.query(filters, 1)
	if len(rows) == 0 {
		return nil, false
	}
	return rows[0], true
}

// FindAll returns all rows, in insertion order, that satisfy every filter.
func (t *Table) FindAll(filters ...filter.Filter) []*Row {
	rows, _ := t.query(filters, 0)
	return rows
}

// FindBy is Find for a query in the filter-key mini-language.
func (t *Table) FindBy(args filter.Args) (*Row, bool, error) {
	filters, err := args.Parse()
	if err != nil {
		return nil, false, err
	}
	r, ok := t.Find(filters...)
	return r, ok, nil
}

// FindAllBy is FindAll for a query in the filter-key mini-language.
func (t *Table) FindAllBy(args filter.Args) ([]*Row, error) {
	filters, err := args.Parse()
	if err != nil {
		return nil, err
	}
	return t.FindAll(filters...), nil
}

// Explain returns the plan FindAll would use for filters.
func (t *Table) Explain(filters ...filter.Filter) Plan {
	t.mu.RLock()
	defer t.mu.RUnlock()

	plan, buckets := t.planLocked(filters)
	if plan.FullScan {
		plan.Candidates = len(t.rows)
	} else {
		plan.Candidates = len(intersect(buckets))
	}
	return plan
}

// query evaluates filters and returns at most limit rows (all if limit <= 0).
func (t *Table) query(filters []filter.Filter, limit int) ([]*Row, Plan) {
	start := time.Now()

	t.mu.RLock()
	plan, buckets := t.planLocked(filters)

	var result []*Row
	// emit reports whether more rows are wanted.
	emit := func(r *Row) bool {
		if !filter.Match(r, plan.Residual...) {
			return true
		}
		result = append(result, r)
		return limit <= 0 || len(result) < limit
	}

	if plan.FullScan {
		plan.Candidates = len(t.rows)
		for _, r := range t.rows {
			if !emit(r) {
				break
			}
		}
	} else {
		ids := intersect(buckets)
		plan.Candidates = len(ids)
		for _, id := range ids {
			if !emit(t.byID[id]) {
				break
			}
		}
	}
	t.mu.RUnlock()

	t.metrics.RecordQuery(plan.FullScan, plan.Candidates, len(result), time.Since(start))
	return result, plan
}

// planLocked splits filters into index-accelerated and residual ones and
// fetches the bucket of every accelerated filter (nil for a missing value).
// Caller must hold t.mu.RLock().
func (t *Table) planLocked(filters []filter.Filter) (Plan, []*roaring64.Bitmap) {
	var (
		plan    Plan
		buckets []*roaring64.Bitmap
	)
	for _, f := range filters {
		if ix, ok := t.indexes[f.Field]; ok && f.Indexable() {
			plan.Indexed = append(plan.Indexed, f)
			buckets = append(buckets, ix.lookup(f.Value))
			continue
		}
		plan.Residual = append(plan.Residual, f)
	}
	plan.FullScan = len(plan.Indexed) == 0
	return plan, buckets
}

// intersect returns the ids present in every bucket, in ascending order.
// It walks the smallest bucket and probes the others.
func intersect(buckets []*roaring64.Bitmap) []uint64 {
	if len(buckets) == 0 {
		return nil
	}
	for _, b := range buckets {
		if b == nil || b.IsEmpty() {
			return nil
		}
	}

	sorted := slices.Clone(buckets)
	slices.SortFunc(sorted, func(a, b *roaring64.Bitmap) int {
		return cmp.Compare(a.GetCardinality(), b.GetCardinality())
	})
	smallest, rest := sorted[0], sorted[1:]

	ids := make([]uint64, 0, smallest.GetCardinality())
	it := smallest.Iterator()
next:
	for it.HasNext() {
		id := it.Next()
		for _, b := range rest {
			if !b.Contains(id) {
				continue next
			}
		}
		ids = append(ids, id)
	}
	return ids
}
