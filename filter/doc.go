// Package filter implements the predicate set used to query kangaroo tables.
//
// A Filter is a (field, operator, value) triple. A query is a conjunction of
// filters: a row must satisfy every filter to be returned. A row that does not
// define the filtered field never matches, regardless of the operator.
//
// # Operators
//
//   - eq: equality (implied by a bare field key)
//   - ne: inequality
//   - gt, gte, lt, lte: ordered comparison of numbers or strings
//   - in: field value is one of the predicate values
//   - range: low <= field value <= high
//   - contains: field array holds the predicate, or field string contains it
//   - startswith, endswith: string prefix/suffix test
//
// # Filter keys
//
// Queries can be written in the key mini-language, where "number__gt" means
// field "number" with operator "gt":
//
//	filters, err := filter.Args{
//	    "animal":     "kangaroo",
//	    "number__gt": 2,
//	}.Parse()
//
// Or built directly:
//
//	rows := tbl.FindAll(filter.Eq("animal", "kangaroo"), filter.Gt("number", 2))
//
// An unrecognized operator suffix fails with ErrUnknownOperator.
package filter
