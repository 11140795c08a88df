// Package dataset loads the five squad CSV datasets and validates them
// against their expected schemas at the boundary.
//
// Each loader maps the CSV header to column indexes by name, so column
// order in the file does not matter. A missing required column aborts the
// load with a MissingColumnError naming the table and column. Rows whose
// date fails to parse are dropped and counted, never coerced; the count is
// reported on the LoadResult so callers can surface data-quality issues
// without failing the whole table.
//
// Numeric measurements use the Float type, which round-trips missing
// values as JSON null and NaN in memory. Downstream consumers treat NaN
// as "no observation".
package dataset
