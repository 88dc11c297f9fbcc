// Package fieldpath resolves dotted field references used by rules and
// conditions against the concrete path of the field that declares them.
//
// Paths are dot separated ("rows.2.qty"). Numeric segments address list
// elements. A "*" segment in a reference means "the same index as the
// declaring field", so a rule declared once for every row of a list resolves
// to the right sibling for each instance:
//
//	fieldpath.Resolve("rows.*.total", "rows.2.qty") // "rows.2.total"
//
// Resolution never fails. Templates that cannot be matched are returned as is,
// which keeps absolute references working without special casing.
package fieldpath
