// Package doc provides the document value types produced by materialization
// and their byte-stable JSON rendering.
//
// Key rendering rules:
//   - Object members keep insertion order (documents are not key-sorted)
//   - No HTML escaping (< > & are NOT escaped)
//   - Strings are written as stored, with no Unicode normalization
//   - Long renders integer digits with a ".0" suffix
//   - Double always carries a "." in the mantissa; NaN and Inf render as null
package doc
