// Package catalog provides the Class Layout Catalog: read-only access to
// class layouts keyed by ClassID, their linearized ancestor chains and their
// qualified names.
//
// A Catalog is built once from a set of layouts and never mutated, so every
// method is safe for concurrent readers without locking.
package catalog
