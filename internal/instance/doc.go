// Package instance answers the three questions a query layer asks about a
// stored object: does a property exist on a class, what is one property's
// value, and what does the whole object look like as a document.
//
// A Reader combines the class catalog, a row source and the value encoder.
// Per class it builds one immutable extraction plan (the ordered list of
// visible properties, their column codecs and the compiled row query) and
// caches it for the life of the Reader.
//
// All Reader methods are safe for concurrent use.
package instance
