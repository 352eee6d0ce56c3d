// Package encoder converts raw stored values into document values according
// to the canonical type table: booleans, Integer32 as plain integers,
// Integer64 marked with ".0", doubles with a mandatory ".", binary as
// "encoding=base64;…", timestamps in ISO-8601 with millisecond precision,
// points as {"X","Y"[,"Z"]} objects, geometry through an opaque codec,
// navigation as {"Id","RelECClassId"} and structs/arrays recursively.
//
// The encoder is immutable once built and safe for concurrent use.
package encoder
