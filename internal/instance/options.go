package instance

import (
	"log/slog"

	"github.com/roach88/ecreader/internal/encoder"
)

// Options are the null-handling choices for documents.
type Options = encoder.Policy

// Null-handling choices, re-exported for callers of this package.
const (
	EmitEmptyArray  = encoder.EmitEmptyArray
	OmitNullArray   = encoder.OmitNullArray
	EmitEmptyStruct = encoder.EmitEmptyStruct
	OmitNullStruct  = encoder.OmitNullStruct
)

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithOptions sets the null-handling options.
// Default: NULL arrays render as [], all-unset structs render as {}.
func WithOptions(opts Options) ReaderOption {
	return func(r *Reader) {
		r.opts = opts
	}
}

// WithGeometryCodec sets the codec for Geometry properties.
// Default: encoder.JSONGeometry.
func WithGeometryCodec(c encoder.GeometryCodec) ReaderOption {
	return func(r *Reader) {
		r.geometry = c
	}
}

// WithLogger sets the logger for plan builds and read failures.
// Default: slog.Default().
func WithLogger(l *slog.Logger) ReaderOption {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}
