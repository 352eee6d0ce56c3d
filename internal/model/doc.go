// Package model defines the identifiers, kind tags and layout types shared by
// every other ecreader package.
//
// This package contains type definitions only. All other internal packages
// import model; model imports nothing internal. Layouts are produced once by a
// model loader (see internal/compiler) and treated as immutable afterwards.
package model
