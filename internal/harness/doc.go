// Package harness runs conformance scenarios against the instance reader.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	model: ../models/testschema.cue
//	options:
//	  null_arrays: emit      # or omit
//	  null_structs: emit     # or omit
//	rows:
//	  - class: ts.P
//	    id: "0x1"
//	    values: { s: "Hello", p2d: { X: 2, Y: 4 } }
//	flow:
//	  - op: materialize
//	    class: ts.P
//	    id: "0x1"
//	    expect:
//	      json: '{"ECInstanceId":"0x1",...}'
//	      paths:
//	        - { path: "$.p2d.X", equals: 2.0 }
//	  - op: extract
//	    class: ts.P
//	    id: "0x1"
//	    property: s
//	    expect: { json: '"Hello"' }
//	  - op: exists
//	    class: ts.Sub
//	    property: Prop1
//	    expect: { exists: true }
//	  - op: seek
//	    class: ts.P
//	    id: "0x77"
//	    expect: { found: false }
//	  - op: materialize
//	    class: ts.P
//	    id: "0x99"
//	    expect: { error: INSTANCE_NOT_FOUND }
//
// Row values are plain YAML data: points are {X, Y[, Z]} maps, binary and
// geometry values are strings (optionally "encoding=base64;..."),
// timestamps are ISO strings, navigation values are {Id, RelECClassId}
// maps, structs are maps and arrays are lists. A row without an id is
// numbered after the largest explicit id.
//
// # Operations
//
//   - materialize: the whole instance document
//   - extract: one property as a document value
//   - scalar: one property through the SQL scalar channel
//   - exists: property existence on a class
//   - seek: point lookup; output is the document or "not found"
//
// # Golden Files
//
// Every step renders one line of output. RunWithGolden compares those lines
// with testdata/golden/{scenario.Name}.golden.
//
// Each scenario runs against a fresh in-memory database with the stub
// line-segment geometry codec, so output is deterministic.
package harness
