// Package compiler turns CUE class definitions into class layouts.
//
// A model file declares schemas, their classes and each class's ordered
// properties. Column mappings follow fixed naming rules unless a property
// overrides its column:
//
//	primitive       one column named after the property
//	point2d/3d      name_X, name_Y[, name_Z]
//	navigation      nameId, nameRelECClassId
//	struct          one mapping per member, prefixed "name_", recursively
//	array           one TEXT column holding a JSON array
//
// Root entities map to "alias_Class" unless they name a table. A subclass
// that names a table keeps its own properties in that joined table and
// shares the root's primary table and discriminator.
//
// Example:
//
//	schemas: TestSchema: {
//		alias: "ts"
//		classes: {
//			Base: {
//				id:            0x20
//				classIdColumn: "ECClassId"
//				properties: [{name: "Prop1", type: "string"}]
//			}
//			Sub: {
//				id:    0x21
//				bases: ["Base"]
//				table: "ts_Sub"
//				properties: [{name: "SubProp1", type: "string"}]
//			}
//		}
//	}
package compiler
