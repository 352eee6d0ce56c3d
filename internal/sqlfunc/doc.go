// Package sqlfunc exposes the instance reader to SQL.
//
// Register installs a mattn/go-sqlite3 driver under a caller-chosen name
// whose connections carry four scalar functions:
//
//	extract_inst(classId, instanceId)       -> TEXT document, NULL if absent
//	extract_prop(classId, instanceId, name) -> native value or TEXT json
//	prop_exists(classId, name)              -> INTEGER 0/1
//	ec_classid('alias.Class')               -> INTEGER class id, NULL if unknown
//
// This is the boundary a query compiler calls into; the functions
// themselves do no planning.
package sqlfunc
