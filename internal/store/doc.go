// Package store provides the SQLite storage adapter the reader consumes.
//
// The store owns the physical conventions for mapped classes:
//   - Every entity table has an INTEGER PRIMARY KEY column named Id
//   - The primary table of a hierarchy may carry a class id discriminator
//   - Joined subclass tables share the Id of the primary row
//   - Point2d/Point3d occupy X, Y[, Z] REAL columns
//   - Navigation occupies a target id and a relationship class id column
//   - Struct members are flattened into their own columns, recursively
//   - Arrays occupy one TEXT column holding JSON; inside it binary and
//     geometry values are base64 strings, timestamps are unix milliseconds
//     and points/structs are objects
//   - DateTime columns hold unix milliseconds
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Pragmas are passed through the DSN so every pooled connection gets them.
package store
