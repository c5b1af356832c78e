// Package dberr holds the error kinds shared by the storage engines,
// the registry and the command drivers.
//
// Failure sites wrap one of these with context, callers match with errors.Is.
package dberr

import "errors"

var (
	// bad column count, duplicate column name, unknown type, primary index out of range
	ErrInvalidSchema = errors.New("invalid schema")

	// wrong arity, null primary value or a value that does not match its column type
	ErrMalformedRow = errors.New("malformed row")

	// strict insert of a primary key that is already present
	ErrKeyConflict = errors.New("key conflict")

	ErrNotFound = errors.New("not found")

	// the probe walk visited every slot without finding a free or matching one
	ErrCapacityExhausted = errors.New("capacity exhausted")

	// persisted bytes disagree with the declared schema or layout
	ErrStorageCorruption = errors.New("storage corruption")
)
