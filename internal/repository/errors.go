package repository

import "errors"

// ErrNotFound is the repository-level sentinel returned when a lookup for a
// single session finds no row. The service layer translates it into the
// domain-level not-found error, keeping business logic decoupled from the
// database driver's error values (e.g. sql.ErrNoRows).
var ErrNotFound = errors.New("repository: not found")

// ErrUnknownField is returned by Patch when asked to write a field that is
// not part of the session document. Catching this here keeps a misbehaving
// caller from silently dropping writes.
var ErrUnknownField = errors.New("repository: unknown document field")
