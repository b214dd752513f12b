package rawr

import "errors"

// ErrInvalidData is returned when a persisted state.json (or any journal
// line) fails to parse. Callers may quarantine the file and start fresh but
// must not silently overwrite it without an audit trail.
var ErrInvalidData = errors.New("rawr: invalid data")
