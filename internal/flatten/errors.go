// Package flatten turns VCF records into typed table rows.
package flatten

import (
	"errors"
	"fmt"

	"github.com/inodb/vcfnp/internal/schema"
)

// MalformedRecordError reports a record whose structure does not match the
// header, such as a call block with the wrong number of samples.
type MalformedRecordError struct {
	Chrom   string
	Pos     int64
	Message string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record at %s:%d: %s", e.Chrom, e.Pos, e.Message)
}

// Policy selects what happens to a record that fails coercion.
type Policy int

const (
	// Abort returns the error to the caller.
	Abort Policy = iota
	// Skip drops the record, counts it and continues.
	Skip
)

func (p Policy) String() string {
	if p == Skip {
		return "skip"
	}
	return "abort"
}

// ParsePolicy parses "skip" or "abort".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "skip", "lenient":
		return Skip, nil
	case "abort", "strict":
		return Abort, nil
	}
	return Abort, fmt.Errorf("unknown coercion policy %q", s)
}

// IsRecoverable reports whether err concerns a single record's data and may
// be skipped under the Skip policy. Configuration and accounting errors are
// never recoverable.
func IsRecoverable(err error) bool {
	var fce *schema.FieldCoercionError
	var mre *MalformedRecordError
	return errors.As(err, &fce) || errors.As(err, &mre)
}
