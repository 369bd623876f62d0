package errno

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pingcap/errors"
)

var (
	// ErrSchemaParse is returned when a schema document is malformed or incomplete.
	ErrSchemaParse = errors.Normalize("invalid table schema: %s", errors.RFCCodeText("File2BQ:ErrSchemaParse"))
	// ErrRegistry is returned when BigQuery rejects or cannot serve a table lookup, create or delete.
	ErrRegistry = errors.Normalize("%s table %s failed: %s", errors.RFCCodeText("File2BQ:ErrRegistry"))
	// ErrTableAlreadyExists aborts a load whose target table is already present.
	ErrTableAlreadyExists = errors.Normalize("table %s already exists", errors.RFCCodeText("File2BQ:ErrTableAlreadyExists"))
	// ErrTableNotFound is reported by a warehouse when the addressed table does not exist.
	ErrTableNotFound = errors.Normalize("table %s not found", errors.RFCCodeText("File2BQ:ErrTableNotFound"))
	ErrInvalidConfig = errors.Normalize("invalid configuration: %s", errors.RFCCodeText("File2BQ:ErrInvalidConfig"))
	ErrInvalidFrame  = errors.Normalize("invalid tabular data: %s", errors.RFCCodeText("File2BQ:ErrInvalidFrame"))
)

func IsSchemaParse(err error) bool        { return ErrSchemaParse.Equal(err) }
func IsRegistry(err error) bool           { return ErrRegistry.Equal(err) }
func IsTableAlreadyExists(err error) bool { return ErrTableAlreadyExists.Equal(err) }
func IsTableNotFound(err error) bool      { return ErrTableNotFound.Equal(err) }
func IsInvalidConfig(err error) bool      { return ErrInvalidConfig.Equal(err) }
func IsInvalidFrame(err error) bool       { return ErrInvalidFrame.Equal(err) }

// LoadJobError is returned when a load job finished with row or field level
// failures. It keeps every message reported by the service.
type LoadJobError struct {
	Table string
	JobID string
	errs  *multierror.Error
}

// NewLoadJobError collects the given messages into a LoadJobError.
func NewLoadJobError(table, jobID string, messages []string) *LoadJobError {
	e := &LoadJobError{Table: table, JobID: jobID}
	for _, msg := range messages {
		e.errs = multierror.Append(e.errs, errors.New(msg))
	}
	return e
}

// Messages returns the collected messages in the order the service reported them.
func (e *LoadJobError) Messages() []string {
	if e.errs == nil {
		return nil
	}
	msgs := make([]string, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		msgs = append(msgs, err.Error())
	}
	return msgs
}

func (e *LoadJobError) Error() string {
	msgs := e.Messages()
	if len(msgs) == 0 {
		return fmt.Sprintf("load job %s into %s failed", e.JobID, e.Table)
	}
	return fmt.Sprintf("load job %s into %s failed with %d error(s): %s",
		e.JobID, e.Table, len(msgs), strings.Join(msgs, "; "))
}

// AsLoadJobError unwraps err and reports whether it is a LoadJobError.
func AsLoadJobError(err error) (*LoadJobError, bool) {
	e, ok := errors.Cause(err).(*LoadJobError)
	return e, ok
}
