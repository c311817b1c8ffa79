package app

import (
	"fmt"

	"lycheesync/internal/lychee"
)

// Operation outcomes stored in sync_operations.status.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// operationLog is the part of the catalog that keeps the command history.
type operationLog interface {
	CreateOperation(operation string, parameters string) (*lychee.Operation, error)
	FinishOperation(id int64, status string) error
}

// operation records one CLI command in the history. Read-only commands
// never call begin and leave no row behind.
type operation struct {
	name   string
	id     int64 // zero until begin succeeds
	failed bool
}

func (o *operation) recorded() bool {
	return o.id != 0
}

func (o *operation) status() string {
	if o.failed {
		return StatusError
	}
	return StatusSuccess
}

// begin writes the history row. Calling it again is a no-op.
func (o *operation) begin(log operationLog, parameters string) error {
	if o.recorded() {
		return nil
	}
	row, err := log.CreateOperation(o.name, parameters)
	if err != nil {
		return fmt.Errorf("recording operation: %w", err)
	}
	o.id = row.ID
	return nil
}

// observe marks the operation failed when err is non-nil and returns err.
func (o *operation) observe(err error) error {
	if err != nil {
		o.failed = true
	}
	return err
}

// finish stamps the outcome on a recorded operation.
func (o *operation) finish(log operationLog) error {
	if !o.recorded() {
		return nil
	}
	if err := log.FinishOperation(o.id, o.status()); err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}
