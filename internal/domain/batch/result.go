// Package batch describes per-item outcomes of multi-document writes.
package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of one document write in a batch.
type Result struct {
	id  string
	err error
}

// NewOK creates a successful result.
func NewOK(id string) Result { return Result{id: id} }

// NewError creates a failed result.
func NewError(id string, err error) Result { return Result{id: id, err: err} }

// ID returns the document identifier.
func (r Result) ID() string { return r.id }

// Status is derived from the presence of an error.
func (r Result) Status() ItemStatus {
	if r.err != nil {
		return StatusError
	}
	return StatusOK
}

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Tally counts succeeded and failed results.
func Tally(results []Result) (succeeded, failed int) {
	for _, r := range results {
		if r.err != nil {
			failed++
			continue
		}
		succeeded++
	}
	return succeeded, failed
}
