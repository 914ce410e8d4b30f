package pipeline

import "fmt"

// Stage names used in StageError and metrics.
const (
	StageOpen      = "open"
	StageRead      = "read"
	StageTransform = "transform"
	StageWrite     = "write"
)

// StageError names the stage, and the dataset or table, a run failed in.
type StageError struct {
	Stage string
	Table string
	Err   error
}

func (e *StageError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Table, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
