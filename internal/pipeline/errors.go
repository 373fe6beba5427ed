package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/valpere/revtran/internal/stage"
)

// StageError attributes a failed run to a block and the stage it died in.
type StageError struct {
	BlockID string
	Stage   stage.Stage
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("block %s: stage %s: %v", e.BlockID, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Cancelled reports whether the run stopped because its context ended.
func (e *StageError) Cancelled() bool {
	return errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded)
}
