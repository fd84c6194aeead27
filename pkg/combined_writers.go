package pkg

import (
	"fmt"
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter mirrors every write to all of its writers, e.g. STDOUT and a
// rotated log file. A failing writer does not stop the others.
type CombinedWriter struct {
	Writers []io.Writer
	// Err holds the error of the last failed write, if any.
	Err error
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{
		Writers: append([]io.Writer(nil), writers...),
	}
}

// Write reports len(p) when at least one writer took the whole payload,
// together with the combined errors of the ones that did not.
func (cw *CombinedWriter) Write(p []byte) (int, error) {
	var (
		err       error
		succeeded int
	)
	for i, w := range cw.Writers {
		written, werr := w.Write(p)
		if werr == nil && written < len(p) {
			werr = io.ErrShortWrite
		}
		if werr != nil {
			err = multierr.Append(err, fmt.Errorf("writer %d: %w", i, werr))
			continue
		}
		succeeded++
	}

	cw.Err = err
	if succeeded == 0 && len(cw.Writers) > 0 {
		return 0, err
	}
	return len(p), err
}
