package download

import (
	"context"
	"io"
)

// contextReader stops a copy loop once ctx is done, even when the
// underlying reader would keep producing bytes.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	return cr.r.Read(p)
}
