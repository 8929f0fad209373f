package resource

import (
	"context"
	"io"
)

// RateLimitedWriter charges every write against the controller's IO budget
// before passing it on. Fetch wraps local store files with it.
type RateLimitedWriter struct {
	ctx context.Context
	w   io.Writer
	rc  *Controller
}

// NewRateLimitedWriter wraps w. A nil controller only passes writes through.
func NewRateLimitedWriter(ctx context.Context, w io.Writer, rc *Controller) *RateLimitedWriter {
	return &RateLimitedWriter{ctx: ctx, w: w, rc: rc}
}

func (lw *RateLimitedWriter) Write(p []byte) (int, error) {
	if err := lw.rc.AcquireIO(lw.ctx, len(p)); err != nil {
		return 0, err
	}
	return lw.w.Write(p)
}

// RateLimitedReader charges the bytes each read returned. Publish wraps
// local store files with it.
type RateLimitedReader struct {
	ctx context.Context
	r   io.Reader
	rc  *Controller
}

// NewRateLimitedReader wraps r. A nil controller only passes reads through.
func NewRateLimitedReader(ctx context.Context, r io.Reader, rc *Controller) *RateLimitedReader {
	return &RateLimitedReader{ctx: ctx, r: r, rc: rc}
}

func (lr *RateLimitedReader) Read(p []byte) (int, error) {
	n, err := lr.r.Read(p)
	if n == 0 {
		return 0, err
	}
	if werr := lr.rc.AcquireIO(lr.ctx, n); werr != nil {
		return n, werr
	}
	return n, err
}
