package safe

import (
	"context"
	"fmt"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/rollcall/pkg/utils/errutil"
)

// Close closes closer and reports a failure. Nil closers are ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		_ = errutil.Handle(ctx,
			goerr.Wrap(err, "failed to close", goerr.V("type", fmt.Sprintf("%T", closer))),
			"failed to close resource")
	}
}

// Write writes data to w, typically a response body, and reports a failure.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	if n, err := w.Write(data); err != nil {
		_ = errutil.Handle(ctx,
			goerr.Wrap(err, "failed to write", goerr.V("size", len(data)), goerr.V("written", n)),
			"failed to write response")
	}
}
