package socket

import (
	"context"

	"github.com/slack-go/slack/socketmode"
)

type Acker = acker

// HandleEvent is exported for testing
func (l *Listener) HandleEvent(ctx context.Context, ack Acker, evt socketmode.Event) {
	l.handleEvent(ctx, ack, evt)
}
