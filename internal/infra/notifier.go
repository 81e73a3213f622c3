package infra

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/eliteGoblin/eztrackd/internal/domain"
)

// WriterNotifier implements domain.Notifier by writing one line per notice,
// mirroring it to the log. There is no dialog rendering here; editor hosts
// wrap the tracker with their own Notifier when they have a UI.
type WriterNotifier struct {
	out    io.Writer
	logger *zap.Logger
}

// NewStderrNotifier creates a notifier writing to stderr.
func NewStderrNotifier(logger *zap.Logger) *WriterNotifier {
	return &WriterNotifier{out: os.Stderr, logger: logger}
}

// NewWriterNotifier creates a notifier writing to w (for testing).
func NewWriterNotifier(w io.Writer, logger *zap.Logger) *WriterNotifier {
	return &WriterNotifier{out: w, logger: logger}
}

// Notify surfaces one user-visible message.
func (n *WriterNotifier) Notify(message string) {
	fmt.Fprintln(n.out, message)
	n.logger.Warn("user notice", zap.String("message", message))
}

// Ensure WriterNotifier implements domain.Notifier.
var _ domain.Notifier = (*WriterNotifier)(nil)
