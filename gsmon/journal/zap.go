package journal

import (
	"github.com/gsocket-tools/gsmon/gsmon"
	"go.uber.org/zap"
)

// ZapWriter mirrors journal events to a zap logger at each event's
// severity, giving the console a human-readable view of the access log.
type ZapWriter struct {
	log *zap.SugaredLogger
}

var _ gsmon.Journaler = (*ZapWriter)(nil)

// NewZapWriter creates a journaler backed by the given zap logger.
func NewZapWriter(log *zap.Logger) *ZapWriter {
	return &ZapWriter{log: log.Sugar()}
}

func (z *ZapWriter) Write(ev gsmon.Event) error {
	switch ev.Severity() {
	case gsmon.SeverityInfo:
		z.log.Infow(ev.Type(), "data", ev)
	case gsmon.SeverityWarning:
		z.log.Warnw(ev.Type(), "data", ev)
	case gsmon.SeverityCritical:
		z.log.Errorw(ev.Type(), "data", ev, "critical", true)
	default:
		z.log.Errorw(ev.Type(), "data", ev)
	}

	return nil
}
