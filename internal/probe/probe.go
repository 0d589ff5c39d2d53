package probe

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/netdoctor/netdoctor/internal/domain"
)

// Probe runs one check against a target. Implementations are total: they
// always return a ProbeOutcome, converting every fault into status=failed
// with an error taxonomy label. The passed context carries the probe's
// deadline.
type Probe interface {
	Kind() domain.ProbeKind
	Run(ctx context.Context, target domain.Target) domain.ProbeOutcome
}

// Failure builds a failed outcome with the taxonomy label preserved.
func Failure(kind domain.ProbeKind, ek domain.ErrorKind, msg string, elapsed time.Duration) domain.ProbeOutcome {
	return domain.ProbeOutcome{
		Kind:      kind,
		Status:    domain.StatusFailed,
		ErrorKind: ek,
		Error:     msg,
		ElapsedMS: ms(elapsed),
	}
}

// classifyNetErr maps transport-level errors onto the taxonomy.
func classifyNetErr(err error) domain.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return domain.ErrTimeout
	}
	return domain.ErrConnection
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
