package device

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ruckusbots/ruckus/internal/game"
)

// Phase is where an order stands in its dispatch lifecycle.
type Phase int

const (
	Sent Phase = iota
	AwaitingAck
	AwaitingCompletion
	Completed
	AckTimedOut
	CompletionTimedOut
)

func (p Phase) String() string {
	switch p {
	case Sent:
		return "sent"
	case AwaitingAck:
		return "awaiting-ack"
	case AwaitingCompletion:
		return "awaiting-completion"
	case Completed:
		return "completed"
	case AckTimedOut:
		return "ack-timed-out"
	case CompletionTimedOut:
		return "completion-timed-out"
	default:
		return "unknown"
	}
}

// Outcome is the final state of one dispatched order.
type Outcome struct {
	// Acked is true when the robot acknowledged the order. A completion
	// timeout leaves it true.
	Acked    bool
	Phase    Phase
	Attempts int
}

// Timing bounds every wait in a dispatch.
type Timing struct {
	AckTimeout        time.Duration
	CompletionTimeout time.Duration
	Settle            time.Duration
	PollInterval      time.Duration
}

// DefaultTiming returns the watchdog bounds used with real robots.
func DefaultTiming() Timing {
	return Timing{
		AckTimeout:        3 * time.Second,
		CompletionTimeout: 7 * time.Second,
		Settle:            250 * time.Millisecond,
		PollInterval:      20 * time.Millisecond,
	}
}

// Dispatcher sends move orders and waits, with bounded patience, for the
// robot to acknowledge and finish them.
type Dispatcher struct {
	link   Link
	timing Timing
	logger *log.Logger

	// OnPhase, when set, observes every phase an order passes through.
	OnPhase func(o game.Order, p Phase)
}

// NewDispatcher creates a dispatcher over link.
func NewDispatcher(link Link, timing Timing, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{link: link, timing: timing, logger: logger}
}

// Link returns the link orders go out on.
func (d *Dispatcher) Link() Link {
	return d.link
}

// Dispatch sends o and blocks until the robot finishes, a watchdog fires,
// or ctx ends. The settle delay follows every order regardless of outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, o game.Order) Outcome {
	r := o.Robot
	var out Outcome
	d.enter(&out, o, Sent)
	r.Moving.Reset()

	d.enter(&out, o, AwaitingAck)
	out.Acked, out.Attempts = d.awaitAck(ctx, o)

	if !out.Acked {
		d.enter(&out, o, AckTimedOut)
		d.logger.Warn("robot did not acknowledge move order", "robot", r.Name, "order", o.String(), "attempts", out.Attempts)
	} else {
		d.enter(&out, o, AwaitingCompletion)
		d.enter(&out, o, d.awaitCompletion(ctx, r))
		if out.Phase == CompletionTimedOut {
			d.logger.Warn("robot did not finish moving", "robot", r.Name, "order", o.String())
		}
	}

	sleep(ctx, d.timing.Settle)
	return out
}

func (d *Dispatcher) enter(out *Outcome, o game.Order, p Phase) {
	out.Phase = p
	if d.OnPhase != nil {
		d.OnPhase(o, p)
	}
}

// awaitAck resends the order until the robot answers OK or the ack
// watchdog expires.
func (d *Dispatcher) awaitAck(ctx context.Context, o game.Order) (bool, int) {
	ackCtx, cancel := context.WithTimeout(ctx, d.timing.AckTimeout)
	defer cancel()

	attempts := 0
	for {
		attempts++
		reply, err := d.link.Move(ackCtx, o.Robot, o)
		if err == nil && reply == OK {
			return true, attempts
		}
		if !sleep(ackCtx, d.timing.PollInterval) {
			return false, attempts
		}
	}
}

func (d *Dispatcher) awaitCompletion(ctx context.Context, r *game.Robot) Phase {
	watchdog := time.NewTimer(d.timing.CompletionTimeout)
	defer watchdog.Stop()

	select {
	case <-r.Moving.C():
		return Completed
	case <-watchdog.C:
		return CompletionTimedOut
	case <-ctx.Done():
		return CompletionTimedOut
	}
}

// sleep waits for d or until ctx ends, reporting whether the full wait
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
