package device

import (
	"context"
	"fmt"
	"time"
)

// Retry calls fn until it returns OK or attempts run out, pausing delay
// after every attempt. It returns the last reply and error.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) (Reply, error)) (Reply, error) {
	if attempts < 1 {
		attempts = 1
	}

	var (
		reply Reply = Fail
		err   error
	)
	for i := 0; i < attempts; i++ {
		reply, err = fn(ctx)
		ok := err == nil && reply == OK
		if !sleep(ctx, delay) || ok {
			break
		}
	}
	if err == nil && reply != OK {
		err = fmt.Errorf("robot replied %q after %d attempts", reply, attempts)
		reply = Fail
	}
	return reply, err
}
