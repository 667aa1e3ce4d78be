package network

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedChannel throttles outgoing messages with a token bucket.
// Receives are not limited.
type RateLimitedChannel struct {
	inner   Channel
	limiter *rate.Limiter
}

// NewRateLimitedChannel allows messagesPerSecond sustained sends with
// bursts of up to burst messages
func NewRateLimitedChannel(inner Channel, messagesPerSecond float64, burst int) (*RateLimitedChannel, error) {
	if messagesPerSecond <= 0 || burst < 1 {
		return nil, ErrInvalidRate
	}
	return &RateLimitedChannel{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(messagesPerSecond), burst),
	}, nil
}

// Send waits for a token, then forwards data
func (c *RateLimitedChannel) Send(ctx context.Context, data []byte) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.inner.Send(ctx, data)
}

// Receive forwards to the wrapped channel
func (c *RateLimitedChannel) Receive(ctx context.Context) ([]byte, error) {
	return c.inner.Receive(ctx)
}
