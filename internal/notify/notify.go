// Package notify delivers prioritized news packages to subscriber channels.
package notify

import (
	"context"
	"errors"

	"newsalpha/internal/alpha"
)

// ErrChannelGone marks a delivery failure scoped to one channel: the channel
// was deleted or the bot lost permission to post there. The broadcast loop
// tolerates it and keeps fanning out to the remaining channels.
var ErrChannelGone = errors.New("channel unavailable")

// ErrAuth marks a credential failure. Nothing else will deliver either, so
// the broadcast loop aborts on it.
var ErrAuth = errors.New("authentication failed")

// Notifier posts one news package to one channel.
type Notifier interface {
	Send(ctx context.Context, channelID string, pkg alpha.Package) error
}

// IsChannelGone reports whether err is tolerable for a single channel.
func IsChannelGone(err error) bool {
	return errors.Is(err, ErrChannelGone)
}

// IsAuth reports whether err is a credential failure.
func IsAuth(err error) bool {
	return errors.Is(err, ErrAuth)
}
