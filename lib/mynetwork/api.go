package mynetwork

import (
	"context"
)

// Monitor exposes the environment's view on network reachability.
// Subscribers are notified on every online/offline transition.
type Monitor interface {
	IsOnline(c context.Context) bool
	Subscribe(listener func(online bool)) (unsubscribe func())
}
