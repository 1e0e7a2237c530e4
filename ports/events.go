package ports

import (
	"context"

	"github.com/abdasg25/BioPass/core"
)

// EventPublisher publishes events to notify other instances
type EventPublisher interface {
	PublishSessionAuthenticated(ctx context.Context, session *core.QRSession, method string) error
	PublishDeviceRegistered(ctx context.Context, device *core.Device) error
}
