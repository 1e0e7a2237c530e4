package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/abdasg25/BioPass/core"
)

// SessionAuthenticatedEvent is emitted when a QR session reaches its
// terminal authenticated state.
type SessionAuthenticatedEvent struct {
	SessionKey string `json:"session_key"`
	UserID     string `json:"user_id"`
	DeviceID   string `json:"device_id,omitempty"`
	Method     string `json:"method"` // "webauthn" or "device"
}

// DeviceRegisteredEvent is emitted when a device binding is registered.
type DeviceRegisteredEvent struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher    message.Publisher
	sessionTopic string
	deviceTopic  string
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{
		publisher:    publisher,
		sessionTopic: "biopass.session.authenticated",
		deviceTopic:  "biopass.device.registered",
	}
}

// PublishSessionAuthenticated publishes a session-authenticated event.
func (p *WatermillPublisher) PublishSessionAuthenticated(ctx context.Context, session *core.QRSession, method string) error {
	event := SessionAuthenticatedEvent{
		SessionKey: session.SessionKey,
		UserID:     session.AuthenticatedUserID,
		DeviceID:   session.DeviceID,
		Method:     method,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(session.SessionKey, payload)

	if err := p.publisher.Publish(p.sessionTopic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// PublishDeviceRegistered publishes a device-registered event.
func (p *WatermillPublisher) PublishDeviceRegistered(ctx context.Context, device *core.Device) error {
	event := DeviceRegisteredEvent{
		UserID:   device.UserID,
		DeviceID: device.DeviceID,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(device.DeviceID, payload)

	if err := p.publisher.Publish(p.deviceTopic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
