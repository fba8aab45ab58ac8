package realtime

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Dispatcher serializes events once and routes the resulting frame through
// the registry. Dispatch is fire-and-forget: a mutation that already
// committed never fails because fan-out did.
type Dispatcher struct {
	reg *Registry
}

// NewDispatcher creates a dispatcher over reg.
func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{reg: reg}
}

func (d *Dispatcher) marshal(event any) ([]byte, bool) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Interface("event", event).Msg("failed to marshal event")
		return nil, false
	}
	return msg, true
}

// Broadcast delivers event to every connected user.
func (d *Dispatcher) Broadcast(event any) {
	if msg, ok := d.marshal(event); ok {
		d.reg.Broadcast(msg)
	}
}

// BroadcastExcept delivers event to everyone but exceptID, typically the
// actor who already applied the change optimistically.
func (d *Dispatcher) BroadcastExcept(exceptID string, event any) {
	if msg, ok := d.marshal(event); ok {
		d.reg.BroadcastExcept(exceptID, msg)
	}
}

// SendToUser delivers event to one user if they are connected.
func (d *Dispatcher) SendToUser(userID string, event any) {
	if msg, ok := d.marshal(event); ok {
		d.reg.SendToUser(userID, msg)
	}
}
