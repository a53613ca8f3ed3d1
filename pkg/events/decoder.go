package events

import (
	"encoding/json"
	"fmt"
	"sync"
)

type decoderFunc func(payload json.RawMessage) (interface{}, error)

type registryKey struct {
	eventType Type
	version   int
}

// DecoderRegistry stores versioned payload decoders for consumers.
type DecoderRegistry struct {
	mtx      sync.RWMutex
	registry map[registryKey]decoderFunc
}

// NewDecoderRegistry builds an empty decoder registry.
func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{registry: make(map[registryKey]decoderFunc)}
}

// Register stores a decoder for the given event type and version.
func (r *DecoderRegistry) Register(eventType Type, version int, decoder decoderFunc) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.registry[registryKey{eventType: eventType, version: version}] = decoder
}

// Decode runs the decoder registered for the event type and version.
func (r *DecoderRegistry) Decode(eventType Type, version int, payload json.RawMessage) (interface{}, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	if decoder, ok := r.registry[registryKey{eventType: eventType, version: version}]; ok {
		return decoder(payload)
	}
	return nil, fmt.Errorf("decoder not registered for %s@v%d", eventType, version)
}

// DefaultRegistry wires the v1 decoders for every domain event type.
func DefaultRegistry() *DecoderRegistry {
	reg := NewDecoderRegistry()
	reg.Register(TypeBookingCreated, 1, func(payload json.RawMessage) (interface{}, error) {
		var evt BookingCreatedEvent
		if err := json.Unmarshal(payload, &evt); err != nil {
			return nil, err
		}
		return evt, nil
	})
	reg.Register(TypeMessageSent, 1, func(payload json.RawMessage) (interface{}, error) {
		var evt MessageSentEvent
		if err := json.Unmarshal(payload, &evt); err != nil {
			return nil, err
		}
		return evt, nil
	})
	reg.Register(TypePaymentCaptured, 1, func(payload json.RawMessage) (interface{}, error) {
		var evt PaymentCapturedEvent
		if err := json.Unmarshal(payload, &evt); err != nil {
			return nil, err
		}
		return evt, nil
	})
	reg.Register(TypeBookingReminder, 1, func(payload json.RawMessage) (interface{}, error) {
		var evt BookingReminderEvent
		if err := json.Unmarshal(payload, &evt); err != nil {
			return nil, err
		}
		return evt, nil
	})
	return reg
}
