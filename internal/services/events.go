package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pappi-calculator/authserver/internal/mq"
	"github.com/pappi-calculator/authserver/types"
)

// RegisteredChannel is the broker channel on which new accounts are
// announced.
const RegisteredChannel = "estudiante.registrado"

// registeredEvent is the wire payload published for each new account.
// It carries no password material.
type registeredEvent struct {
	ID                  int       `json:"id"`
	CorreoInstitucional string    `json:"correo_institucional"`
	RegistradoEn        time.Time `json:"registrado_en"`
}

// EventPublisher announces account lifecycle events on a message
// broker.
type EventPublisher struct {
	mq *mq.MQ
}

// NewEventPublisher wraps a connected broker backend.
func NewEventPublisher(backend mq.Backend) *EventPublisher {
	return &EventPublisher{mq: mq.New(backend)}
}

// Registered publishes an announcement for a freshly created account.
func (p *EventPublisher) Registered(ctx context.Context, est types.Estudiante) error {
	payload, err := json.Marshal(registeredEvent{
		ID:                  est.ID,
		CorreoInstitucional: est.CorreoInstitucional,
		RegistradoEn:        est.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode registration event: %w", err)
	}
	_, err = p.mq.Publish(ctx, RegisteredChannel, payload, nil)
	return err
}
