package storage

import (
	"context"

	"github.com/Vodeneev/livebet/internal/pkg/models"
)

// SignalSink is a persistence collaborator for emitted signals.
type SignalSink interface {
	SaveSignal(ctx context.Context, signal *models.Signal) error
	Close() error
}
