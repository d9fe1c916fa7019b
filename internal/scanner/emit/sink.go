package emit

import (
	"context"
	"fmt"

	"github.com/Vodeneev/livebet/internal/pkg/models"
	"github.com/Vodeneev/livebet/internal/pkg/storage"
)

// SinkEmitter adapts a persistence sink to the Emitter interface. The sink's
// lifetime belongs to whoever built it; Close here is a no-op.
type SinkEmitter struct {
	name string
	sink storage.SignalSink
}

func NewSinkEmitter(name string, sink storage.SignalSink) *SinkEmitter {
	return &SinkEmitter{name: name, sink: sink}
}

func (e *SinkEmitter) Emit(ctx context.Context, signal *models.Signal) error {
	if err := e.sink.SaveSignal(ctx, signal); err != nil {
		return fmt.Errorf("%s sink: %w", e.name, err)
	}
	return nil
}

func (e *SinkEmitter) Close() {}
