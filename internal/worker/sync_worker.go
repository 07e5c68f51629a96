package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/omrysinwany/InvoTrack/internal/pos"

	"github.com/google/uuid"
)

// PosSyncWorker pushes a committed document to the configured POS system.
// Sync failures are recorded on the document by the relay itself; Process
// only reports payload-level problems.
type PosSyncWorker struct {
	relay *pos.Relay
}

func NewPosSyncWorker(relay *pos.Relay) *PosSyncWorker {
	return &PosSyncWorker{relay: relay}
}

func (w *PosSyncWorker) Process(ctx context.Context, payload json.RawMessage) error {
	var p PosSyncJobPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("pos sync: decode payload: %w", err)
	}
	userID, err := uuid.Parse(p.UserID)
	if err != nil {
		return fmt.Errorf("pos sync: invalid user id %q: %w", p.UserID, err)
	}
	documentID, err := uuid.Parse(p.DocumentID)
	if err != nil {
		return fmt.Errorf("pos sync: invalid document id %q: %w", p.DocumentID, err)
	}
	return w.relay.Sync(ctx, userID, documentID)
}
