package pos

import (
	"context"
	"net/http"

	"github.com/omrysinwany/InvoTrack/internal/infra"
	"github.com/omrysinwany/InvoTrack/internal/model"
)

// Config carries everything an adapter needs to talk to its POS system.
// Credentials come straight from the user's stored settings; keys are
// system-specific.
type Config struct {
	SystemID    string
	Credentials map[string]string
	HTTPClient  *http.Client
	Breaker     *infra.CircuitBreaker
}

// Adapter is the uniform surface over one external POS system. Upserts are
// idempotent on the POS side: adapters create the counterpart when the entity
// has no reference there yet and update it otherwise.
type Adapter interface {
	SystemID() string
	TestConnection(ctx context.Context) error
	UpsertSupplier(ctx context.Context, s *model.Supplier) (externalID string, err error)
	UpsertProduct(ctx context.Context, p *model.Product) (externalID string, err error)
}

// ExpenseCreator is the optional capability of pushing a purchase document as
// an expense record. Systems without it simply don't implement the interface;
// the relay skips the document step for them.
type ExpenseCreator interface {
	CreateExpenseDocument(ctx context.Context, doc *model.Document, supplierExternalID string) (externalID string, err error)
}
