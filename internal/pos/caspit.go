package pos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/omrysinwany/InvoTrack/internal/infra"
	"github.com/omrysinwany/InvoTrack/internal/model"
)

const caspitBaseURL = "https://app.caspit.biz/api/v1"

// Purchase-invoice document type in the Caspit document taxonomy.
const caspitDocTypePurchase = 300

// caspitAdapter talks to the Caspit bookkeeping API. Caspit issues a token
// per credential set; the adapter acquires it lazily on first use and caches
// it for the adapter's lifetime.
type caspitAdapter struct {
	baseURL    string
	user       string
	password   string
	osekMorshe string
	httpClient *http.Client
	breaker    *infra.CircuitBreaker

	mu    sync.Mutex
	token string
}

func newCaspitAdapter(cfg Config) *caspitAdapter {
	base := caspitBaseURL
	if v := cfg.Credentials["base_url"]; v != "" {
		base = v
	}
	return &caspitAdapter{
		baseURL:    base,
		user:       cfg.Credentials["user"],
		password:   cfg.Credentials["password"],
		osekMorshe: cfg.Credentials["osek_morshe"],
		httpClient: cfg.HTTPClient,
		breaker:    cfg.Breaker,
	}
}

func (a *caspitAdapter) SystemID() string { return SystemCaspit }

func (a *caspitAdapter) TestConnection(ctx context.Context) error {
	_, err := a.ensureToken(ctx)
	return err
}

// ensureToken returns the cached API token, acquiring one on first use.
func (a *caspitAdapter) ensureToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token != "" {
		return a.token, nil
	}

	q := url.Values{}
	q.Set("user", a.user)
	q.Set("pwd", a.password)
	q.Set("osekmorshe", a.osekMorshe)

	var out struct {
		TokenID string `json:"TokenId"`
	}
	err := a.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/token?"+q.Encode(), nil)
		if err != nil {
			return err
		}
		resp, err := a.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("caspit: unreachable: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("caspit: token request returned %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&out)
	})
	if err != nil {
		return "", err
	}
	if out.TokenID == "" {
		return "", fmt.Errorf("caspit: empty token")
	}
	a.token = out.TokenID
	return a.token, nil
}

// do issues one authenticated request. A 401 invalidates the cached token so
// the next call re-authenticates.
func (a *caspitAdapter) do(ctx context.Context, method, path string, body, out any) error {
	token, err := a.ensureToken(ctx)
	if err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("caspit: marshal payload: %w", err)
		}
	}

	return a.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path+"?token="+url.QueryEscape(token), bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("caspit: unreachable: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized {
			a.mu.Lock()
			a.token = ""
			a.mu.Unlock()
			return fmt.Errorf("caspit: token rejected")
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("caspit: %s %s returned %d", method, path, resp.StatusCode)
		}
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}

type caspitContact struct {
	ID           string `json:"Id,omitempty"`
	Name         string `json:"Name"`
	OsekMorshe   string `json:"OsekMorshe,omitempty"`
	ContactType  int    `json:"ContactType"`
	PaymentTerms string `json:"PaymentTerms,omitempty"`
}

func (a *caspitAdapter) UpsertSupplier(ctx context.Context, s *model.Supplier) (string, error) {
	contact := caspitContact{
		Name:        s.Name,
		ContactType: 2, // supplier
	}
	if s.TaxID != nil {
		contact.OsekMorshe = *s.TaxID
	}
	if s.PaymentTerms != nil {
		contact.PaymentTerms = *s.PaymentTerms
	}

	if ref, ok := model.PosRefOf(s.PosRefs, SystemCaspit); ok {
		contact.ID = ref.ExternalID
		if err := a.do(ctx, http.MethodPut, "/contacts/"+url.PathEscape(ref.ExternalID), contact, nil); err != nil {
			return "", err
		}
		return ref.ExternalID, nil
	}

	var created caspitContact
	if err := a.do(ctx, http.MethodPost, "/contacts", contact, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("caspit: contact created without id")
	}
	return created.ID, nil
}

type caspitProduct struct {
	ID            string `json:"Id,omitempty"`
	Name          string `json:"Name"`
	CatalogNumber string `json:"CatalogNumber,omitempty"`
	Barcode       string `json:"Barcode,omitempty"`
	PurchasePrice string `json:"PurchasePrice"`
	SalePrice     string `json:"SalePrice,omitempty"`
	QtyInStock    int    `json:"QtyInStock"`
	Status        bool   `json:"Status"`
}

func (a *caspitAdapter) UpsertProduct(ctx context.Context, p *model.Product) (string, error) {
	product := caspitProduct{
		Name:          p.Name,
		CatalogNumber: p.CatalogNumber,
		Barcode:       p.Barcode,
		PurchasePrice: p.UnitPrice.String(),
		QtyInStock:    p.Quantity,
		Status:        p.IsActive,
	}
	if p.SalePrice != nil {
		product.SalePrice = p.SalePrice.String()
	}

	if ref, ok := model.PosRefOf(p.PosRefs, SystemCaspit); ok {
		product.ID = ref.ExternalID
		if err := a.do(ctx, http.MethodPut, "/products/"+url.PathEscape(ref.ExternalID), product, nil); err != nil {
			return "", err
		}
		return ref.ExternalID, nil
	}

	var created caspitProduct
	if err := a.do(ctx, http.MethodPost, "/products", product, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("caspit: product created without id")
	}
	return created.ID, nil
}

type caspitDocumentLine struct {
	Details   string `json:"Details"`
	Qty       int    `json:"Qty"`
	UnitPrice string `json:"UnitPrice"`
	Total     string `json:"Total"`
}

type caspitDocument struct {
	ID         string               `json:"Id,omitempty"`
	DocTypeID  int                  `json:"DocTypeId"`
	ContactID  string               `json:"ContactId"`
	Reference  string               `json:"Reference,omitempty"`
	Date       string               `json:"Date"`
	TotalPrice string               `json:"TotalPrice"`
	Lines      []caspitDocumentLine `json:"Lines"`
}

// CreateExpenseDocument registers the purchase as a Caspit expense document
// against the supplier's contact record.
func (a *caspitAdapter) CreateExpenseDocument(ctx context.Context, doc *model.Document, supplierExternalID string) (string, error) {
	out := caspitDocument{
		DocTypeID:  caspitDocTypePurchase,
		ContactID:  supplierExternalID,
		Date:       doc.Date.Format("2006-01-02"),
		TotalPrice: doc.TotalAmount.String(),
	}
	if doc.InvoiceNumber != nil {
		out.Reference = *doc.InvoiceNumber
	}
	for _, li := range doc.LineItems {
		out.Lines = append(out.Lines, caspitDocumentLine{
			Details:   li.Name,
			Qty:       li.Quantity,
			UnitPrice: li.UnitPrice.String(),
			Total:     li.TotalPrice.String(),
		})
	}

	var created caspitDocument
	if err := a.do(ctx, http.MethodPost, "/documents", out, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("caspit: document created without id")
	}
	return created.ID, nil
}
