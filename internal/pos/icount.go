package pos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/omrysinwany/InvoTrack/internal/infra"
	"github.com/omrysinwany/InvoTrack/internal/model"
)

const icountBaseURL = "https://api.icount.co.il/api/v3.php"

// icountAdapter talks to the iCount API. Every call is a POST to
// /{resource}/{method} with a session id obtained from auth/login; the
// session is cached like the Caspit token.
//
// iCount exposes no purchase-document endpoint on this surface, so the
// adapter deliberately does not implement ExpenseCreator.
type icountAdapter struct {
	baseURL    string
	companyID  string
	user       string
	password   string
	httpClient *http.Client
	breaker    *infra.CircuitBreaker

	mu  sync.Mutex
	sid string
}

func newICountAdapter(cfg Config) *icountAdapter {
	base := icountBaseURL
	if v := cfg.Credentials["base_url"]; v != "" {
		base = v
	}
	return &icountAdapter{
		baseURL:    base,
		companyID:  cfg.Credentials["cid"],
		user:       cfg.Credentials["user"],
		password:   cfg.Credentials["password"],
		httpClient: cfg.HTTPClient,
		breaker:    cfg.Breaker,
	}
}

func (a *icountAdapter) SystemID() string { return SystemICount }

func (a *icountAdapter) TestConnection(ctx context.Context) error {
	_, err := a.ensureSession(ctx)
	return err
}

type icountEnvelope struct {
	Status bool   `json:"status"`
	Reason string `json:"reason"`
	Sid    string `json:"sid"`
	ID     string `json:"id"`
}

func (a *icountAdapter) ensureSession(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sid != "" {
		return a.sid, nil
	}

	var out icountEnvelope
	err := a.post(ctx, "/auth/login", map[string]any{
		"cid":  a.companyID,
		"user": a.user,
		"pass": a.password,
	}, &out)
	if err != nil {
		return "", err
	}
	if !out.Status || out.Sid == "" {
		return "", fmt.Errorf("icount: login failed: %s", out.Reason)
	}
	a.sid = out.Sid
	return a.sid, nil
}

func (a *icountAdapter) post(ctx context.Context, path string, body map[string]any, out *icountEnvelope) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("icount: marshal payload: %w", err)
	}
	return a.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("icount: unreachable: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("icount: %s returned %d", path, resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}

// call runs one authenticated method; an expired session is dropped so the
// next call logs in again.
func (a *icountAdapter) call(ctx context.Context, path string, body map[string]any) (*icountEnvelope, error) {
	sid, err := a.ensureSession(ctx)
	if err != nil {
		return nil, err
	}
	body["sid"] = sid

	var out icountEnvelope
	if err := a.post(ctx, path, body, &out); err != nil {
		return nil, err
	}
	if !out.Status {
		if out.Reason == "invalid_session" {
			a.mu.Lock()
			a.sid = ""
			a.mu.Unlock()
		}
		return nil, fmt.Errorf("icount: %s failed: %s", path, out.Reason)
	}
	return &out, nil
}

func (a *icountAdapter) UpsertSupplier(ctx context.Context, s *model.Supplier) (string, error) {
	body := map[string]any{
		"client_name":   s.Name,
		"client_type":   "supplier",
		"custom_client": true,
	}
	if s.TaxID != nil {
		body["vat_id"] = *s.TaxID
	}
	if ref, ok := model.PosRefOf(s.PosRefs, SystemICount); ok {
		body["client_id"] = ref.ExternalID
		if _, err := a.call(ctx, "/client/update", body); err != nil {
			return "", err
		}
		return ref.ExternalID, nil
	}

	out, err := a.call(ctx, "/client/create", body)
	if err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("icount: client created without id")
	}
	return out.ID, nil
}

func (a *icountAdapter) UpsertProduct(ctx context.Context, p *model.Product) (string, error) {
	body := map[string]any{
		"description": p.Name,
		"sku":         p.CatalogNumber,
		"barcode":     p.Barcode,
		"cost_price":  p.UnitPrice.String(),
		"stock_qty":   p.Quantity,
		"is_active":   p.IsActive,
	}
	if p.SalePrice != nil {
		body["unit_price"] = p.SalePrice.String()
	}
	if ref, ok := model.PosRefOf(p.PosRefs, SystemICount); ok {
		body["item_id"] = ref.ExternalID
		if _, err := a.call(ctx, "/item/update", body); err != nil {
			return "", err
		}
		return ref.ExternalID, nil
	}

	out, err := a.call(ctx, "/item/create", body)
	if err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("icount: item created without id")
	}
	return out.ID, nil
}
