package dto

// UpdatePosSettingsRequest configures (or reconfigures) the external POS
// system for the authenticated user. Credentials are opaque to the core and
// interpreted only by the selected adapter.
type UpdatePosSettingsRequest struct {
	SystemID    string            `json:"system_id"   validate:"required"`
	Credentials map[string]string `json:"credentials" validate:"required"`
}

type PosSettingsResponse struct {
	SystemID string `json:"system_id"`
	// CredentialKeys lists configured credential names; values are never
	// echoed back.
	CredentialKeys []string `json:"credential_keys"`
}

type TestConnectionResponse struct {
	SystemID string `json:"system_id"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}
