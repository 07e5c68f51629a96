package service

import (
	"context"
	"sort"

	"github.com/omrysinwany/InvoTrack/internal/dto"
	"github.com/omrysinwany/InvoTrack/internal/infra"
	"github.com/omrysinwany/InvoTrack/internal/model"
	"github.com/omrysinwany/InvoTrack/internal/pos"
	"github.com/omrysinwany/InvoTrack/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PosService manages the user's POS configuration. Credentials are stored
// opaquely and only their key names are ever echoed back.
type PosService interface {
	GetSettings(ctx context.Context, userID uuid.UUID) (*dto.PosSettingsResponse, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, req dto.UpdatePosSettingsRequest) (*dto.PosSettingsResponse, error)
	TestConnection(ctx context.Context, userID uuid.UUID) (*dto.TestConnectionResponse, error)
}

type posService struct {
	repo    repository.PosSettingsRepository
	breaker *infra.CircuitBreaker
}

func NewPosService(repo repository.PosSettingsRepository, breaker *infra.CircuitBreaker) PosService {
	return &posService{repo: repo, breaker: breaker}
}

func (s *posService) GetSettings(ctx context.Context, userID uuid.UUID) (*dto.PosSettingsResponse, error) {
	settings, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toPosSettingsResponse(settings), nil
}

func (s *posService) UpdateSettings(ctx context.Context, userID uuid.UUID, req dto.UpdatePosSettingsRequest) (*dto.PosSettingsResponse, error) {
	// Reject unknown system ids up front, before anything is stored.
	if _, err := pos.NewAdapter(pos.Config{SystemID: req.SystemID, Credentials: req.Credentials}); err != nil {
		return nil, err
	}

	settings := &model.PosSettings{
		UserID:      userID,
		SystemID:    req.SystemID,
		Credentials: datatypes.NewJSONType(req.Credentials),
	}
	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, err
	}
	return toPosSettingsResponse(settings), nil
}

// TestConnection authenticates against the configured system with the stored
// credentials. Failures are reported in the response body, not as errors.
func (s *posService) TestConnection(ctx context.Context, userID uuid.UUID) (*dto.TestConnectionResponse, error) {
	settings, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	adapter, err := pos.NewAdapter(pos.Config{
		SystemID:    settings.SystemID,
		Credentials: settings.Credentials.Data(),
		Breaker:     s.breaker,
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.TestConnectionResponse{SystemID: settings.SystemID, OK: true}
	if err := adapter.TestConnection(ctx); err != nil {
		resp.OK = false
		resp.Error = err.Error()
	}
	return resp, nil
}

func toPosSettingsResponse(s *model.PosSettings) *dto.PosSettingsResponse {
	creds := s.Credentials.Data()
	keys := make([]string, 0, len(creds))
	for k := range creds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &dto.PosSettingsResponse{SystemID: s.SystemID, CredentialKeys: keys}
}
