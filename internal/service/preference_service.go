package service

import (
	"context"

	"notesnap-gateway/internal/appstate"
	"notesnap-gateway/internal/dto"
)

type IPreferenceService interface {
	DarkMode(ctx context.Context, userId string) (*dto.DarkModeResponse, error)
	SetDarkMode(ctx context.Context, userId string, enabled bool) (*dto.DarkModeResponse, error)
}

type preferenceService struct {
	store appstate.IStore
}

func NewPreferenceService(store appstate.IStore) IPreferenceService {
	return &preferenceService{store: store}
}

func (s *preferenceService) DarkMode(ctx context.Context, userId string) (*dto.DarkModeResponse, error) {
	return &dto.DarkModeResponse{DarkMode: s.store.DarkMode(ctx, userId)}, nil
}

func (s *preferenceService) SetDarkMode(ctx context.Context, userId string, enabled bool) (*dto.DarkModeResponse, error) {
	if err := s.store.SetDarkMode(ctx, userId, enabled); err != nil {
		return nil, err
	}
	return &dto.DarkModeResponse{DarkMode: enabled}, nil
}
