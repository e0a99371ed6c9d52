package service

import (
	"context"

	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/dto"
	autherror "github.com/AnthoniusHendriyanto/blogger-auth/internal/errors"
	"github.com/samber/lo"
)

type DeviceService struct {
	sessions domain.DeviceSessionStore
}

func NewDeviceService(sessions domain.DeviceSessionStore) *DeviceService {
	return &DeviceService{sessions: sessions}
}

func (s *DeviceService) ListDeviceSessions(ctx context.Context, userID string) ([]dto.DeviceSessionOutput, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return lo.Map(sessions, func(ds domain.DeviceSession, _ int) dto.DeviceSessionOutput {
		return dto.DeviceSessionOutput{
			IP:             ds.IPAddress,
			Title:          ds.DeviceName,
			LastActiveDate: ds.IssuedAt,
			DeviceID:       ds.DeviceID,
		}
	}), nil
}

// TerminateDevice deletes another session of the caller. Sessions of other
// users are reported as ErrSessionNotOwned and left untouched.
func (s *DeviceService) TerminateDevice(ctx context.Context, principal domain.Principal, deviceID string) error {
	session, err := s.sessions.FindByDeviceID(ctx, deviceID)
	if err != nil {
		return err
	}
	if session == nil {
		return autherror.ErrSessionNotFound
	}
	if session.UserID != principal.UserID {
		return autherror.ErrSessionNotOwned
	}

	ok, err := s.sessions.DeleteByID(ctx, deviceID)
	if err != nil {
		return err
	}
	if !ok {
		return autherror.ErrSessionNotFound
	}
	return nil
}

func (s *DeviceService) TerminateOtherDevices(ctx context.Context, principal domain.Principal) error {
	_, err := s.sessions.DeleteAllExcept(ctx, principal.UserID, principal.DeviceID)
	return err
}
