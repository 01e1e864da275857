package service

import (
	"context"
	"errors"

	"shoecare/internal/domain"

	"github.com/rs/zerolog"
)

// ErrSimulationDisabled is returned when the admin override is used in production.
var ErrSimulationDisabled = errors.New("dev mode only")

// DevModeService reads and toggles the per-user admin simulation flag.
type DevModeService struct {
	flags   domain.FlagStore
	allowed bool
	logger  *zerolog.Logger
}

func NewDevModeService(flags domain.FlagStore, allowed bool, logger *zerolog.Logger) *DevModeService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &DevModeService{
		flags:   flags,
		allowed: allowed,
		logger:  logger,
	}
}

func (s *DevModeService) Allowed() bool {
	return s.allowed
}

// AdminSimulation reports whether userID has the override switched on. It is
// always false when simulation is not allowed, and read failures count as off.
func (s *DevModeService) AdminSimulation(ctx context.Context, userID int64) bool {
	if !s.allowed || s.flags == nil {
		return false
	}
	enabled, err := s.flags.GetAdminSimulation(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to read admin simulation flag")
		return false
	}
	return enabled
}

// SetAdminSimulation switches the override for userID.
func (s *DevModeService) SetAdminSimulation(ctx context.Context, userID int64, enabled bool) error {
	if !s.allowed || s.flags == nil {
		return ErrSimulationDisabled
	}
	if err := s.flags.SetAdminSimulation(ctx, userID, enabled); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", userID).Bool("enabled", enabled).Msg("admin simulation toggled")
	return nil
}
