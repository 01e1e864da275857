package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"shoecare/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFlags struct {
	mockLimiter
}

func (m *mockFlags) GetAdminSimulation(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockFlags) SetAdminSimulation(ctx context.Context, userID int64, enabled bool) error {
	return m.Called(ctx, userID, enabled).Error(0)
}

func TestDevModeService(t *testing.T) {
	ctx := context.Background()

	t.Run("Toggle", func(t *testing.T) {
		svc := NewDevModeService(repository.NewMemoryFlagRepository(time.Hour), true, nil)
		assert.False(t, svc.AdminSimulation(ctx, 1))

		require.NoError(t, svc.SetAdminSimulation(ctx, 1, true))
		assert.True(t, svc.AdminSimulation(ctx, 1))
		assert.False(t, svc.AdminSimulation(ctx, 2))

		require.NoError(t, svc.SetAdminSimulation(ctx, 1, false))
		assert.False(t, svc.AdminSimulation(ctx, 1))
	})

	t.Run("Production", func(t *testing.T) {
		flags := repository.NewMemoryFlagRepository(time.Hour)
		require.NoError(t, flags.SetAdminSimulation(ctx, 1, true))

		svc := NewDevModeService(flags, false, nil)
		assert.False(t, svc.Allowed())
		assert.False(t, svc.AdminSimulation(ctx, 1))
		assert.ErrorIs(t, svc.SetAdminSimulation(ctx, 1, true), ErrSimulationDisabled)
	})

	t.Run("ReadFailureIsOff", func(t *testing.T) {
		flags := new(mockFlags)
		flags.On("GetAdminSimulation", mock.Anything, int64(1)).Return(false, errors.New("down")).Once()

		svc := NewDevModeService(flags, true, nil)
		assert.False(t, svc.AdminSimulation(ctx, 1))
	})
}
