package web

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
	"github.com/lcalzada-xor/pktsender/internal/core/ports"
)

// MockFleetService is a mock of ports.FleetService
type MockFleetService struct {
	mock.Mock
}

var _ ports.FleetService = (*MockFleetService)(nil)

func (m *MockFleetService) Senders(ctx context.Context) []domain.SenderStatus {
	args := m.Called(ctx)
	return args.Get(0).([]domain.SenderStatus)
}

func (m *MockFleetService) Send(ctx context.Context, iface string, req domain.SendRequest) (domain.SendResult, error) {
	args := m.Called(ctx, iface, req)
	return args.Get(0).(domain.SendResult), args.Error(1)
}

func (m *MockFleetService) Start(ctx context.Context, iface string, req domain.StartRequest) (domain.SenderStatus, error) {
	args := m.Called(ctx, iface, req)
	return args.Get(0).(domain.SenderStatus), args.Error(1)
}

func (m *MockFleetService) Stop(ctx context.Context, iface string, ignoreStatus bool) (domain.SenderStatus, error) {
	args := m.Called(ctx, iface, ignoreStatus)
	return args.Get(0).(domain.SenderStatus), args.Error(1)
}

func (m *MockFleetService) Activity(ctx context.Context, iface string, limit int) ([]domain.ActivityRecord, error) {
	args := m.Called(ctx, iface, limit)
	return args.Get(0).([]domain.ActivityRecord), args.Error(1)
}
