// Code generated by MockGen. DO NOT EDIT.
// Source: handler.go
//
// Generated by this command:
//
//	mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service
//

// Package mocks is a generated GoMock package.
package mocks

import (
	models "cartaporte/internal/artifact/models"
	context "context"
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"
)

// MockService is a mock of Service interface.
type MockService struct {
	ctrl     *gomock.Controller
	recorder *MockServiceMockRecorder
	isgomock struct{}
}

// MockServiceMockRecorder is the mock recorder for MockService.
type MockServiceMockRecorder struct {
	mock *MockService
}

// NewMockService creates a new mock instance.
func NewMockService(ctrl *gomock.Controller) *MockService {
	mock := &MockService{ctrl: ctrl}
	mock.recorder = &MockServiceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockService) EXPECT() *MockServiceMockRecorder {
	return m.recorder
}

// Archive mocks base method.
func (m *MockService) Archive(ctx context.Context, documentID string, t models.Type, version models.Version) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Archive", ctx, documentID, t, version)
	ret0, _ := ret[0].(error)
	return ret0
}

// Archive indicates an expected call of Archive.
func (mr *MockServiceMockRecorder) Archive(ctx, documentID, t, version any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Archive", reflect.TypeOf((*MockService)(nil).Archive), ctx, documentID, t, version)
}

// Find mocks base method.
func (m *MockService) Find(ctx context.Context, documentID string, t models.Type, version *models.Version) (*models.Artifact, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Find", ctx, documentID, t, version)
	ret0, _ := ret[0].(*models.Artifact)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Find indicates an expected call of Find.
func (mr *MockServiceMockRecorder) Find(ctx, documentID, t, version any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Find", reflect.TypeOf((*MockService)(nil).Find), ctx, documentID, t, version)
}

// GetLatest mocks base method.
func (m *MockService) GetLatest(ctx context.Context, documentID string, t models.Type) (*models.Artifact, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetLatest", ctx, documentID, t)
	ret0, _ := ret[0].(*models.Artifact)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetLatest indicates an expected call of GetLatest.
func (mr *MockServiceMockRecorder) GetLatest(ctx, documentID, t any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetLatest", reflect.TypeOf((*MockService)(nil).GetLatest), ctx, documentID, t)
}

// ListHistory mocks base method.
func (m *MockService) ListHistory(ctx context.Context, documentID string, t models.Type) ([]*models.Artifact, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListHistory", ctx, documentID, t)
	ret0, _ := ret[0].([]*models.Artifact)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListHistory indicates an expected call of ListHistory.
func (mr *MockServiceMockRecorder) ListHistory(ctx, documentID, t any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListHistory", reflect.TypeOf((*MockService)(nil).ListHistory), ctx, documentID, t)
}

// ListVersions mocks base method.
func (m *MockService) ListVersions(ctx context.Context, documentID string, t models.Type) ([]*models.Artifact, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListVersions", ctx, documentID, t)
	ret0, _ := ret[0].([]*models.Artifact)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListVersions indicates an expected call of ListVersions.
func (mr *MockServiceMockRecorder) ListVersions(ctx, documentID, t any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListVersions", reflect.TypeOf((*MockService)(nil).ListVersions), ctx, documentID, t)
}

// Register mocks base method.
func (m *MockService) Register(ctx context.Context, documentID string, t models.Type, content []byte, metadata map[string]string, explicit *models.Version) (*models.Artifact, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Register", ctx, documentID, t, content, metadata, explicit)
	ret0, _ := ret[0].(*models.Artifact)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Register indicates an expected call of Register.
func (mr *MockServiceMockRecorder) Register(ctx, documentID, t, content, metadata, explicit any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Register", reflect.TypeOf((*MockService)(nil).Register), ctx, documentID, t, content, metadata, explicit)
}
