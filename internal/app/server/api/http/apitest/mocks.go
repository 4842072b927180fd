// Package apitest holds testify mocks of the domain services for handler tests.
package apitest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"vaultkeeper/internal/domain/record"
	"vaultkeeper/internal/domain/reset"
	"vaultkeeper/internal/domain/session"
	"vaultkeeper/internal/domain/transfer"
	"vaultkeeper/internal/domain/user"
)

var (
	_ session.Servicer  = (*Sessions)(nil)
	_ user.Servicer     = (*Users)(nil)
	_ reset.Servicer    = (*Resets)(nil)
	_ record.Servicer   = (*Records)(nil)
	_ transfer.Servicer = (*Transfer)(nil)
)

type Sessions struct {
	mock.Mock
}

func (m *Sessions) Create(ctx context.Context, userID int) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *Sessions) Validate(ctx context.Context, token string) (int, error) {
	args := m.Called(ctx, token)
	return args.Int(0), args.Error(1)
}

func (m *Sessions) Delete(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *Sessions) DeleteAllForUser(ctx context.Context, userID int) error {
	return m.Called(ctx, userID).Error(0)
}

type Users struct {
	mock.Mock
}

func (m *Users) Register(ctx context.Context, username, password string) (int, error) {
	args := m.Called(ctx, username, password)
	return args.Int(0), args.Error(1)
}

func (m *Users) Authenticate(ctx context.Context, username, password string) (user.User, error) {
	args := m.Called(ctx, username, password)
	return args.Get(0).(user.User), args.Error(1)
}

func (m *Users) SetupAdmin(ctx context.Context, username, password string) (int, error) {
	args := m.Called(ctx, username, password)
	return args.Int(0), args.Error(1)
}

func (m *Users) Get(ctx context.Context, id int) (user.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(user.User), args.Error(1)
}

type Resets struct {
	mock.Mock
}

func (m *Resets) Request(ctx context.Context, username string) error {
	return m.Called(ctx, username).Error(0)
}

func (m *Resets) Redeem(ctx context.Context, token, newPassword string) error {
	return m.Called(ctx, token, newPassword).Error(0)
}

type Records struct {
	mock.Mock
}

func (m *Records) Create(ctx context.Context, ownerID int, rec record.WireRecord) (record.WireRecord, error) {
	args := m.Called(ctx, ownerID, rec)
	return args.Get(0).(record.WireRecord), args.Error(1)
}

func (m *Records) Get(ctx context.Context, ownerID, recordID int) (record.WireRecord, error) {
	args := m.Called(ctx, ownerID, recordID)
	return args.Get(0).(record.WireRecord), args.Error(1)
}

func (m *Records) List(ctx context.Context, ownerID int) ([]record.WireRecord, error) {
	args := m.Called(ctx, ownerID)
	out, _ := args.Get(0).([]record.WireRecord)
	return out, args.Error(1)
}

func (m *Records) Update(ctx context.Context, ownerID int, rec record.WireRecord) (record.WireRecord, error) {
	args := m.Called(ctx, ownerID, rec)
	return args.Get(0).(record.WireRecord), args.Error(1)
}

func (m *Records) Delete(ctx context.Context, ownerID, recordID int) error {
	return m.Called(ctx, ownerID, recordID).Error(0)
}

type Transfer struct {
	mock.Mock
}

func (m *Transfer) Export(ctx context.Context) (transfer.Document, error) {
	args := m.Called(ctx)
	return args.Get(0).(transfer.Document), args.Error(1)
}

func (m *Transfer) Import(ctx context.Context, doc transfer.Document, truncate bool) (transfer.Stats, error) {
	args := m.Called(ctx, doc, truncate)
	return args.Get(0).(transfer.Stats), args.Error(1)
}
