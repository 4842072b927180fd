package transfer

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"vaultkeeper/internal/apperr"
	"vaultkeeper/internal/domain/record"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Export(ctx context.Context) ([]UserRow, []record.WireRecord, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]UserRow)
	records, _ := args.Get(1).([]record.WireRecord)
	return users, records, args.Error(2)
}

func (m *MockRepository) Import(ctx context.Context, doc Document, truncate bool) error {
	args := m.Called(ctx, doc, truncate)
	return args.Error(0)
}

func blob() *string {
	s := base64.StdEncoding.EncodeToString(make([]byte, 40))
	return &s
}

func sampleDoc() Document {
	return Document{
		Version: DocumentVersion,
		Users: []UserRow{
			{ID: 1, Username: "admin", PasswordHash: "pbkdf2_sha256$1$a$b", IsAdmin: true},
			{ID: 7, Username: "alice", PasswordHash: "pbkdf2_sha256$1$c$d"},
		},
		Records: []record.WireRecord{
			{ID: 3, OwnerID: 7, NameEncrypted: blob()},
		},
	}
}

func TestService_Export(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, slog.Default())
	now := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)
	service.now = func() time.Time { return now }

	doc := sampleDoc()
	repo.On("Export", mock.Anything).Return(doc.Users, doc.Records, nil)

	got, err := service.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DocumentVersion, got.Version)
	assert.Equal(t, now, got.ExportedAt)
	assert.Equal(t, doc.Users, got.Users)
	assert.Equal(t, doc.Records, got.Records)
}

func TestService_Export_Empty(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, slog.Default())
	repo.On("Export", mock.Anything).Return(nil, nil, nil)

	got, err := service.Export(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got.Users)
	assert.NotNil(t, got.Records)
}

func TestService_Export_Error(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, slog.Default())
	repo.On("Export", mock.Anything).Return(nil, nil, errors.New("boom"))

	_, err := service.Export(context.Background())
	assert.Error(t, err)
}

func TestService_Import(t *testing.T) {
	for _, truncate := range []bool{true, false} {
		repo := new(MockRepository)
		service := NewService(repo, slog.Default())
		doc := sampleDoc()
		repo.On("Import", mock.Anything, doc, truncate).Return(nil)

		stats, err := service.Import(context.Background(), doc, truncate)
		require.NoError(t, err)
		assert.Equal(t, Stats{Users: 2, Records: 1}, stats)
		repo.AssertExpectations(t)
	}
}

func TestService_Import_Conflict(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, slog.Default())
	repo.On("Import", mock.Anything, mock.Anything, false).Return(ErrDuplicateRow)

	_, err := service.Import(context.Background(), sampleDoc(), false)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(d *Document)
		truncate bool
		wantErr  error
	}{
		{name: "valid", mutate: func(d *Document) {}, truncate: true},
		{name: "version", mutate: func(d *Document) { d.Version = 99 }, wantErr: ErrUnsupportedVersion},
		{name: "zero user id", mutate: func(d *Document) { d.Users[0].ID = 0 }, wantErr: apperr.ErrValidation},
		{name: "missing hash", mutate: func(d *Document) { d.Users[1].PasswordHash = "" }, wantErr: apperr.ErrValidation},
		{name: "duplicate id", mutate: func(d *Document) { d.Users[1].ID = 1 }, wantErr: apperr.ErrValidation},
		{name: "duplicate username", mutate: func(d *Document) { d.Users[1].Username = "admin" }, wantErr: apperr.ErrValidation},
		{name: "two admins", mutate: func(d *Document) { d.Users[1].IsAdmin = true }, wantErr: apperr.ErrValidation},
		{
			name:     "orphan record with truncate",
			mutate:   func(d *Document) { d.Records[0].OwnerID = 50 },
			truncate: true,
			wantErr:  ErrUnknownOwner,
		},
		{
			name:   "orphan record without truncate",
			mutate: func(d *Document) { d.Records[0].OwnerID = 50 },
		},
		{
			name:    "record without name",
			mutate:  func(d *Document) { d.Records[0].NameEncrypted = nil },
			wantErr: record.ErrNameRequired,
		},
		{
			name: "duplicate record id",
			mutate: func(d *Document) {
				d.Records = append(d.Records, d.Records[0])
			},
			wantErr: apperr.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sampleDoc()
			tt.mutate(&doc)

			err := Check(doc, tt.truncate)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_Import_InvalidSkipsRepository(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, slog.Default())
	doc := sampleDoc()
	doc.Version = 0

	_, err := service.Import(context.Background(), doc, true)
	assert.Equal(t, "validation", apperr.KindOf(err))
	repo.AssertNotCalled(t, "Import", mock.Anything, mock.Anything, mock.Anything)
}
