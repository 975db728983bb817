package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/rpggio/expressup/internal/domain/identity"
	"github.com/rpggio/expressup/internal/domain/journal"
	"github.com/rpggio/expressup/internal/domain/order"
	"github.com/rpggio/expressup/internal/express"
)

// JournalRepository is a mock for journal.Repository.
type JournalRepository struct {
	mock.Mock
}

func (m *JournalRepository) Log(ctx context.Context, entry *journal.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *JournalRepository) List(ctx context.Context, opts journal.ListOptions) ([]journal.Entry, error) {
	args := m.Called(ctx, opts)
	if entries, ok := args.Get(0).([]journal.Entry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

// IdentityRepository is a mock for identity.Repository.
type IdentityRepository struct {
	mock.Mock
}

func (m *IdentityRepository) Get(ctx context.Context, site string) (*identity.Identity, error) {
	args := m.Called(ctx, site)
	if id, ok := args.Get(0).(*identity.Identity); ok {
		return id, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IdentityRepository) Save(ctx context.Context, id *identity.Identity) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *IdentityRepository) Delete(ctx context.Context, site string) error {
	args := m.Called(ctx, site)
	return args.Error(0)
}

// Journal is a mock for batch.Journal.
type Journal struct {
	mock.Mock
}

func (m *Journal) Record(ctx context.Context, entry *journal.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// Remote is a mock for batch.Remote.
type Remote struct {
	mock.Mock
}

func (m *Remote) GetStatus(ctx context.Context, orderID string) ([]express.StatusRecord, error) {
	args := m.Called(ctx, orderID)
	if records, ok := args.Get(0).([]express.StatusRecord); ok {
		return records, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Remote) Qualify(ctx context.Context, outcome *order.FilterOutcome, orderFile, designFile io.Reader) (string, error) {
	args := m.Called(ctx, outcome, orderFile, designFile)
	return args.String(0), args.Error(1)
}

func (m *Remote) Upload(ctx context.Context, name string, archive io.Reader) error {
	args := m.Called(ctx, name, archive)
	return args.Error(0)
}

// Filterer is a mock for batch.Filterer.
type Filterer struct {
	mock.Mock
}

func (m *Filterer) Filter(ctx context.Context, paths []string) (*order.FilterOutcome, error) {
	args := m.Called(ctx, paths)
	if outcome, ok := args.Get(0).(*order.FilterOutcome); ok {
		return outcome, args.Error(1)
	}
	return nil, args.Error(1)
}

// Selector is a mock for batch.Selector.
type Selector struct {
	mock.Mock
}

func (m *Selector) Select(ctx context.Context, h *order.Handler) (*order.FilterOutcome, error) {
	args := m.Called(ctx, h)
	if outcome, ok := args.Get(0).(*order.FilterOutcome); ok {
		return outcome, args.Error(1)
	}
	return nil, args.Error(1)
}
