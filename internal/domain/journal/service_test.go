package journal_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/expressup/internal/domain/journal"
	"github.com/rpggio/expressup/internal/repository/mocks"
)

func TestJournalService_RecordAndRecent(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.JournalRepository{}
	entry := &journal.Entry{RunID: "run1", OrderID: "O1", Outcome: journal.OutcomeUploaded}

	repo.On("Log", ctx, entry).Return(nil)
	repo.On("List", ctx, journal.ListOptions{OrderID: "O1", Limit: 50}).Return([]journal.Entry{*entry}, nil)

	svc := journal.NewService(repo, nil)
	require.NoError(t, svc.Record(ctx, entry))
	require.False(t, entry.CreatedAt.IsZero())

	entries, err := svc.Recent(ctx, journal.ListOptions{OrderID: "O1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	repo.AssertExpectations(t)
}

func TestJournalService_RejectsInvalid(t *testing.T) {
	svc := journal.NewService(&mocks.JournalRepository{}, nil)
	ctx := context.Background()

	require.ErrorIs(t, svc.Record(ctx, nil), journal.ErrInvalidInput)
	require.ErrorIs(t, svc.Record(ctx, &journal.Entry{RunID: "r", Outcome: journal.OutcomeFailed}), journal.ErrInvalidInput)
	require.ErrorIs(t, svc.Record(ctx, &journal.Entry{RunID: "r", OrderID: "O1", Outcome: "bogus"}), journal.ErrInvalidInput)

	bogus := journal.Outcome("bogus")
	_, err := svc.Recent(ctx, journal.ListOptions{Outcome: &bogus})
	require.ErrorIs(t, err, journal.ErrInvalidInput)
}

func TestJournalService_WrapsRepositoryErrors(t *testing.T) {
	repo := &mocks.JournalRepository{}
	repo.On("Log", mock.Anything, mock.Anything).Return(errors.New("locked"))

	svc := journal.NewService(repo, nil)
	err := svc.Record(context.Background(), &journal.Entry{RunID: "r", OrderID: "O1", Outcome: journal.OutcomeSelected})
	require.ErrorContains(t, err, "logging journal entry")
}
