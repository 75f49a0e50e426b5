package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cklxx/knowflow/internal/domain"
	"github.com/cklxx/knowflow/internal/platform/postgres"
)

func newCommitCard(t *testing.T, directionID uuid.UUID) *domain.Card {
	t.Helper()

	card, err := domain.NewCard(
		directionID,
		"Embedding Drift RCA",
		"需要监测 embedding 漂移。",
		[]string{"retrieval", "drift"},
		0.42,
		[]domain.Evidence{{Excerpt: "需要监测 embedding 漂移。", URL: "https://example.com/drift"}},
	)
	require.NoError(t, err)
	return card
}

func TestStoreCardPersisterCommitsBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	directionID := uuid.New()
	card := newCommitCard(t, directionID)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO cards").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	persister := NewStoreCardPersister(db, postgres.NewPostgresCardStore(db, logger))
	err = persister.SaveCards(context.Background(), directionID, []*domain.Card{card})
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreCardPersisterRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	directionID := uuid.New()
	card := newCommitCard(t, directionID)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO cards").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	persister := NewStoreCardPersister(db, postgres.NewPostgresCardStore(db, logger))
	err = persister.SaveCards(context.Background(), directionID, []*domain.Card{card})
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreCardPersisterJoinsCallerTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	directionID := uuid.New()
	card := newCommitCard(t, directionID)

	// One transaction owned by the caller: the persister opens none.
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO cards").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	persister := NewStoreCardPersister(db, postgres.NewPostgresCardStore(db, logger))
	err = persister.WithTx(tx).SaveCards(context.Background(), directionID, []*domain.Card{card})
	require.NoError(t, err)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreCardPersisterRejectsForeignCards(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	card := newCommitCard(t, uuid.New())

	persister := NewStoreCardPersister(db, postgres.NewPostgresCardStore(db, logger))
	err = persister.SaveCards(context.Background(), uuid.New(), []*domain.Card{card})
	assert.Error(t, err)
}
