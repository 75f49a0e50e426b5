package importer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/cklxx/knowflow/internal/domain"
	"github.com/cklxx/knowflow/internal/store"
)

// StoreCardPersister persists commit batches through the card store,
// wrapping each batch in a single database transaction so a mid-batch
// failure rolls the whole commit back.
type StoreCardPersister struct {
	db    *sql.DB
	cards store.CardStore

	// tx, when set, routes the batch into the caller's transaction
	// instead of opening one.
	tx *sql.Tx
}

// NewStoreCardPersister creates a persister over the given database and
// card store. It panics if either dependency is nil.
func NewStoreCardPersister(db *sql.DB, cards store.CardStore) *StoreCardPersister {
	if db == nil {
		panic("db cannot be nil")
	}
	if cards == nil {
		panic("cards cannot be nil")
	}
	return &StoreCardPersister{db: db, cards: cards}
}

// Ensure StoreCardPersister implements TxCardPersister interface
var _ TxCardPersister = (*StoreCardPersister)(nil)

// WithTx implements TxCardPersister.WithTx
func (p *StoreCardPersister) WithTx(tx *sql.Tx) CardPersister {
	return &StoreCardPersister{db: p.db, cards: p.cards, tx: tx}
}

// SaveCards implements CardPersister.SaveCards
func (p *StoreCardPersister) SaveCards(
	ctx context.Context,
	directionID uuid.UUID,
	cards []*domain.Card,
) error {
	for _, card := range cards {
		if card.DirectionID != directionID {
			return fmt.Errorf("%w: card %s targets direction %s, not %s",
				store.ErrInvalidEntity, card.ID, card.DirectionID, directionID)
		}
	}

	if p.tx != nil {
		return p.cards.WithTx(p.tx).CreateMultiple(ctx, cards)
	}

	return store.RunInTransaction(ctx, p.db, func(ctx context.Context, tx *sql.Tx) error {
		return p.cards.WithTx(tx).CreateMultiple(ctx, cards)
	})
}
