package importer

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cklxx/knowflow/internal/domain"
	"github.com/cklxx/knowflow/internal/events"
	"github.com/cklxx/knowflow/internal/ingest"
	"github.com/cklxx/knowflow/internal/synthesis"
)

// SessionState names one state of the import session machine.
type SessionState string

// Session states. Committed is terminal; a failed commit returns to
// previewed with selections intact.
const (
	StateCollecting SessionState = "collecting"
	StatePreviewed  SessionState = "previewed"
	StateCommitting SessionState = "committing"
	StateCommitted  SessionState = "committed"
)

// CardPersister persists one commit's cards. The batch is all-or-nothing:
// on error no card from the batch may remain behind.
type CardPersister interface {
	SaveCards(ctx context.Context, directionID uuid.UUID, cards []*domain.Card) error
}

// TxCardPersister is a CardPersister that can write through a
// transaction owned by the caller, for flows that persist a commit
// alongside other writes.
type TxCardPersister interface {
	CardPersister

	// WithTx returns a persister scoped to the given transaction. The
	// caller owns the transaction lifecycle.
	WithTx(tx *sql.Tx) CardPersister
}

// Session owns one import batch: it generates drafts from materials,
// tracks per-draft selection, and commits the selected drafts as cards.
// All operations are safe for concurrent use; state transitions are
// serialized, and a call racing an in-flight commit fails fast with
// ErrSessionBusy instead of queuing.
type Session struct {
	mu     sync.Mutex
	state  SessionState
	drafts []domain.ImportDraft

	ingester    ingest.Ingester
	synthesizer synthesis.Synthesizer
	persister   CardPersister
	emitter     events.EventEmitter
	logger      *slog.Logger
}

// NewSession creates a session in the collecting state.
// It returns an error if any of the required dependencies are nil.
func NewSession(
	ingester ingest.Ingester,
	synthesizer synthesis.Synthesizer,
	persister CardPersister,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (*Session, error) {
	if ingester == nil {
		return nil, &SessionError{Operation: "create_session", Message: "ingester cannot be nil"}
	}
	if synthesizer == nil {
		return nil, &SessionError{Operation: "create_session", Message: "synthesizer cannot be nil"}
	}
	if persister == nil {
		return nil, &SessionError{Operation: "create_session", Message: "persister cannot be nil"}
	}
	if emitter == nil {
		return nil, &SessionError{Operation: "create_session", Message: "emitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		state:       StateCollecting,
		ingester:    ingester,
		synthesizer: synthesizer,
		persister:   persister,
		emitter:     emitter,
		logger:      logger.With(slog.String("component", "import_session")),
	}, nil
}

// State returns the session's current state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Drafts returns a copy of the current draft list.
func (s *Session) Drafts() []domain.ImportDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ImportDraft(nil), s.drafts...)
}

// Generate runs ingestion and synthesis over the materials and moves the
// session to previewed. Clusters never merge across distinct materials.
// Calling again with the same materials replaces the drafts and stays in
// previewed, reproducing them exactly. Empty material is a valid input:
// the session still transitions to previewed, with an empty draft list.
func (s *Session) Generate(
	ctx context.Context,
	materials []domain.Material,
	direction synthesis.DirectionContext,
) ([]domain.ImportDraft, error) {
	log := s.logger

	s.mu.Lock()
	switch s.state {
	case StateCommitting:
		s.mu.Unlock()
		return nil, ErrSessionBusy
	case StateCommitted:
		s.mu.Unlock()
		return nil, ErrInvalidSessionState
	}
	s.mu.Unlock()

	// Synthesis is pure, so drafts are built outside the lock and the
	// session mutates only after every material ingested cleanly.
	var drafts []domain.ImportDraft
	for _, material := range materials {
		fragments, err := s.ingester.Ingest(material)
		if err != nil {
			log.Warn("rejecting material",
				slog.String("kind", string(material.Kind)),
				slog.String("error", err.Error()))
			return nil, NewSessionError("generate", "material failed ingestion", err)
		}
		drafts = append(drafts, s.synthesizer.Synthesize(material, fragments, direction)...)
	}
	for i := range drafts {
		drafts[i].ID = fmt.Sprintf("draft-%02d", i+1)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateCommitting:
		return nil, ErrSessionBusy
	case StateCommitted:
		return nil, ErrInvalidSessionState
	}
	s.drafts = drafts
	s.state = StatePreviewed

	log.Info("drafts generated",
		slog.Int("material_count", len(materials)),
		slog.Int("draft_count", len(drafts)))
	return append([]domain.ImportDraft(nil), drafts...), nil
}

// ToggleSelect flips one draft's selection. Unknown draft ids are
// reported with a warning and otherwise ignored.
func (s *Session) ToggleSelect(draftID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateCommitting:
		return ErrSessionBusy
	case StatePreviewed:
	default:
		return ErrInvalidSessionState
	}

	for i := range s.drafts {
		if s.drafts[i].ID == draftID {
			s.drafts[i].Selected = !s.drafts[i].Selected
			return nil
		}
	}

	s.logger.Warn("toggle on unknown draft id", slog.String("draft_id", draftID))
	return nil
}

// Commit persists the selected drafts as cards in the given direction.
// The batch is all-or-nothing: on persistence failure no card is left
// behind and the session returns to previewed with selections intact.
// On success the session reaches its terminal committed state and a
// cards_committed event is emitted.
func (s *Session) Commit(ctx context.Context, directionID uuid.UUID) ([]*domain.Card, error) {
	return s.commitWith(ctx, s.persister, directionID)
}

// CommitIn is Commit joined to the caller's transaction: the cards are
// written through tx and become durable only when the caller commits
// it. If the caller rolls back, the session's committed state is stale
// and the session must be discarded. The session's persister must be a
// TxCardPersister.
func (s *Session) CommitIn(ctx context.Context, tx *sql.Tx, directionID uuid.UUID) ([]*domain.Card, error) {
	txPersister, ok := s.persister.(TxCardPersister)
	if !ok {
		return nil, &SessionError{Operation: "commit", Message: "persister cannot join a transaction"}
	}
	return s.commitWith(ctx, txPersister.WithTx(tx), directionID)
}

// commitWith runs the commit state machine against the given persister.
func (s *Session) commitWith(ctx context.Context, persister CardPersister, directionID uuid.UUID) ([]*domain.Card, error) {
	log := s.logger

	s.mu.Lock()
	switch s.state {
	case StateCommitting:
		s.mu.Unlock()
		return nil, ErrSessionBusy
	case StatePreviewed:
	default:
		s.mu.Unlock()
		return nil, ErrInvalidSessionState
	}

	cards, err := s.buildSelectedCards(directionID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.state = StateCommitting
	s.mu.Unlock()

	err = persister.SaveCards(ctx, directionID, cards)

	s.mu.Lock()
	if err != nil {
		s.state = StatePreviewed
		s.mu.Unlock()
		log.Error("commit failed, session back to previewed",
			slog.String("direction_id", directionID.String()),
			slog.String("error", err.Error()))
		return nil, NewSessionError("commit", "failed to persist cards", err)
	}
	s.state = StateCommitted
	s.mu.Unlock()

	log.Info("drafts committed",
		slog.String("direction_id", directionID.String()),
		slog.Int("card_count", len(cards)))

	// Emitted outside the lock so handlers may inspect the session.
	s.emitCommitted(ctx, directionID, cards)

	return cards, nil
}

// buildSelectedCards freezes the selected drafts into cards, copying
// evidence from each draft's source. Caller holds the lock.
func (s *Session) buildSelectedCards(directionID uuid.UUID) ([]*domain.Card, error) {
	var cards []*domain.Card
	for _, draft := range s.drafts {
		if !draft.Selected {
			continue
		}

		evidence := make([]domain.Evidence, 0, len(draft.Source.Excerpts))
		for _, excerpt := range draft.Source.Excerpts {
			evidence = append(evidence, domain.Evidence{
				Excerpt: excerpt,
				URL:     draft.Source.URL,
			})
		}

		card, err := domain.NewCard(
			directionID,
			draft.Title,
			draft.Body,
			draft.Tags,
			draft.ConfidenceScore,
			evidence,
		)
		if err != nil {
			return nil, NewSessionError("commit", "draft produced an invalid card", err)
		}
		cards = append(cards, card)
	}

	if len(cards) == 0 {
		return nil, ErrNothingSelected
	}
	return cards, nil
}

// emitCommitted publishes cards_committed. Emission failures are logged
// but never unwind an already-persisted commit.
func (s *Session) emitCommitted(ctx context.Context, directionID uuid.UUID, cards []*domain.Card) {
	cardIDs := make([]uuid.UUID, 0, len(cards))
	for _, card := range cards {
		cardIDs = append(cardIDs, card.ID)
	}

	event, err := events.NewEvent(events.EventTypeCardsCommitted, events.CardsCommittedPayload{
		DirectionID: directionID,
		CardIDs:     cardIDs,
		CommittedAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to build cards_committed event", slog.String("error", err.Error()))
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit cards_committed event", slog.String("error", err.Error()))
	}
}
