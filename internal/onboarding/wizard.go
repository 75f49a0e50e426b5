package onboarding

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cklxx/knowflow/internal/domain"
	"github.com/cklxx/knowflow/internal/importer"
	"github.com/cklxx/knowflow/internal/scheduler"
	"github.com/cklxx/knowflow/internal/skill"
	"github.com/cklxx/knowflow/internal/store"
	"github.com/cklxx/knowflow/internal/synthesis"
)

// Step names one stage of the wizard.
type Step string

// The wizard's steps, in their fixed order.
const (
	StepDirection Step = "direction"
	StepStage     Step = "stage"
	StepSkills    Step = "skills"
	StepMaterials Step = "materials"
	StepPreview   Step = "preview"
	StepFinish    Step = "finish"
)

// stepOrder fixes the wizard's progression. Advance walks this list one
// entry at a time; nothing else moves the cursor.
var stepOrder = []Step{
	StepDirection,
	StepStage,
	StepSkills,
	StepMaterials,
	StepPreview,
	StepFinish,
}

// Steps returns the wizard's step sequence in order.
func Steps() []Step {
	return append([]Step(nil), stepOrder...)
}

// SkillAssessment is one self-assessed skill collected during the
// skills step. The level is applied through the skill tracker at
// finish, stamping the assessment time as the last review.
type SkillAssessment struct {
	Label   string
	Summary string
	Level   domain.SkillLevel
}

// Preview is what the preview step shows: the draft cards synthesized
// from the pasted materials and the read-only today plan sized by the
// vault summary.
type Preview struct {
	Drafts []domain.ImportDraft
	Plan   *scheduler.TodayPlan
}

// Result is everything the finished wizard created.
type Result struct {
	Direction   *domain.Direction
	SkillPoints []*domain.SkillPoint
	Cards       []*domain.Card
	Plan        *scheduler.TodayPlan
}

// Wizard collects onboarding input step by step and persists it all at
// finish. Each input method is only valid at its own step; Advance
// gates each transition on the step's required input.
type Wizard struct {
	mu        sync.Mutex
	stepIndex int
	finished  bool

	direction   *domain.Direction
	assessments []SkillAssessment
	materials   []domain.Material
	previewed   bool

	db         *sql.DB
	directions store.DirectionStore
	points     store.SkillPointStore
	tracker    skill.Tracker
	session    *importer.Session
	scheduler  scheduler.Scheduler
	logger     *slog.Logger
}

// NewWizard creates a wizard positioned at the direction step.
// It returns an error if any of the required dependencies are nil.
func NewWizard(
	db *sql.DB,
	directions store.DirectionStore,
	points store.SkillPointStore,
	tracker skill.Tracker,
	session *importer.Session,
	sched scheduler.Scheduler,
	logger *slog.Logger,
) (*Wizard, error) {
	if db == nil {
		return nil, &WizardError{Operation: "create_wizard", Message: "db cannot be nil"}
	}
	if directions == nil {
		return nil, &WizardError{Operation: "create_wizard", Message: "directions store cannot be nil"}
	}
	if points == nil {
		return nil, &WizardError{Operation: "create_wizard", Message: "points store cannot be nil"}
	}
	if tracker == nil {
		return nil, &WizardError{Operation: "create_wizard", Message: "tracker cannot be nil"}
	}
	if session == nil {
		return nil, &WizardError{Operation: "create_wizard", Message: "import session cannot be nil"}
	}
	if sched == nil {
		return nil, &WizardError{Operation: "create_wizard", Message: "scheduler cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Wizard{
		db:         db,
		directions: directions,
		points:     points,
		tracker:    tracker,
		session:    session,
		scheduler:  sched,
		logger:     logger.With(slog.String("component", "onboarding_wizard")),
	}, nil
}

// Step returns the wizard's current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return stepOrder[w.stepIndex]
}

// Finished reports whether the wizard has completed its final step.
func (w *Wizard) Finished() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.finished
}

// SetDirection records the direction's name and language. Valid only at
// the direction step; the input is validated immediately so the user
// learns about a bad language tag before moving on.
func (w *Wizard) SetDirection(name, languageTag string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requireStep(StepDirection); err != nil {
		return err
	}

	direction, err := domain.NewDirection(name, languageTag)
	if err != nil {
		return NewWizardError("set_direction", "invalid direction", err)
	}

	w.direction = direction
	return nil
}

// SetStage records the starting stage and quarterly goal. The stage
// seeds the direction until the first self-assessment re-derives it.
func (w *Wizard) SetStage(s domain.DirectionStage, quarterlyGoal string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requireStep(StepStage); err != nil {
		return err
	}

	if err := w.direction.SetStage(s); err != nil {
		return NewWizardError("set_stage", "invalid stage", err)
	}
	w.direction.QuarterlyGoal = quarterlyGoal
	return nil
}

// AddSkill records one skill self-assessment. May be called repeatedly;
// the skills step requires at least one before the wizard advances.
func (w *Wizard) AddSkill(assessment SkillAssessment) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requireStep(StepSkills); err != nil {
		return err
	}

	if assessment.Label == "" {
		return NewWizardError("add_skill", "invalid skill", domain.ErrSkillPointLabelEmpty)
	}
	assessment.Level = domain.ClampSkillLevel(int(assessment.Level))

	w.assessments = append(w.assessments, assessment)
	return nil
}

// AddMaterial records one pasted material. The materials step accepts
// zero materials; an empty paste still produces a valid, empty preview.
func (w *Wizard) AddMaterial(material domain.Material) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requireStep(StepMaterials); err != nil {
		return err
	}

	w.materials = append(w.materials, material)
	return nil
}

// BuildPreview synthesizes draft cards from the collected materials and
// computes the read-only today plan. Valid only at the preview step;
// calling it again regenerates the same drafts.
func (w *Wizard) BuildPreview(ctx context.Context, now time.Time) (*Preview, error) {
	w.mu.Lock()
	if err := w.requireStep(StepPreview); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	materials := append([]domain.Material(nil), w.materials...)
	directionCtx := w.directionContext()
	w.mu.Unlock()

	drafts, err := w.session.Generate(ctx, materials, directionCtx)
	if err != nil {
		return nil, NewWizardError("build_preview", "draft generation failed", err)
	}

	plan, err := w.scheduler.TodayPlan(ctx, now)
	if err != nil {
		return nil, NewWizardError("build_preview", "today plan failed", err)
	}

	w.mu.Lock()
	w.previewed = true
	w.mu.Unlock()

	return &Preview{Drafts: drafts, Plan: plan}, nil
}

// ToggleDraft flips one previewed draft's selection.
func (w *Wizard) ToggleDraft(draftID string) error {
	w.mu.Lock()
	if err := w.requireStep(StepPreview); err != nil {
		w.mu.Unlock()
		return err
	}
	w.mu.Unlock()

	if err := w.session.ToggleSelect(draftID); err != nil {
		return NewWizardError("toggle_draft", "selection failed", err)
	}
	return nil
}

// Advance moves the wizard to the next step once the current step's
// gate passes. The final step advances through Finish, not Advance.
func (w *Wizard) Advance() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.finished {
		return ErrWizardFinished
	}

	current := stepOrder[w.stepIndex]
	if current == StepFinish {
		return ErrStepOrder
	}
	if err := w.gate(current); err != nil {
		return err
	}

	w.stepIndex++
	w.logger.Info("onboarding step advanced",
		slog.String("from", string(current)),
		slog.String("to", string(stepOrder[w.stepIndex])))
	return nil
}

// Finish runs the whole bootstrap in one transaction: the direction,
// its skill points, each self-assessment through the skill tracker, and
// the selected drafts through the import session land together or not
// at all. A failed Finish leaves nothing behind and may be retried. The
// today plan is computed after the commit and is nil when the scheduler
// fails; the bootstrap itself is durable by then.
func (w *Wizard) Finish(ctx context.Context, at time.Time) (*Result, error) {
	w.mu.Lock()
	if err := w.requireStep(StepFinish); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	direction := w.direction
	assessments := append([]SkillAssessment(nil), w.assessments...)
	w.mu.Unlock()

	points := make([]*domain.SkillPoint, 0, len(assessments))
	for _, assessment := range assessments {
		point, err := domain.NewSkillPoint(direction.ID, assessment.Label)
		if err != nil {
			return nil, NewWizardError("finish", "invalid skill point", err)
		}
		point.Summary = assessment.Summary
		points = append(points, point)
	}

	var (
		assessed []*domain.SkillPoint
		cards    []*domain.Card
	)
	err := store.RunInTransaction(ctx, w.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := w.directions.WithTx(tx).Create(ctx, direction); err != nil {
			return err
		}
		if err := w.points.WithTx(tx).CreateMultiple(ctx, points); err != nil {
			return err
		}

		// Self-assessment goes through the tracker so each level change
		// stamps lastReviewedAt and re-derives the direction stage.
		txTracker := w.tracker.WithTx(tx)
		assessed = assessed[:0]
		for i, point := range points {
			updated, err := txTracker.SelfAssess(ctx, point.ID, assessments[i].Level, at)
			if err != nil {
				return err
			}
			assessed = append(assessed, updated)
		}

		var err error
		cards, err = w.commitDrafts(ctx, tx, direction.ID)
		return err
	})
	if err != nil {
		return nil, NewWizardError("finish", "onboarding bootstrap failed", err)
	}

	w.mu.Lock()
	w.finished = true
	w.mu.Unlock()

	plan, err := w.scheduler.TodayPlan(ctx, at)
	if err != nil {
		// The bootstrap is already durable; a missing plan is reported
		// in the log and the result carries a nil plan.
		w.logger.Warn("today plan unavailable after finish", slog.String("error", err.Error()))
		plan = nil
	}

	w.logger.Info("onboarding finished",
		slog.String("direction_id", direction.ID.String()),
		slog.Int("skill_count", len(assessed)),
		slog.Int("card_count", len(cards)))

	return &Result{
		Direction:   direction,
		SkillPoints: assessed,
		Cards:       cards,
		Plan:        plan,
	}, nil
}

// commitDrafts commits the session's selected drafts into the caller's
// transaction. A preview with no drafts, or one where the user
// deselected everything, is a valid finish; the session is left alone
// in that case.
func (w *Wizard) commitDrafts(ctx context.Context, tx *sql.Tx, directionID uuid.UUID) ([]*domain.Card, error) {
	selected := 0
	for _, draft := range w.session.Drafts() {
		if draft.Selected {
			selected++
		}
	}
	if selected == 0 {
		return nil, nil
	}

	return w.session.CommitIn(ctx, tx, directionID)
}

// directionContext builds the synthesis context from the collected
// direction and skill labels. Callers must hold w.mu.
func (w *Wizard) directionContext() synthesis.DirectionContext {
	vocabulary := make([]string, 0, len(w.assessments))
	for _, assessment := range w.assessments {
		vocabulary = append(vocabulary, assessment.Label)
	}
	return synthesis.DirectionContext{
		Name:       w.direction.Name,
		Language:   w.direction.Language,
		Vocabulary: vocabulary,
	}
}

// requireStep checks that the wizard is at the given step. Callers must
// hold w.mu.
func (w *Wizard) requireStep(step Step) error {
	if w.finished {
		return ErrWizardFinished
	}
	if stepOrder[w.stepIndex] != step {
		return ErrStepOrder
	}
	return nil
}

// gate validates one step's required input. Callers must hold w.mu.
func (w *Wizard) gate(step Step) error {
	switch step {
	case StepDirection:
		if w.direction == nil {
			return ErrStepIncomplete
		}
	case StepStage:
		// SetStage validated on entry; the seeded explore stage is an
		// acceptable choice, so nothing further to check.
	case StepSkills:
		if len(w.assessments) == 0 {
			return ErrStepIncomplete
		}
	case StepMaterials:
		// Zero materials is allowed; pasting is optional.
	case StepPreview:
		if !w.previewed {
			return ErrStepIncomplete
		}
	}
	return nil
}
