package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/khoahotran/portfolio-editor/adapters/event"
	"github.com/khoahotran/portfolio-editor/internal/application/service"
	"github.com/khoahotran/portfolio-editor/internal/domain/draft"
	"github.com/khoahotran/portfolio-editor/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-editor/pkg/apperror"
	"github.com/khoahotran/portfolio-editor/pkg/logger"
)

var tracer = otel.Tracer("github.com/khoahotran/portfolio-editor/internal/application/usecase/editor")

var (
	ErrSaveInProgress = errors.New("a save is already in progress for this draft")
	ErrTooManyDrafts  = errors.New("too many drafts are open")
)

type session struct {
	mu     sync.Mutex
	draft  *draft.Draft
	saving atomic.Bool
	closed bool
}

// EditorUseCase owns the open drafts and the save pipeline.
type EditorUseCase struct {
	repo      portfolio.Repository
	encoder   service.ImageEncoder
	publisher service.EventPublisher
	previews  draft.PreviewStore
	logger    logger.Logger

	storageKey  string
	maxDrafts   int
	saveTimeout time.Duration
	clock       func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

type Options struct {
	StorageKey  string
	MaxDrafts   int
	SaveTimeout time.Duration
	Clock       func() time.Time
}

func NewEditorUseCase(
	repo portfolio.Repository,
	encoder service.ImageEncoder,
	publisher service.EventPublisher,
	previews draft.PreviewStore,
	log logger.Logger,
	opts Options,
) *EditorUseCase {
	if opts.StorageKey == "" {
		opts.StorageKey = portfolio.StorageKey
	}
	if opts.MaxDrafts <= 0 {
		opts.MaxDrafts = 16
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &EditorUseCase{
		repo:        repo,
		encoder:     encoder,
		publisher:   publisher,
		previews:    previews,
		logger:      log,
		storageKey:  opts.StorageKey,
		maxDrafts:   opts.MaxDrafts,
		saveTimeout: opts.SaveTimeout,
		clock:       opts.Clock,
		sessions:    make(map[uuid.UUID]*session),
	}
}

type OpenDraftOutput struct {
	DraftID uuid.UUID
	Draft   DraftState
}

// DraftState is a read-only copy of a draft handed to callers.
type DraftState struct {
	Profile    portfolio.Profile
	Portfolios []portfolio.ExperienceEntry
	Slots      map[portfolio.Slot]draft.SlotStatus
	Validation draft.Validation
}

func stateOf(d *draft.Draft) DraftState {
	slots := make(map[portfolio.Slot]draft.SlotStatus, len(portfolio.Slots()))
	for _, s := range portfolio.Slots() {
		slots[s] = d.Slot(s).Status
	}
	return DraftState{
		Profile:    d.Profile(),
		Portfolios: d.Entries(),
		Slots:      slots,
		Validation: d.Validation(),
	}
}

// OpenDraft reads the persisted record (creating the placeholder on first use) and opens a
// draft over it.
func (uc *EditorUseCase) OpenDraft(ctx context.Context) (*OpenDraftOutput, error) {
	rec, err := uc.repo.LoadOrInit(ctx)
	if err != nil {
		return nil, fmt.Errorf("open draft failed: %w", err)
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	if len(uc.sessions) >= uc.maxDrafts {
		return nil, apperror.NewConflict("draft", "close an open draft before starting another", ErrTooManyDrafts)
	}

	d := draft.New(rec, uc.previews, draft.WithClock(uc.clock))
	id := uuid.New()
	uc.sessions[id] = &session{draft: d}

	uc.logger.Info("Draft opened", zap.String("draft_id", id.String()), zap.Bool("valid", d.Validation().IsValid))
	return &OpenDraftOutput{DraftID: id, Draft: stateOf(d)}, nil
}

func (uc *EditorUseCase) lookup(id uuid.UUID) (*session, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	s, ok := uc.sessions[id]
	if !ok {
		return nil, apperror.NewNotFound("draft", id.String())
	}
	return s, nil
}

// Mutate runs fn against the draft under its lock and returns the resulting state. Errors
// returned by fn are passed through; the draft rejects invalid changes itself.
func (uc *EditorUseCase) Mutate(ctx context.Context, id uuid.UUID, fn func(d *draft.Draft) error) (*DraftState, error) {
	s, err := uc.lookup(id)
	if err != nil {
		return nil, err
	}
	if s.saving.Load() {
		return nil, apperror.NewConflict("draft", "the draft is being saved", ErrSaveInProgress)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, apperror.NewNotFound("draft", id.String())
	}
	if err := fn(s.draft); err != nil {
		return nil, err
	}
	st := stateOf(s.draft)
	return &st, nil
}

// View returns the current state without changing anything.
func (uc *EditorUseCase) View(ctx context.Context, id uuid.UUID) (*DraftState, error) {
	return uc.Mutate(ctx, id, func(*draft.Draft) error { return nil })
}

func (uc *EditorUseCase) Preview(ctx context.Context, id uuid.UUID) (*draft.Preview, error) {
	var p draft.Preview
	_, err := uc.Mutate(ctx, id, func(d *draft.Draft) error {
		p = d.Preview()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CloseDraft discards a draft and releases its previews.
func (uc *EditorUseCase) CloseDraft(ctx context.Context, id uuid.UUID) error {
	uc.mu.Lock()
	s, ok := uc.sessions[id]
	delete(uc.sessions, id)
	uc.mu.Unlock()
	if !ok {
		return apperror.NewNotFound("draft", id.String())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.draft.Close()
	uc.logger.Info("Draft closed", zap.String("draft_id", id.String()))
	return nil
}

type SaveOutput struct {
	Record       *portfolio.Record
	ChangedSlots []portfolio.Slot
}

// Save encodes the pending images, writes the record in one store call and closes the draft.
// An invalid draft, an encode failure or a store failure leaves both the store and the draft
// as they were.
func (uc *EditorUseCase) Save(ctx context.Context, id uuid.UUID) (out *SaveOutput, err error) {
	ctx, span := tracer.Start(ctx, "EditorUseCase.Save")
	span.SetAttributes(attribute.String("draft.id", id.String()))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "save failed")
		}
		span.End()
	}()

	s, err := uc.lookup(id)
	if err != nil {
		return nil, err
	}
	if !s.saving.CompareAndSwap(false, true) {
		return nil, apperror.NewConflict("draft", "wait for the running save to finish", ErrSaveInProgress)
	}
	defer s.saving.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, apperror.NewNotFound("draft", id.String())
	}

	l := uc.logger.With(zap.String("draft_id", id.String()))

	v := s.draft.Validate()
	if !v.IsValid {
		l.Info("Save blocked by validation", zap.Strings("fields", v.Keys()))
		return nil, apperror.NewValidationFailed("the draft has missing fields", v.Errors)
	}

	if uc.saveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.saveTimeout)
		defer cancel()
	}

	rec, changed, err := uc.resolve(ctx, s.draft)
	if err != nil {
		l.Error("Failed to encode draft images", err)
		return nil, apperror.NewInternal("failed to encode images", err)
	}
	span.SetAttributes(attribute.Int("portfolio.entries", len(rec.Portfolios)), attribute.Int("portfolio.changed_slots", len(changed)))

	if err := uc.repo.Save(ctx, rec); err != nil {
		l.Error("Failed to persist portfolio record", err)
		return nil, fmt.Errorf("save portfolio failed: %w", err)
	}

	uc.publishSaved(ctx, rec, changed)

	uc.mu.Lock()
	delete(uc.sessions, id)
	uc.mu.Unlock()
	s.closed = true
	s.draft.Close()

	l.Info("Portfolio saved", zap.Int("entries", len(rec.Portfolios)), zap.Int("changed_slots", len(changed)))
	return &SaveOutput{Record: rec, ChangedSlots: changed}, nil
}

// resolve builds the record to persist: initial slots carry over the stored value as is,
// new slots are encoded. Removed slots never get here because they fail validation.
func (uc *EditorUseCase) resolve(ctx context.Context, d *draft.Draft) (*portfolio.Record, []portfolio.Slot, error) {
	rec := d.Snapshot()

	var changed []portfolio.Slot
	for _, slot := range portfolio.Slots() {
		switch d.Slot(slot).Status {
		case draft.StatusNew:
			changed = append(changed, slot)
		case draft.StatusRemoved:
			return nil, nil, fmt.Errorf("slot %s is removed", slot)
		}
	}

	encoded := make([]string, len(changed))
	g, gctx := errgroup.WithContext(ctx)
	for i, slot := range changed {
		pending := d.Slot(slot).Pending
		g.Go(func() error {
			out, err := uc.encoder.Encode(gctx, pending.Data, pending.ContentType)
			if err != nil {
				return fmt.Errorf("encode %s image: %w", slot, err)
			}
			encoded[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	for i, slot := range changed {
		rec.Images.Set(slot, &encoded[i])
	}
	return rec, changed, nil
}

func (uc *EditorUseCase) publishSaved(ctx context.Context, rec *portfolio.Record, changed []portfolio.Slot) {
	slots := make([]string, len(changed))
	for i, s := range changed {
		slots[i] = string(s)
	}
	payload := event.PortfolioEventPayload{
		EventType:    event.PortfolioEventTypeSaved,
		StorageKey:   uc.storageKey,
		EntryCount:   len(rec.Portfolios),
		ChangedSlots: slots,
		SavedAt:      uc.clock().UTC(),
	}
	if err := uc.publisher.PublishPortfolioEvent(ctx, payload); err != nil {
		uc.logger.Error("Failed to publish 'portfolio.saved' event", err)
	}
}

// OpenDrafts reports how many drafts are currently open.
func (uc *EditorUseCase) OpenDrafts() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return len(uc.sessions)
}
