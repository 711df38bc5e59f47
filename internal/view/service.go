package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/karnoweb/viewable/internal/cache"
	"github.com/karnoweb/viewable/internal/metrics"
	"github.com/karnoweb/viewable/internal/model"
)

// Service errors.
var (
	ErrMissingEntity = errors.New("entity type and id are required")
)

// Outcome says what happened to a recorded view.
type Outcome string

const (
	OutcomeRecorded Outcome = "recorded"
	OutcomeBot      Outcome = "bot"
	OutcomeCooldown Outcome = "cooldown"
)

// EventWriter persists view events.
type EventWriter interface {
	Insert(ctx context.Context, event *model.ViewEvent) error
}

// CooldownStore tracks per-visitor view cooldowns.
type CooldownStore interface {
	TryAcquireCooldown(ctx context.Context, key cache.CooldownKey, ttl time.Duration) (bool, error)
	ReleaseCooldown(ctx context.Context, key cache.CooldownKey) error
}

// Options configure the recording pipeline.
type Options struct {
	IdentifierChain   []string
	IgnoreBots        bool
	CooldownEnabled   bool
	CooldownPeriod    time.Duration
	DefaultCollection string
	BranchEnabled     bool
	StoreIP           bool
	StoreUserAgent    bool
	StoreReferer      bool
}

const maxMetadataLength = 500

// Service handles the write side: one call per incoming view.
type Service struct {
	events    EventWriter
	cooldowns CooldownStore
	opts      Options
	logger    *slog.Logger
	recorder  metrics.Recorder
}

// NewService creates a recording service.
func NewService(events EventWriter, cooldowns CooldownStore, opts Options, logger *slog.Logger, recorder metrics.Recorder) *Service {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if len(opts.IdentifierChain) == 0 {
		opts.IdentifierChain = []string{IdentifierUser, IdentifierSession, IdentifierIP}
	}
	return &Service{
		events:    events,
		cooldowns: cooldowns,
		opts:      opts,
		logger:    logger,
		recorder:  recorder,
	}
}

// Record processes one view. Bots are dropped first, then the visitor's
// cooldown slot is claimed; only a view that clears both is inserted. When
// the insert fails after the cooldown was claimed, the slot is released so
// the visitor's retry still counts.
func (s *Service) Record(ctx context.Context, req ViewRequest, now time.Time) (Outcome, error) {
	started := time.Now()

	if req.EntityType == "" || req.EntityID == "" {
		return "", ErrMissingEntity
	}

	if s.opts.IgnoreBots && IsBot(req.UserAgent) {
		s.recorder.IncViewRejected("bot")
		return OutcomeBot, nil
	}

	visitorKey := VisitorKey(s.opts.IdentifierChain, req)

	collection := req.Collection
	if collection == "" {
		collection = s.opts.DefaultCollection
	}

	var cooldownKey cache.CooldownKey
	claimed := false
	if s.opts.CooldownEnabled && s.cooldowns != nil {
		cooldownKey = cache.CooldownKey{
			EntityType: req.EntityType,
			EntityID:   req.EntityID,
			Collection: collection,
			VisitorKey: visitorKey,
		}
		ok, err := s.cooldowns.TryAcquireCooldown(ctx, cooldownKey, s.opts.CooldownPeriod)
		if err != nil {
			// Fail open: a Redis outage must not drop views.
			s.logger.Warn("cooldown check failed", slog.Any("error", err))
		}
		if !ok {
			s.recorder.IncViewRejected("cooldown")
			return OutcomeCooldown, nil
		}
		claimed = err == nil
	}

	event := s.buildEvent(req, collection, visitorKey, now)
	if err := s.events.Insert(ctx, event); err != nil {
		if claimed {
			if relErr := s.cooldowns.ReleaseCooldown(ctx, cooldownKey); relErr != nil {
				s.logger.Warn("cooldown release failed", slog.Any("error", relErr))
			}
		}
		return "", fmt.Errorf("record view: %w", err)
	}

	s.recorder.IncViewRecorded()
	s.recorder.ObserveRecordDuration(time.Since(started))
	s.logger.Debug("view recorded",
		slog.String("entity_type", req.EntityType),
		slog.String("entity_id", req.EntityID),
		slog.String("collection", collection),
	)
	return OutcomeRecorded, nil
}

func (s *Service) buildEvent(req ViewRequest, collection, visitorKey string, now time.Time) *model.ViewEvent {
	event := &model.ViewEvent{
		ID:         ulid.Make().String(),
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Collection: collection,
		VisitorKey: visitorKey,
		UserID:     req.UserID,
		ViewedAt:   now,
	}
	if s.opts.BranchEnabled {
		event.BranchID = req.BranchID
	}
	if s.opts.StoreIP {
		event.IP = req.IP
	}
	if s.opts.StoreUserAgent {
		event.UserAgent = Truncate(req.UserAgent, maxMetadataLength)
	}
	if s.opts.StoreReferer {
		event.Referer = Truncate(req.Referer, maxMetadataLength)
	}
	return event
}
