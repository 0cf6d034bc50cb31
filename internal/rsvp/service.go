package rsvp

import (
	"context"
	"fmt"
	"ms-rsvp/internal/logger"
	"ms-rsvp/internal/models"
	"time"
)

const (
	DefaultSubmitTimeout = 15 * time.Second
	sideEffectTimeout    = 5 * time.Second
)

type DBLayer interface {
	CreateResponse(ctx context.Context, r models.RSVPResponse) (*models.RSVPResponse, error)
	ListResponses(ctx context.Context) ([]models.RSVPResponse, error)
	GetResponse(ctx context.Context, id string) (*models.RSVPResponse, error)
}

type EventPublisher interface {
	PublishRSVPSubmitted(ctx context.Context, event models.RSVPSubmittedEvent) error
}

type Notifier interface {
	EmitRSVPSubmitted(event models.RSVPSubmittedEvent)
}

// StatsCache is versioned: SetIfCurrent only stores counters computed at the
// generation that is still current, so a fill cannot undo an invalidation.
type StatsCache interface {
	Get(ctx context.Context) (*models.Stats, error)
	Generation(ctx context.Context) (int64, error)
	SetIfCurrent(ctx context.Context, gen int64, stats models.Stats) (bool, error)
	Invalidate(ctx context.Context) error
}

// SubmissionGuard makes a client supplied idempotency key claimable once.
// Lookup returns the response id of a completed key, or "" while pending.
type SubmissionGuard interface {
	Claim(ctx context.Context, key string) (token string, claimed bool, err error)
	Complete(ctx context.Context, key, token, rsvpID string) error
	Release(ctx context.Context, key, token string) error
	Lookup(ctx context.Context, key string) (string, error)
}

// RSVPService owns validation, persistence and the post-write side effects.
// Publisher, Notifier, Cache and Guard are optional.
type RSVPService struct {
	DB            DBLayer
	Publisher     EventPublisher
	Notifier      Notifier
	Cache         StatsCache
	Guard         SubmissionGuard
	Logger        *logger.Logger
	SubmitTimeout time.Duration
}

func NewRSVPService(db DBLayer, log *logger.Logger) *RSVPService {
	if log == nil {
		log = logger.NewWriterLogger(nil)
	}
	return &RSVPService{
		DB:            db,
		Logger:        log,
		SubmitTimeout: DefaultSubmitTimeout,
	}
}

// Submit validates req and persists it exactly once. Validation failures never
// reach the store. No retry is attempted. A repeated idempotency key whose
// first submission completed gets the stored response back without a write.
func (s *RSVPService) Submit(ctx context.Context, req models.RSVPRequest, idempotencyKey string) (*models.RSVPResponse, error) {
	req = Normalize(req)
	if err := validateRequest(req); err != nil {
		s.Logger.Warn("RSVP", fmt.Sprintf("Rejected submission: %v", err))
		return nil, err
	}

	var guardToken string
	if idempotencyKey != "" && s.Guard != nil {
		token, claimed, err := s.Guard.Claim(ctx, idempotencyKey)
		switch {
		case err != nil:
			s.Logger.Warn("REDIS", fmt.Sprintf("Idempotency guard unavailable, continuing without it: %v", err))
		case !claimed:
			return s.replay(ctx, idempotencyKey)
		default:
			guardToken = token
		}
	}

	writeCtx := ctx
	if s.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, s.SubmitTimeout)
		defer cancel()
	}

	created, err := s.DB.CreateResponse(writeCtx, models.RSVPResponse{
		Name:       req.Name,
		Email:      req.Email,
		Attendance: req.Attendance,
		Guests:     req.Guests.Value,
		Message:    req.Message,
	})
	if err != nil {
		if guardToken != "" {
			if rerr := s.Guard.Release(context.WithoutCancel(ctx), idempotencyKey, guardToken); rerr != nil {
				s.Logger.Warn("REDIS", fmt.Sprintf("Failed to release idempotency key %s: %v", idempotencyKey, rerr))
			}
		}
		err = storeError(ErrWriteFailed, err)
		s.Logger.Error("RSVP", fmt.Sprintf("Failed to store RSVP (%s): %v", Classify(err), err))
		return nil, err
	}

	s.Logger.LogRSVP("SUBMIT", created.ID, fmt.Sprintf("%s replied %s (%d guests)", created.Name, created.Attendance, created.Guests))
	s.afterSubmit(ctx, *created, idempotencyKey, guardToken)

	return created, nil
}

// replay answers a repeated key. Only a completed key has a response to hand
// back; a key whose first submission is still in flight is a duplicate.
func (s *RSVPService) replay(ctx context.Context, key string) (*models.RSVPResponse, error) {
	id, err := s.Guard.Lookup(ctx, key)
	if err != nil {
		s.Logger.Warn("REDIS", fmt.Sprintf("Idempotency lookup for key %s failed: %v", key, err))
		return nil, ErrDuplicateSubmission
	}
	if id == "" {
		s.Logger.Warn("RSVP", fmt.Sprintf("Duplicate submission for key %s while the first is pending", key))
		return nil, ErrDuplicateSubmission
	}

	stored, err := s.DB.GetResponse(ctx, id)
	if err != nil {
		// the write landed, so the guest still gets the id
		s.Logger.Warn("RSVP", fmt.Sprintf("Replaying key %s without the stored record: %v", key, err))
		return &models.RSVPResponse{ID: id}, nil
	}
	s.Logger.LogRSVP("REPLAY", id, fmt.Sprintf("repeated key %s", key))
	return stored, nil
}

// afterSubmit runs the best effort side effects. None of them can fail the
// submission.
func (s *RSVPService) afterSubmit(ctx context.Context, created models.RSVPResponse, key, token string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if token != "" {
		if err := s.Guard.Complete(ctx, key, token, created.ID); err != nil {
			s.Logger.Warn("REDIS", fmt.Sprintf("Failed to complete idempotency key %s: %v", key, err))
		}
	}

	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx); err != nil {
			s.Logger.Warn("REDIS", fmt.Sprintf("Failed to invalidate stats cache: %v", err))
		}
	}

	event := models.NewRSVPSubmittedEvent(created)

	if s.Notifier != nil {
		s.Notifier.EmitRSVPSubmitted(event)
	}

	if s.Publisher != nil {
		if err := s.Publisher.PublishRSVPSubmitted(ctx, event); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish RSVP %s: %v", created.ID, err))
		}
	}
}

// List returns every response, newest first. Failures are never masked with a
// cached or partial result.
func (s *RSVPService) List(ctx context.Context) ([]models.RSVPResponse, error) {
	responses, err := s.DB.ListResponses(ctx)
	if err != nil {
		err = storeError(ErrReadFailed, err)
		s.Logger.Error("RSVP", fmt.Sprintf("Failed to list RSVPs (%s): %v", Classify(err), err))
		return nil, err
	}
	return responses, nil
}

// Stats serves the aggregate counters, reading through the cache when one is
// configured.
func (s *RSVPService) Stats(ctx context.Context) (models.Stats, error) {
	var (
		gen      int64
		fillable bool
	)
	if s.Cache != nil {
		cached, err := s.Cache.Get(ctx)
		if err != nil {
			s.Logger.Warn("REDIS", fmt.Sprintf("Stats cache read failed: %v", err))
		} else if cached != nil {
			return *cached, nil
		}

		// read before listing so a write during the listing voids the fill
		if gen, err = s.Cache.Generation(ctx); err != nil {
			s.Logger.Warn("REDIS", fmt.Sprintf("Stats cache generation read failed: %v", err))
		} else {
			fillable = true
		}
	}

	responses, err := s.List(ctx)
	if err != nil {
		return models.Stats{}, err
	}

	stats := Aggregate(responses)
	if fillable {
		stored, err := s.Cache.SetIfCurrent(ctx, gen, stats)
		switch {
		case err != nil:
			s.Logger.Warn("REDIS", fmt.Sprintf("Stats cache write failed: %v", err))
		case !stored:
			s.Logger.Debug("REDIS", "Stats changed while aggregating, cache left empty")
		}
	}
	return stats, nil
}
