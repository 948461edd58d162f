package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Egor213/AuditTrack/internal/broker"
	"github.com/Egor213/AuditTrack/internal/domain"
	"github.com/Egor213/AuditTrack/internal/metrics"
	"github.com/Egor213/AuditTrack/internal/repo"
	errorsUtils "github.com/Egor213/AuditTrack/pkg/errors"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type auditNotification struct {
	ID         string            `json:"id"`
	ActorID    *string           `json:"actor_id"`
	ActionKind domain.ActionKind `json:"action_kind"`
	EntityKind string            `json:"entity_kind"`
	EntityID   string            `json:"entity_id,omitempty"`
	Details    domain.Details    `json:"details"`
	Outcome    domain.Outcome    `json:"outcome"`
	RecordedAt time.Time         `json:"recorded_at"`
}

type AuditService struct {
	logRepo        repo.Log
	brokerProducer broker.Producer
	counters       *metrics.Counters
	newID          func() string
	now            func() time.Time
}

func NewAuditService(lr repo.Log, p broker.Producer, cnt *metrics.Counters) *AuditService {
	return &AuditService{
		logRepo:        lr,
		brokerProducer: p,
		counters:       cnt,
		newID:          uuid.NewString,
		now:            time.Now,
	}
}

// RecordAction appends an audit row and then publishes it. The row is the
// source of truth: a publish failure is logged and not returned.
func (s *AuditService) RecordAction(ctx context.Context, action domain.AuditAction) (string, error) {
	if action.Outcome == "" {
		action.Outcome = domain.OutcomeSuccess
	}

	id := s.newID()
	if err := s.logRepo.InsertLog(ctx, id, action); err != nil {
		s.counters.AuditWrite.Inc("failed")
		log.WithFields(log.Fields{
			"action": action.ActionKind,
			"entity": action.EntityKind,
			"error":  err,
		}).Error("Failed to record audit action")
		return "", errorsUtils.WrapPathErr(ErrCannotRecordAction)
	}
	s.counters.AuditWrite.Inc("ok")

	if s.brokerProducer == nil {
		return id, nil
	}

	payload, err := json.Marshal(auditNotification{
		ID:         id,
		ActorID:    action.ActorID,
		ActionKind: action.ActionKind,
		EntityKind: action.EntityKind,
		EntityID:   action.EntityID,
		Details:    action.Details,
		Outcome:    action.Outcome,
		RecordedAt: s.now().UTC(),
	})
	if err != nil {
		log.WithField("error", err).Warn("Cannot encode audit notification")
		return id, nil
	}

	key := []byte(domain.SystemActorName)
	if action.ActorID != nil {
		key = []byte(*action.ActorID)
	}
	if err := s.brokerProducer.SendMessage(ctx, key, payload); err != nil {
		log.WithFields(log.Fields{
			"id":    id,
			"error": err,
		}).Warn("Audit notification not published")
	}

	return id, nil
}
