package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	docmodels "onboarding/internal/document/models"
	"onboarding/internal/onboarding"
	otpmodels "onboarding/internal/otp/models"
	"onboarding/internal/presence"
	"onboarding/internal/verification/models"
	"onboarding/internal/verification/statemachine"
	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
	"onboarding/pkg/platform/tx"
	"onboarding/pkg/requestcontext"
)

// step is what an event needs inside the unit of work.
type step struct {
	// facts loads the guard inputs. Nil means no facts.
	facts func(ctx context.Context) (statemachine.Facts, error)
	// effect runs with the transition before the state is written. It may
	// add to the change. It is skipped when scoring failed the verification.
	effect func(ctx context.Context, tr statemachine.Transition, change *models.StateChange) error
}

// commit fires event against v in one unit of work. The transition, its
// error score, its effect and the process finish commit together or not at
// all, and nothing is emitted for a unit that fails. A score reaching the
// limit turns the transition into COMPLETED_FAILED and the CodeScoreExceeded
// error is returned after the commit.
func (s *Service) commit(ctx context.Context, v *models.Verification, event statemachine.Event, st step) (*models.Verification, error) {
	var (
		tr       statemachine.Transition
		updated  *models.Verification
		exceeded error
	)
	err := s.tx.RunInTx(tx.WithLockKey(ctx, v.ActivationID.String()), func(ctx context.Context) error {
		current, err := s.store.FindByID(ctx, v.ID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "reload verification")
		}
		if current.State() != v.State() {
			return dErrors.New(dErrors.CodeConflict, "verification changed concurrently")
		}
		var facts statemachine.Facts
		if st.facts != nil {
			if facts, err = st.facts(ctx); err != nil {
				return err
			}
		}
		tr, err = s.machine.Fire(current.State(), event, facts)
		if err != nil {
			return err
		}
		if tr.Noop {
			updated = current
			return nil
		}

		change := models.StateChange{To: tr.To}
		if tr.Reason != "" {
			if tr.To.Status == models.StatusRejected {
				change.RejectReason = tr.Reason
			} else {
				change.ErrorDetail = tr.Reason
			}
		}
		if tr.Score != "" {
			if _, err := s.processes.RecordError(ctx, current.ProcessID, tr.Score); err != nil {
				if !dErrors.HasCode(err, dErrors.CodeScoreExceeded) {
					return err
				}
				exceeded = err
				tr.To = models.StateCompletedFailed
				change = models.StateChange{To: tr.To, ErrorDetail: err.Error()}
			}
		}
		if exceeded == nil && st.effect != nil {
			if err := st.effect(ctx, tr, &change); err != nil {
				return err
			}
		}

		now := requestcontext.Now(ctx)
		ok, err := s.store.UpdateState(ctx, current.ID, tr.From, change, now)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "update verification state")
		}
		if !ok {
			return dErrors.New(dErrors.CodeConflict, "verification changed concurrently")
		}
		if tr.To == models.StateCompletedAccepted {
			if err := s.processes.Finish(ctx, current.ProcessID); err != nil {
				return err
			}
		}
		updated = applyChange(current, change, now)
		committed, transition := updated, tr
		tx.AfterCommit(ctx, func(ctx context.Context) {
			s.metrics.IncrementTransition(transition.From.String(), transition.To.String(), string(event))
			s.logger.InfoContext(ctx, "verification transition",
				"verification_id", committed.ID.String(),
				"process_id", committed.ProcessID.String(),
				"event", string(event),
				"from", transition.From.String(),
				"to", transition.To.String(),
			)
			s.afterCommit(ctx, committed, transition)
		})
		return nil
	})
	if err != nil {
		s.metrics.IncrementRejected(string(event), string(dErrors.CodeOf(err)))
		return nil, err
	}
	if exceeded != nil {
		return updated, exceeded
	}
	return updated, nil
}

func applyChange(v *models.Verification, change models.StateChange, now time.Time) *models.Verification {
	c := *v
	c.Phase = change.To.Phase
	c.Status = change.To.Status
	if change.ErrorDetail != "" {
		c.ErrorDetail = change.ErrorDetail
	}
	if change.RejectReason != "" {
		c.RejectReason = change.RejectReason
	}
	if change.SessionInfo != nil {
		c.SessionInfo = *change.SessionInfo
	}
	c.UpdatedAt = now
	return &c
}

// afterCommit runs the follow-ups of a committed transition: provider
// cleanup and an event for a completed verification, code delivery on
// entering OTP verification.
func (s *Service) afterCommit(ctx context.Context, v *models.Verification, tr statemachine.Transition) {
	if tr.To.IsTerminal() {
		s.metrics.IncrementCompleted(string(tr.To.Status))
		s.cleanupProviders(ctx, v)
		eventType := onboarding.EventVerificationFailed
		switch tr.To.Status {
		case models.StatusAccepted:
			eventType = onboarding.EventVerificationAccepted
		case models.StatusRejected:
			eventType = onboarding.EventVerificationRejected
		}
		detail := v.ErrorDetail
		if v.RejectReason != "" {
			detail = v.RejectReason
		}
		onboarding.Emit(ctx, s.logger, s.hook, onboarding.Event{
			Type:           eventType,
			ProcessID:      v.ProcessID,
			UserID:         v.UserID,
			ActivationID:   v.ActivationID,
			VerificationID: v.ID,
			Status:         tr.To.String(),
			Detail:         detail,
		})
		return
	}
	if tr.To.Phase == models.PhaseOtpVerification && tr.From.Phase != models.PhaseOtpVerification {
		p, err := s.processes.Get(ctx, v.ProcessID)
		if err == nil {
			err = s.otp.Send(ctx, p, otpmodels.TypeUserVerification)
		}
		if err != nil {
			s.logger.WarnContext(ctx, "user verification code not delivered",
				"verification_id", v.ID.String(),
				"error", err,
			)
		}
	}
}

func (s *Service) cleanupProviders(ctx context.Context, v *models.Verification) {
	s.cleanupRef(ctx, models.ExpiredRef{
		ID:           v.ID,
		ProcessID:    v.ProcessID,
		UserID:       v.UserID,
		ActivationID: v.ActivationID,
		SessionInfo:  v.SessionInfo,
	})
}

// cleanupRef deletes the document uploads and presence data of a completed
// verification at both providers concurrently. Failures are logged only.
func (s *Service) cleanupRef(ctx context.Context, ref models.ExpiredRef) {
	owner, err := id.NewOwnerID(ref.UserID, ref.ActivationID)
	if err != nil {
		return
	}
	var g errgroup.Group
	g.Go(func() error {
		docs, err := s.documents.AllDocuments(ctx, ref.ID)
		if err != nil {
			s.logger.WarnContext(ctx, "document cleanup skipped", "verification_id", ref.ID.String(), "error", err)
			return nil
		}
		var uploadIDs []string
		for _, d := range docs {
			if d.UploadID != "" && d.Type != docmodels.TypeSelfiePhoto && d.Type != docmodels.TypeSelfieVideo {
				uploadIDs = append(uploadIDs, d.UploadID)
			}
		}
		s.documents.Cleanup(ctx, owner, uploadIDs)
		return nil
	})
	g.Go(func() error {
		session, err := presence.DecodeSession(ref.SessionInfo)
		if err != nil {
			s.logger.WarnContext(ctx, "presence cleanup skipped", "verification_id", ref.ID.String(), "error", err)
			return nil
		}
		s.presence.Cleanup(ctx, owner, session)
		return nil
	})
	_ = g.Wait()
}
