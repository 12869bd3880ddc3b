package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/maxviazov/convention-catalog-service/internal/model"
	"github.com/maxviazov/convention-catalog-service/internal/repository"
	"github.com/rs/zerolog"
)

// FeedbackAction is one review step applied to a feedback item.
type FeedbackAction string

const (
	ActionLLMApprove FeedbackAction = "llm-approve"
	ActionLLMReject  FeedbackAction = "llm-reject"
	ActionApprove    FeedbackAction = "approve"
	ActionReject     FeedbackAction = "reject"
	ActionMerge      FeedbackAction = "merge"
)

// FeedbackActions lists every action in review order.
var FeedbackActions = []FeedbackAction{ActionLLMApprove, ActionLLMReject, ActionApprove, ActionReject, ActionMerge}

// TransitionError reports a review step that the current status does not
// allow. It unwraps to repository.ErrConflict.
type TransitionError struct {
	Action FeedbackAction
	Status string
	Risk   string
}

func (e *TransitionError) Error() string { return repository.ErrConflict.Error() + ": " + e.Message() }
func (e *TransitionError) Unwrap() error { return repository.ErrConflict }
func (e *TransitionError) Message() string {
	if e.Risk != "" {
		return fmt.Sprintf("cannot %s feedback in status %s with risk %s", e.Action, e.Status, e.Risk)
	}
	return fmt.Sprintf("cannot %s feedback in status %s", e.Action, e.Status)
}

// NextFeedbackStatus returns the status fb moves to under action.
//
// An LLM reviewer decides PENDING items first. LLM-approved items with SAFE
// risk merge directly; anything riskier needs a human approve or reject
// before it can merge. REJECTED and MERGED are final.
func NextFeedbackStatus(fb model.Feedback, action FeedbackAction) (string, error) {
	safe := fb.RiskLevel == model.RiskSafe
	deny := &TransitionError{Action: action, Status: fb.Status}
	switch action {
	case ActionLLMApprove, ActionLLMReject:
		if fb.Status != model.FeedbackPending {
			return "", deny
		}
		if action == ActionLLMApprove {
			return model.FeedbackLLMApproved, nil
		}
		return model.FeedbackRejected, nil
	case ActionApprove, ActionReject:
		if fb.Status != model.FeedbackLLMApproved {
			return "", deny
		}
		if safe {
			deny.Risk = fb.RiskLevel
			return "", deny
		}
		if action == ActionApprove {
			return model.FeedbackApproved, nil
		}
		return model.FeedbackRejected, nil
	case ActionMerge:
		switch {
		case fb.Status == model.FeedbackApproved:
			return model.FeedbackMerged, nil
		case fb.Status == model.FeedbackLLMApproved && safe:
			return model.FeedbackMerged, nil
		case fb.Status == model.FeedbackLLMApproved:
			deny.Risk = fb.RiskLevel
		}
		return "", deny
	default:
		return "", NewInvalidInput(FieldError{Field: "action", Message: fmt.Sprintf("unknown action %q", action)})
	}
}

// FeedbackQueue applies review actions. The status swap is conditional on
// the status that was read, so a concurrent reviewer gets ErrConflict
// instead of silently overwriting.
type FeedbackQueue struct {
	feedback CatalogService[model.Feedback]
	status   repository.StatusRepository[model.Feedback]
	log      zerolog.Logger
}

func NewFeedbackQueue(feedback CatalogService[model.Feedback], status repository.StatusRepository[model.Feedback], logger zerolog.Logger) *FeedbackQueue {
	l := logger.With().Str("module", "service").Str("component", "feedback_queue").Logger()
	return &FeedbackQueue{feedback: feedback, status: status, log: l}
}

func (q *FeedbackQueue) Transition(ctx context.Context, id int64, action FeedbackAction) (model.Feedback, error) {
	fb, err := q.feedback.Get(ctx, id)
	if err != nil {
		return model.Feedback{}, err
	}
	next, err := NextFeedbackStatus(fb, action)
	if err != nil {
		q.log.Debug().Err(err).Int64("id", id).Msg("transition refused")
		return model.Feedback{}, err
	}
	out, err := q.status.SwapStatus(ctx, id, fb.Status, next)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			q.log.Warn().Int64("id", id).Str("from", fb.Status).Msg("status changed concurrently")
		}
		return model.Feedback{}, err
	}
	q.log.Info().Int64("id", id).Str("action", string(action)).Str("from", fb.Status).Str("to", next).Msg("feedback transitioned")
	return out, nil
}

var _ FeedbackService = (*FeedbackQueue)(nil)
