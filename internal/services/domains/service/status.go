package service

import (
	"metaview/internal/adapters/metaview"
	"metaview/internal/core/poll"
	perr "metaview/internal/platform/errors"
	"metaview/internal/services/domains/domain"
)

// domainCheck maps a domain status onto the poll outcome. A failed lookup is not terminal:
// records often appear minutes after the user publishes them
func domainCheck(d metaview.Domain) poll.Check[metaview.Domain] {
	switch d.Status {
	case metaview.DomainVerified:
		return poll.Check[metaview.Domain]{Outcome: poll.Succeeded, Value: d, Message: domain.MsgVerified}
	case metaview.DomainFailed:
		return poll.Check[metaview.Domain]{Outcome: poll.Pending, Message: domain.MsgNotFound}
	default:
		return poll.Check[metaview.Domain]{Outcome: poll.Pending, Message: domain.MsgAwaitingDNS}
	}
}

func fetchError(err error) error {
	switch perr.CodeOf(err) {
	case perr.ErrorCodeJSON:
		return poll.Fail("unreadable verification status: %v", err)
	case perr.ErrorCodeNotFound:
		return poll.Fail("domain no longer exists")
	case perr.ErrorCodeUnauthorized, perr.ErrorCodeForbidden:
		return poll.Fail("not allowed to check this domain: %v", err)
	}
	return err
}

// attemptOf labels a poll tick for the attempt history
func attemptOf(t poll.Tick, domainID string, method metaview.VerificationMethod) domain.VerificationAttempt {
	a := domain.VerificationAttempt{
		DomainID:      domainID,
		Method:        method,
		AttemptNumber: t.Attempt,
		CheckedAt:     t.CheckedAt,
		Detail:        t.Message,
	}
	switch t.Outcome {
	case poll.TickSucceeded:
		a.Outcome = domain.OutcomeVerified
	case poll.TickPending:
		a.Outcome = domain.OutcomePending
		if t.Message == domain.MsgNotFound {
			a.Outcome = domain.OutcomeNotFound
		}
	default:
		a.Outcome = domain.OutcomeError
	}
	return a
}
