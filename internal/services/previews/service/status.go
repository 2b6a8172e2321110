package service

import (
	"metaview/internal/adapters/metaview"
	"metaview/internal/core/poll"
	perr "metaview/internal/platform/errors"
	"metaview/internal/services/previews/domain"
)

// jobCheck maps a server job status onto the poll outcome
func jobCheck(st metaview.JobStatus) poll.Check[metaview.JobStatus] {
	switch st.Status {
	case metaview.JobQueued:
		return poll.Check[metaview.JobStatus]{Outcome: poll.Pending, Message: domain.MsgQueued}
	case metaview.JobStarted:
		return poll.Check[metaview.JobStatus]{Outcome: poll.Pending, Message: domain.MsgGenerating}
	case metaview.JobFinished:
		return poll.Check[metaview.JobStatus]{Outcome: poll.Succeeded, Value: st, Message: domain.MsgGenerated}
	default:
		msg := st.Error
		if msg == "" {
			msg = domain.MsgJobFailed
		}
		return poll.Check[metaview.JobStatus]{Outcome: poll.Failed, Message: msg}
	}
}

// fetchError decides whether a status fetch error ends the run.
// Undecodable bodies, a vanished job and rejected credentials will not fix themselves
func fetchError(err error) error {
	switch perr.CodeOf(err) {
	case perr.ErrorCodeJSON:
		return poll.Fail("unreadable job status: %v", err)
	case perr.ErrorCodeNotFound:
		return poll.Fail("job no longer exists")
	case perr.ErrorCodeUnauthorized, perr.ErrorCodeForbidden:
		return poll.Fail("not allowed to read job status: %v", err)
	}
	return err
}
