package workflow

import (
	"github.com/garyjia/visitor-kiosk/internal/domain/entity"
	domainwf "github.com/garyjia/visitor-kiosk/internal/domain/workflow"
)

// Listener receives session notifications. Callbacks run outside the session
// lock and may call back into the session.
type Listener interface {
	OnStepChanged(step domainwf.State, progress float64)
	OnComplete(draft entity.VisitorDraft)
	OnCancelled()
	OnRejected(reason string)
	OnError(err error)
}

// ListenerFuncs adapts optional functions to Listener; nil fields are skipped
type ListenerFuncs struct {
	StepChanged func(step domainwf.State, progress float64)
	Complete    func(draft entity.VisitorDraft)
	Cancelled   func()
	Rejected    func(reason string)
	Error       func(err error)
}

func (l ListenerFuncs) OnStepChanged(step domainwf.State, progress float64) {
	if l.StepChanged != nil {
		l.StepChanged(step, progress)
	}
}

func (l ListenerFuncs) OnComplete(draft entity.VisitorDraft) {
	if l.Complete != nil {
		l.Complete(draft)
	}
}

func (l ListenerFuncs) OnCancelled() {
	if l.Cancelled != nil {
		l.Cancelled()
	}
}

func (l ListenerFuncs) OnRejected(reason string) {
	if l.Rejected != nil {
		l.Rejected(reason)
	}
}

func (l ListenerFuncs) OnError(err error) {
	if l.Error != nil {
		l.Error(err)
	}
}
