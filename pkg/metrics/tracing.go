package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// MethodTracer is a segment on the transaction carried by the context. A nil
// tracer, returned when there's no transaction, is safe to use.
type MethodTracer struct {
	txn *newrelic.Transaction
	seg *newrelic.Segment
}

// TraceMethodCall starts a segment named "<structOrPackageName> <methodName>".
func TraceMethodCall(ctx context.Context, structOrPackageName, methodName string) *MethodTracer {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return nil
	}

	return &MethodTracer{
		txn: txn,
		seg: txn.StartSegment(structOrPackageName + " " + methodName),
	}
}

func (t *MethodTracer) AddAttribute(key string, value interface{}) {
	if t == nil {
		return
	}
	t.seg.AddAttribute(key, value)
}

// OnError notices err on the transaction and tags the segment. A nil err is
// ignored, so it can be deferred against a named error return.
func (t *MethodTracer) OnError(err error) {
	if t == nil || err == nil {
		return
	}
	t.seg.AddAttribute("error", err.Error())
	t.txn.NoticeError(err)
}

func (t *MethodTracer) End() {
	if t == nil {
		return
	}
	t.seg.End()
}
