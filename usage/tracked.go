package usage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kyleturman/houston/llm"
	"github.com/kyleturman/houston/logging"
)

// Tracked decorates an llm.Adapter with usage attribution. Every final
// response carrying token usage produces exactly one Record; partial
// (streaming) chunks are never recorded. Recorder failures are logged and
// never surfaced to the caller: tracking must not break serving.
type Tracked struct {
	inner    llm.Adapter
	tracking Tracking
	recorder Recorder
	logger   logging.Logger
}

// NewTracked wraps an adapter with tracking metadata. A nil logger defaults
// to the no-op logger; a nil recorder disables recording but keeps the
// metadata observable via Tracking().
func NewTracked(inner llm.Adapter, tracking Tracking, recorder Recorder, logger logging.Logger) *Tracked {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Tracked{inner: inner, tracking: tracking, recorder: recorder, logger: logger}
}

// Tracking returns the attribution metadata attached at resolution time.
func (t *Tracked) Tracking() Tracking { return t.tracking }

// Unwrap returns the inner provider adapter.
func (t *Tracked) Unwrap() llm.Adapter { return t.inner }

// Info passes through the inner adapter's Info unchanged.
func (t *Tracked) Info() llm.Info { return t.inner.Info() }

// Generate forwards to the inner adapter, recording usage from final
// responses as they pass through.
func (t *Tracked) Generate(ctx context.Context, req llm.Request) (<-chan llm.Response, <-chan error) {
	inResp, inErr := t.inner.Generate(ctx, req)

	out := make(chan llm.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		for inResp != nil || inErr != nil {
			select {
			case resp, ok := <-inResp:
				if !ok {
					inResp = nil
					continue
				}
				if !resp.Partial && resp.Usage != nil {
					t.record(ctx, resp)
				}
				out <- resp
			case err, ok := <-inErr:
				if !ok {
					inErr = nil
					continue
				}
				if err != nil {
					errCh <- err
				}
			}
		}
	}()

	return out, errCh
}

// record builds and persists one ledger entry for a final response.
func (t *Tracked) record(ctx context.Context, resp llm.Response) {
	if t.recorder == nil {
		return
	}

	info := t.inner.Info()
	rec := Record{
		ID:           uuid.NewString(),
		PrincipalID:  t.tracking.Principal.PrincipalID(),
		Context:      t.tracking.Context,
		Provider:     info.Provider,
		ModelKey:     info.ModelKey,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		Cost:         Cost(info.ModelKey, *resp.Usage),
		CreatedAt:    time.Now().UTC(),
	}
	if t.tracking.Subject != nil {
		rec.SubjectKind = t.tracking.Subject.SubjectKind()
		rec.SubjectID = t.tracking.Subject.SubjectID()
	}

	// Recording is detached from the request context so cancellation after a
	// completed generation does not drop the ledger entry.
	if err := t.recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
		t.logger.Warn("usage.record.failed",
			"principal", rec.PrincipalID,
			"model", rec.ModelKey,
			"error", err.Error(),
		)
		return
	}
	t.logger.Debug("usage.record.written",
		"principal", rec.PrincipalID,
		"model", rec.ModelKey,
		"input_tokens", rec.InputTokens,
		"output_tokens", rec.OutputTokens,
		"cost", rec.Cost,
	)
}
