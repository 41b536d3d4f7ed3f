package apperror

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// Reply is the client-visible rendering of a failure.
type Reply struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
}

// Reclassifier inspects an unclassified error, typically a raw driver error,
// and reports the kind it corresponds to.
type Reclassifier func(err error) (Kind, bool)

// Observer is notified of every reported failure.
type Observer interface {
	ObserveFailure(kind Kind)
}

// Reporter is the only place where failures become wire statuses.
type Reporter struct {
	reclassifiers []Reclassifier
	log           *slog.Logger
	observer      Observer
}

// NewReporter builds a reporter. Reclassifiers run in order; the JSON decoding
// reclassifier always runs last.
func NewReporter(log *slog.Logger, observer Observer, reclassifiers ...Reclassifier) *Reporter {
	if log == nil {
		log = slog.Default()
	}
	return &Reporter{
		reclassifiers: append(reclassifiers, ReclassifyDecoding),
		log:           log,
		observer:      observer,
	}
}

// Classify resolves the kind of err without rendering it.
func (r *Reporter) Classify(err error) Kind {
	if kind, ok := KindOf(err); ok {
		return kind
	}
	for _, reclassify := range r.reclassifiers {
		if kind, ok := reclassify(err); ok {
			return kind
		}
	}
	return Internal
}

// Report maps err to a status and a client-safe message. Internal failures
// are logged with their full detail and rendered with GenericMessage.
func (r *Reporter) Report(ctx context.Context, err error) Reply {
	kind := r.Classify(err)
	if r.observer != nil {
		r.observer.ObserveFailure(kind)
	}

	if kind == Internal {
		logError(ctx, r.log, "request failed", err)
		return Reply{Status: kind.Status(), Message: GenericMessage}
	}

	message := kind.Message()
	var classified *Error
	if errors.As(err, &classified) && classified.Message != "" {
		message = classified.Message
	}
	r.log.DebugContext(ctx, "request rejected", "kind", kind.String(), "error", err)
	return Reply{Status: kind.Status(), Message: message}
}

// ReclassifyDecoding treats malformed or mistyped JSON bodies as bad input.
// Truncated bodies are left alone: io.EOF also surfaces from broken store
// connections.
func ReclassifyDecoding(err error) (Kind, bool) {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return BadInput, true
	}
	return Internal, false
}

func logError(ctx context.Context, log *slog.Logger, msg string, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := []any{"error", oopsErr.Error()}
		if code := oopsErr.Code(); code != nil {
			attrs = append(attrs, "code", code)
		}
		if c := oopsErr.Context(); len(c) > 0 {
			attrs = append(attrs, "context", c)
		}
		log.ErrorContext(ctx, msg, attrs...)
		return
	}
	log.ErrorContext(ctx, msg, "error", err)
}
