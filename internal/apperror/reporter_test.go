package apperror

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver map[Kind]int

func (o countingObserver) ObserveFailure(kind Kind) { o[kind]++ }

var errUniqueViolation = errors.New("duplicate key value violates unique constraint")

func fakeStoreReclassifier(err error) (Kind, bool) {
	if errors.Is(err, errUniqueViolation) {
		return Conflict, true
	}
	return Internal, false
}

func TestReporter_Report(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
		wantKind   Kind
	}{
		{
			name:       "classified keeps its message",
			err:        New(NotFound, "card not found"),
			wantStatus: http.StatusNotFound,
			wantMsg:    "card not found",
			wantKind:   NotFound,
		},
		{
			name:       "classified without message uses template",
			err:        New(Forbidden, ""),
			wantStatus: http.StatusForbidden,
			wantMsg:    Forbidden.Message(),
			wantKind:   Forbidden,
		},
		{
			name:       "classified behind oops wrap",
			err:        oops.With("operation", "delete card").Wrap(New(BadInput, "malformed identifier")),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "malformed identifier",
			wantKind:   BadInput,
		},
		{
			name:       "raw store error reclassified",
			err:        fmt.Errorf("insert user: %w", errUniqueViolation),
			wantStatus: http.StatusConflict,
			wantMsg:    Conflict.Message(),
			wantKind:   Conflict,
		},
		{
			name:       "json syntax error reclassified",
			err:        json.Unmarshal([]byte("{"), &map[string]any{}),
			wantStatus: http.StatusBadRequest,
			wantMsg:    BadInput.Message(),
			wantKind:   BadInput,
		},
		{
			name:       "unclassified becomes generic internal",
			err:        errors.New("dial tcp 10.0.0.7:5432: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    GenericMessage,
			wantKind:   Internal,
		},
		{
			name:       "classified internal hides its message",
			err:        Wrap(Internal, "hash failed: cost out of range", errors.New("bcrypt")),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    GenericMessage,
			wantKind:   Internal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observer := countingObserver{}
			var buf bytes.Buffer
			log := slog.New(slog.NewJSONHandler(&buf, nil))
			reporter := NewReporter(log, observer, fakeStoreReclassifier)

			reply := reporter.Report(context.Background(), tt.err)

			assert.Equal(t, tt.wantStatus, reply.Status)
			assert.Equal(t, tt.wantMsg, reply.Message)
			assert.Equal(t, 1, observer[tt.wantKind])
		})
	}
}

func TestReporter_InternalDetailIsLoggedNotReturned(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	reporter := NewReporter(log, nil)

	err := oops.Code("CARD_LIST_FAILED").With("operation", "list cards").Wrap(errors.New("pool exhausted"))
	reply := reporter.Report(context.Background(), err)

	assert.Equal(t, http.StatusInternalServerError, reply.Status)
	assert.NotContains(t, reply.Message, "pool exhausted")
	assert.Contains(t, buf.String(), "pool exhausted")
	assert.Contains(t, buf.String(), "CARD_LIST_FAILED")
}

func TestReply_JSONShape(t *testing.T) {
	data, err := json.Marshal(Reply{Status: http.StatusNotFound, Message: "card not found"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"card not found"}`, string(data))
}

func TestKind_Defaults(t *testing.T) {
	assert.Equal(t, Internal, Kind(0))
	assert.Equal(t, http.StatusInternalServerError, Kind(42).Status())
	assert.Equal(t, GenericMessage, Kind(42).Message())
	assert.Equal(t, "conflict", Conflict.String())
}

func TestError_WrapKeepsCause(t *testing.T) {
	cause := errors.New("crypto/bcrypt: hashedSecret too short")
	err := Wrap(Internal, "verify password", cause)

	assert.ErrorIs(t, err, cause)
	kind, ok := KindOf(fmt.Errorf("login: %w", err))
	assert.True(t, ok)
	assert.Equal(t, Internal, kind)
}
