package httputil

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "famtree/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "internal_error", body["error"])
		_, ok := body["error_description"]
		assert.False(t, ok, "description must be omitted for internal errors")
	})

	t.Run("uncoded error is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, io.ErrUnexpectedEOF)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("undo failure includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeNoChangesToUndo, "entry has no field changes"))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "no_changes_to_undo", body["error"])
		assert.Equal(t, "entry has no field changes", body["error_description"])
	})

	t.Run("wrapped person not found keeps outer code", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.Wrap(io.EOF, dErrors.CodePersonNotFound, "person not found"))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

type sampleRequest struct {
	Name string `json:"name" validate:"required,max=8"`
	Kind string `json:"kind" validate:"omitempty,oneof=a b"`

	validated bool
}

func (r *sampleRequest) Validate() error {
	if r.Name == "reject" {
		return dErrors.New(dErrors.CodeValidation, "name rejected")
	}
	r.validated = true
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	run := func(body string) (*httptest.ResponseRecorder, *sampleRequest, bool) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		w := httptest.NewRecorder()
		req, ok := DecodeAndPrepare[sampleRequest](w, r, logger, r.Context(), "req-1")
		return w, req, ok
	}

	t.Run("valid body", func(t *testing.T) {
		_, req, ok := run(`{"name":"anna","kind":"a"}`)
		require.True(t, ok)
		assert.Equal(t, "anna", req.Name)
		assert.True(t, req.validated)
	})

	t.Run("empty body", func(t *testing.T) {
		w, _, ok := run(``)
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		w, _, ok := run(`{"name":"anna","extra":1}`)
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("struct tag failure", func(t *testing.T) {
		w, _, ok := run(`{"name":"anna","kind":"z"}`)
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "validation_error", body["error"])
		assert.Equal(t, "Kind must be one of a, b", body["error_description"])
	})

	t.Run("custom validation failure", func(t *testing.T) {
		w, _, ok := run(`{"name":"reject"}`)
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
