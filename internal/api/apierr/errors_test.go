package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/roomserver/internal/model"
)

func TestWriteErrorMapsModelErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{model.ErrSnapshotNotFound, http.StatusNotFound, CodeRoomNotFound},
		{fmt.Errorf("room 3: %w", model.ErrRoomNotFound), http.StatusNotFound, CodeRoomNotFound},
		{model.ErrClientNotFound, http.StatusNotFound, CodeClientNotFound},
		{NewInvalidRequestError("bad limit"), http.StatusBadRequest, CodeInvalidRequest},
		{errors.New("redis down"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		rr := httptest.NewRecorder()
		WriteError(rr, tt.err)

		assert.Equal(t, tt.status, rr.Code, tt.err.Error())
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, tt.code, resp.Error.Code)
	}
}
