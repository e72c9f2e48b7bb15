package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-reservations/internal/application"
)

func TestHandleServiceErrorStatusCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "slot taken without holder", err: fmt.Errorf("%w: gone", application.ErrSlotTaken), wantStatus: http.StatusConflict, wantCode: "BOOKING_CONFLICT"},
		{name: "forbidden", err: application.ErrUnauthorized, wantStatus: http.StatusForbidden, wantCode: "AUTH_FORBIDDEN"},
		{name: "not found", err: application.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "unexpected", err: fmt.Errorf("disk full"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			newResponder(discardLogger).handleServiceError(context.Background(), rec, tt.err)

			require.Equal(t, tt.wantStatus, rec.Code)
			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.ErrorCode)
			assert.NotEmpty(t, body.Message)
			assert.Empty(t, body.Conflicts)
		})
	}
}
