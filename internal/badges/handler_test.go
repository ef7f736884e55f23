package badges

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/healthify/pkg"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_HandleList(t *testing.T) {
	handler := NewHandler(&sourceMock{catalog: DefaultCatalog()})

	req, err := http.NewRequest("GET", "/badges", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	handler.HandleList(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, pkg.ContentType.JSON, rr.Header().Get("Content-Type"))

	var catalog []Badge
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &catalog))
	assert.Equal(t, DefaultCatalog(), catalog)
}

func TestHandler_HandleList_Error(t *testing.T) {
	handler := NewHandler(&sourceMock{err: errors.New("db down")})

	req, err := http.NewRequest("GET", "/badges", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	handler.HandleList(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestHandler_HandleList_DatabaseUnreachable(t *testing.T) {
	handler := NewHandler(&sourceMock{err: fmt.Errorf("list badges: %w", &pgconn.ConnectError{})})

	req, err := http.NewRequest("GET", "/badges", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	handler.HandleList(rr, req)

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	var errResp pkg.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
	assert.Equal(t, pkg.ErrCodeTransient, errResp.Code)
}
