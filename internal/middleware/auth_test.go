package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/healthify/internal/auth"
	"github.com/2beens/healthify/internal/middleware"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestAuthMiddlewareHandler_AuthCheck(t *testing.T) {
	testCases := []struct {
		name               string
		path               string
		method             string
		bearer             string
		headerToken        string
		expectedStatusCode int
		mockToken          string
		mockUserID         int
		mockErr            error
		expectedUserID     int
	}{
		{
			name:               "PublicBadgesWithoutToken",
			path:               "/badges",
			method:             http.MethodGet,
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "PublicHealthWithoutToken",
			path:               "/health",
			method:             http.MethodGet,
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "Options",
			path:               "/workouts",
			method:             http.MethodOptions,
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "MissingToken",
			path:               "/workouts",
			method:             http.MethodGet,
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "ValidBearerToken",
			path:               "/workouts",
			method:             http.MethodGet,
			bearer:             "valid-token",
			mockToken:          "valid-token",
			mockUserID:         7,
			expectedStatusCode: http.StatusOK,
			expectedUserID:     7,
		},
		{
			name:               "ValidHeaderToken",
			path:               "/profile",
			method:             http.MethodPut,
			headerToken:        "header-token",
			mockToken:          "header-token",
			mockUserID:         3,
			expectedStatusCode: http.StatusOK,
			expectedUserID:     3,
		},
		{
			name:               "BearerWinsOverHeader",
			path:               "/profile",
			method:             http.MethodGet,
			bearer:             "bearer-token",
			headerToken:        "header-token",
			mockToken:          "bearer-token",
			mockUserID:         9,
			expectedStatusCode: http.StatusOK,
			expectedUserID:     9,
		},
		{
			name:               "UnknownToken",
			path:               "/workouts",
			method:             http.MethodGet,
			bearer:             "invalid-token",
			mockToken:          "invalid-token",
			mockErr:            auth.ErrSessionNotFound,
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "SessionStoreDown",
			path:               "/workouts",
			method:             http.MethodGet,
			bearer:             "some-token",
			mockToken:          "some-token",
			mockErr:            errors.New("connection refused"),
			expectedStatusCode: http.StatusServiceUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockSessions := NewMocksessionResolver(ctrl)
			authMiddleware := middleware.NewAuthMiddlewareHandler(mockSessions)

			req, err := http.NewRequest(tc.method, tc.path, nil)
			assert.NoError(t, err)
			if tc.bearer != "" {
				req.Header.Add("Authorization", "Bearer "+tc.bearer)
			}
			if tc.headerToken != "" {
				req.Header.Add(middleware.TokenHeader, tc.headerToken)
			}

			if tc.mockToken != "" {
				mockSessions.EXPECT().
					UserID(gomock.Any(), tc.mockToken).
					Return(tc.mockUserID, tc.mockErr)
			}

			var gotUserID int
			rr := httptest.NewRecorder()
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUserID, _ = auth.UserIDFromContext(r.Context())
			})
			authMiddleware.AuthCheck()(handler).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.Equal(t, tc.expectedUserID, gotUserID)
		})
	}
}
