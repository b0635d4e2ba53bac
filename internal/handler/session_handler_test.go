package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dims-api/internal/models"
	appErrors "github.com/noah-isme/dims-api/pkg/errors"
)

type fakeSessionSrv struct {
	resp *models.SessionResponse
	err  error
	last models.SessionRequest
}

func (f *fakeSessionSrv) SignIn(_ context.Context, req models.SessionRequest) (*models.SessionResponse, error) {
	f.last = req
	return f.resp, f.err
}

func TestSessionHandlerSignIn(t *testing.T) {
	srv := &fakeSessionSrv{resp: &models.SessionResponse{AccessToken: "token", Viewer: testViewer}}
	handler := NewSessionHandler(srv)

	c, w := newGinContext(http.MethodPost, "/session", []byte(`{"user_id":"u3","accepted_terms":true}`))
	handler.SignIn(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "u3", srv.last.UserID)
	assert.True(t, srv.last.AcceptedTerms)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "token", envelope.Data["access_token"])
}

func TestSessionHandlerSignInRejectsMalformedBody(t *testing.T) {
	handler := NewSessionHandler(&fakeSessionSrv{})

	c, w := newGinContext(http.MethodPost, "/session", []byte(`{`))
	handler.SignIn(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandlerSignInPropagatesServiceError(t *testing.T) {
	handler := NewSessionHandler(&fakeSessionSrv{err: appErrors.Clone(appErrors.ErrUnauthorized, "unknown user")})

	c, w := newGinContext(http.MethodPost, "/session", []byte(`{"user_id":"nobody","accepted_terms":true}`))
	handler.SignIn(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionHandlerCurrent(t *testing.T) {
	handler := NewSessionHandler(&fakeSessionSrv{})

	c, w := newGinContext(http.MethodGet, "/session", nil)
	handler.Current(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newGinContext(http.MethodGet, "/session", nil)
	withViewer(c, testViewer)
	handler.Current(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "u3", envelope.Data["id"])
	assert.Equal(t, "STAFF", envelope.Data["role"])
}
