package auth

import (
	"context"
	"sync"
	"testing"

	"afripay-text-bot/internal/backend"
	"afripay-text-bot/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	method string
	path   string
	body   map[string]interface{}
	token  string
}

type scriptedAPI struct {
	mu       sync.Mutex
	calls    []call
	handlers map[string]func(body map[string]interface{}) (backend.Envelope, error)
}

func newScriptedAPI() *scriptedAPI {
	return &scriptedAPI{handlers: map[string]func(map[string]interface{}) (backend.Envelope, error){}}
}

func (s *scriptedAPI) Invoke(_ context.Context, method, path string, _ int64, token string, body map[string]interface{}) (backend.Envelope, error) {
	s.mu.Lock()
	s.calls = append(s.calls, call{method, path, body, token})
	s.mu.Unlock()
	if h, ok := s.handlers[path]; ok {
		return h(body)
	}
	return backend.Envelope{}, nil
}

func (s *scriptedAPI) InvokeAnonymous(ctx context.Context, method, path string, chatID int64, body map[string]interface{}) (backend.Envelope, error) {
	return s.Invoke(ctx, method, path, chatID, "", body)
}

func (s *scriptedAPI) Upload(context.Context, string, int64, string, map[string]string, []backend.FilePart) (backend.Envelope, error) {
	return backend.Envelope{}, nil
}

func newGateway(t *testing.T) (*Gateway, *scriptedAPI, *session.Store) {
	t.Helper()
	store, err := session.NewStore(context.Background())
	require.NoError(t, err)
	api := newScriptedAPI()
	return New(api, store), api, store
}

func TestLoginAdoptsGrant(t *testing.T) {
	gw, api, store := newGateway(t)
	api.handlers["/user/login"] = func(body map[string]interface{}) (backend.Envelope, error) {
		assert.Equal(t, "u@x.y", body["email"])
		return backend.Envelope{
			"token": "tok",
			"user":  map[string]interface{}{"id": float64(7), "name": "U"},
		}, nil
	}

	require.NoError(t, gw.Login(context.Background(), 1, "u@x.y", "pass"))

	sess := store.Get(1)
	assert.True(t, sess.Auth.IsAuthed)
	assert.Equal(t, "tok", sess.Auth.AccessToken)
	assert.Equal(t, "u@x.y", sess.Auth.Email)
	require.NotNil(t, sess.Auth.User)
	assert.Equal(t, int64(7), sess.Auth.User.ID)
}

func TestLoginWithoutTokenFails(t *testing.T) {
	gw, api, store := newGateway(t)
	api.handlers["/user/login"] = func(map[string]interface{}) (backend.Envelope, error) {
		return backend.Envelope{"message": "Bad credentials"}, nil
	}

	err := gw.Login(context.Background(), 1, "u@x.y", "pass")
	require.Error(t, err)
	assert.Equal(t, "Bad credentials", err.Error())
	assert.False(t, store.Get(1).Auth.IsAuthed)
}

func TestVerifyPinRequiresToken(t *testing.T) {
	gw, _, _ := newGateway(t)

	err := gw.VerifyPin(context.Background(), 1, "u@x.y", "123456")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestVerifyPinSuccessMarksSession(t *testing.T) {
	gw, api, store := newGateway(t)
	require.NoError(t, store.Set(1, session.Session{Auth: session.Auth{IsAuthed: true, AccessToken: "tok"}}))
	api.handlers["/user/pin/auth"] = func(body map[string]interface{}) (backend.Envelope, error) {
		assert.Equal(t, "123456", body["pin"])
		return backend.Envelope{"success": true}, nil
	}

	require.NoError(t, gw.VerifyPin(context.Background(), 1, "u@x.y", "123456"))
	assert.True(t, store.Get(1).Auth.PinVerified)
}

func TestVerifyPinRejection(t *testing.T) {
	gw, api, store := newGateway(t)
	require.NoError(t, store.Set(1, session.Session{Auth: session.Auth{IsAuthed: true, AccessToken: "tok"}}))
	api.handlers["/user/pin/auth"] = func(map[string]interface{}) (backend.Envelope, error) {
		return backend.Envelope{"success": false, "message": "Wrong PIN"}, nil
	}

	err := gw.VerifyPin(context.Background(), 1, "u@x.y", "000000")
	require.Error(t, err)
	assert.Equal(t, "Wrong PIN", err.Error())
	assert.False(t, store.Get(1).Auth.PinVerified)
}

func TestRegisterFallsBackToLegacyEndpoint(t *testing.T) {
	gw, api, store := newGateway(t)
	api.handlers["/user/register"] = func(map[string]interface{}) (backend.Envelope, error) {
		return nil, &backend.APIError{Status: 404, Message: "Not found"}
	}
	api.handlers["/register"] = func(map[string]interface{}) (backend.Envelope, error) {
		return backend.Envelope{"access_token": "tok-2"}, nil
	}

	env, err := gw.Register(context.Background(), 1, map[string]interface{}{"email": "n@x.y"})
	require.NoError(t, err)
	assert.NotNil(t, env)

	sess := store.Get(1)
	assert.True(t, sess.Auth.IsAuthed)
	assert.Equal(t, "tok-2", sess.Auth.AccessToken)
	assert.Equal(t, "n@x.y", sess.Auth.Email)
}

func TestRegisterWithoutGrantLeavesSessionAlone(t *testing.T) {
	gw, api, store := newGateway(t)
	api.handlers["/user/register"] = func(map[string]interface{}) (backend.Envelope, error) {
		return backend.Envelope{"message": "Check your email"}, nil
	}

	env, err := gw.Register(context.Background(), 1, map[string]interface{}{"email": "n@x.y"})
	require.NoError(t, err)
	assert.Equal(t, "Check your email", env.String("message"))
	assert.False(t, store.Get(1).Auth.IsAuthed)
}
