package auth

import (
	"context"
	"errors"
	"net/http"

	"afripay-text-bot/internal/backend"
	"afripay-text-bot/internal/logger"
	"afripay-text-bot/internal/session"
)

// Gateway authenticates chats against the backend and keeps the session's
// auth record in step with what the backend granted.
type Gateway struct {
	api   backend.API
	store *session.Store
}

var ErrNotAuthenticated = errors.New("Not authenticated. Please login first.")

func New(api backend.API, store *session.Store) *Gateway {
	return &Gateway{api: api, store: store}
}

// Login exchanges credentials for a token and marks the session
// authenticated. Error messages are safe to surface to the user.
func (g *Gateway) Login(ctx context.Context, chatID int64, email, password string) error {
	env, err := g.api.InvokeAnonymous(ctx, http.MethodPost, "/user/login", chatID, map[string]interface{}{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return err
	}

	token, user := backend.DecodeAuthGrant(env)
	if token == "" || user == nil {
		msg := env.String("message")
		if msg == "" {
			msg = "Login failed"
		}
		return errors.New(msg)
	}

	sess := g.store.Get(chatID)
	sess.Auth = session.Auth{
		IsAuthed:    true,
		AccessToken: token,
		Email:       email,
		User:        user,
	}
	if err := g.store.Set(chatID, sess); err != nil {
		return err
	}

	logger.Event("Chat", chatID, "logged in as", email)
	return nil
}

// VerifyPin checks the 6-digit secondary credential. It requires a prior
// login token; a passing check marks the session but every sensitive flow
// re-runs the check itself rather than trusting the mark.
func (g *Gateway) VerifyPin(ctx context.Context, chatID int64, email, pin string) error {
	sess := g.store.Get(chatID)
	if sess.Auth.AccessToken == "" {
		return ErrNotAuthenticated
	}

	env, err := g.api.Invoke(ctx, http.MethodPost, "/user/pin/auth", chatID, sess.Auth.AccessToken, map[string]interface{}{
		"email": email,
		"pin":   pin,
	})
	if err != nil {
		return err
	}

	if !env.Bool("success") {
		msg := env.String("message")
		if msg == "" {
			msg = "PIN verification failed"
		}
		return errors.New(msg)
	}

	sess = g.store.Get(chatID)
	sess.Auth.PinVerified = true
	return g.store.Set(chatID, sess)
}

// Register creates an account, trying the primary endpoint first and the
// legacy one when it fails. A returned token is adopted exactly like login.
func (g *Gateway) Register(ctx context.Context, chatID int64, payload map[string]interface{}) (backend.Envelope, error) {
	sess := g.store.Get(chatID)

	env, err := g.api.Invoke(ctx, http.MethodPost, "/user/register", chatID, sess.Auth.AccessToken, payload)
	if err != nil {
		logger.Debug("Primary register endpoint failed, trying fallback:", err)
		env, err = g.api.Invoke(ctx, http.MethodPost, "/register", chatID, sess.Auth.AccessToken, payload)
	}
	if err != nil {
		return nil, err
	}

	token, user := backend.DecodeAuthGrant(env)
	if token != "" {
		email, _ := payload["email"].(string)
		if email == "" && user != nil {
			email = user.Email
		}

		sess = g.store.Get(chatID)
		sess.Auth.IsAuthed = true
		sess.Auth.AccessToken = token
		sess.Auth.Email = email
		if user != nil {
			sess.Auth.User = user
		}
		if err := g.store.Set(chatID, sess); err != nil {
			return nil, err
		}

		logger.Event("Chat", chatID, "registered as", email)
	}

	return env, nil
}
