package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvokeGetSendsQueryParams(t *testing.T) {
	var gotPath, gotAuth, gotChat, gotExtra string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotChat = r.URL.Query().Get("telegram_chat_id")
		gotExtra = r.URL.Query().Get("currency_id")
		_, _ = w.Write([]byte(`{"methods":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "bot-key")
	_, err := c.Invoke(context.Background(), http.MethodGet, "/user/gateway-methods", 42, "user-token", map[string]interface{}{
		"currency_id": 1,
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/user/gateway-methods", gotPath)
	assert.Equal(t, "Bearer user-token", gotAuth)
	assert.Equal(t, "42", gotChat)
	assert.Equal(t, "1", gotExtra)
}

func TestInvokePostInjectsChatIDIntoBody(t *testing.T) {
	var body map[string]interface{}
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "bot-key")
	env, err := c.Invoke(context.Background(), http.MethodPost, "/user/balance", 42, "", nil)
	require.NoError(t, err)

	assert.Equal(t, float64(42), body["telegram_chat_id"])
	// falls back to the bot key when the session has no user token
	assert.Equal(t, "Bearer bot-key", gotAuth)
	assert.True(t, env.Bool("success"))
}

func TestInvokeAnonymousSendsNoAuth(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "bot-key")
	_, err := c.InvokeAnonymous(context.Background(), http.MethodPost, "/simulator", 42, nil)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestErrorNormalization(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message field", 422, `{"message":"Amount too low"}`, "Amount too low"},
		{"error field", 400, `{"error":"Bad request"}`, "Bad request"},
		{"nested message", 500, `{"data":{"message":"Server exploded"}}`, "Server exploded"},
		{"no field", 503, `{}`, "API error 503"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := New(srv.URL, "")
			_, err := c.Invoke(context.Background(), http.MethodPost, "/x", 1, "", nil)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.want, apiErr.Message)
		})
	}
}

func TestTransportErrorBecomesNetworkError(t *testing.T) {
	c := New("http://127.0.0.1:1", "") // nothing listens there

	_, err := c.Invoke(context.Background(), http.MethodPost, "/x", 1, "", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, NetworkErrorMessage, apiErr.Message)
	assert.Zero(t, apiErr.Status)
}

func TestNotConfigured(t *testing.T) {
	c := New("", "")

	_, err := c.Invoke(context.Background(), http.MethodGet, "/x", 1, "", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "API not configured", apiErr.Message)
}

func TestUploadMultipart(t *testing.T) {
	var gotFields map[string]string
	var gotFile []byte
	var gotFilename string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(8<<20))
		gotFields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			gotFields[k] = v[0]
		}
		f, hdr, err := r.FormFile("receipt")
		require.NoError(t, err)
		defer f.Close()
		gotFilename = hdr.Filename
		buf := make([]byte, hdr.Size)
		_, _ = f.Read(buf)
		gotFile = buf
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "bot-key")
	env, err := c.Upload(context.Background(), "/user/deposit/submit", 42, "tok", map[string]string{
		"amount": "50",
	}, []FilePart{{Field: "receipt", Filename: "r.pdf", Mime: "application/pdf", Data: []byte("pdf")}})
	require.NoError(t, err)

	assert.Equal(t, "ok", env.String("message"))
	assert.Equal(t, "42", gotFields["telegram_chat_id"])
	assert.Equal(t, "50", gotFields["amount"])
	assert.Equal(t, "r.pdf", gotFilename)
	assert.Equal(t, []byte("pdf"), gotFile)
}
