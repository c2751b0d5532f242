package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"afripay-text-bot/internal/logger"
)

// API is the invocation surface the gateway, the flows and the audit
// recorder consume. *Client implements it; tests substitute fakes.
type API interface {
	Invoke(ctx context.Context, method, path string, chatID int64, token string, body map[string]interface{}) (Envelope, error)
	InvokeAnonymous(ctx context.Context, method, path string, chatID int64, body map[string]interface{}) (Envelope, error)
	Upload(ctx context.Context, path string, chatID int64, token string, fields map[string]string, files []FilePart) (Envelope, error)
}

type (
	// Client talks to the remote banking API. Every call carries the chat
	// identifier and is authorized with the user's Bearer token when one
	// exists, else with the static bot key.
	Client struct {
		addr   string
		botKey string

		cl  *http.Client
		upl *http.Client
	}

	// APIError is the normalized failure of a backend call: either a non-2xx
	// response or a transport error. Message is safe to show to the user.
	APIError struct {
		Status  int
		Message string
	}

	// FilePart is one file of a multipart submission.
	FilePart struct {
		Field    string
		Filename string
		Mime     string
		Data     []byte
	}
)

const (
	NetworkErrorMessage = "Network error: no response from API"
	notConfiguredError  = "API not configured"

	jsonTimeout   = 15 * time.Second
	uploadTimeout = 20 * time.Second
)

func New(addr, botKey string) *Client {
	return &Client{
		addr:   strings.TrimRight(addr, "/"),
		botKey: botKey,

		cl: &http.Client{
			Timeout: jsonTimeout,
			Transport: &http.Transport{
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 5,
			},
		},
		upl: &http.Client{
			Timeout: uploadTimeout,
		},
	}
}

func (e *APIError) Error() string {
	return e.Message
}

// Invoke performs a JSON request against /api/<path>. GET sends the payload
// as query parameters, anything else as a JSON body. telegram_chat_id is
// always injected into the payload.
func (c *Client) Invoke(ctx context.Context, method, path string, chatID int64, token string, body map[string]interface{}) (Envelope, error) {
	return c.call(ctx, method, path, chatID, token, body, true)
}

// InvokeAnonymous is Invoke without any Authorization header. The rate
// simulator rejects requests carrying a user token.
func (c *Client) InvokeAnonymous(ctx context.Context, method, path string, chatID int64, body map[string]interface{}) (Envelope, error) {
	return c.call(ctx, method, path, chatID, "", body, false)
}

func (c *Client) call(ctx context.Context, method, path string, chatID int64, token string, body map[string]interface{}, withAuth bool) (Envelope, error) {
	if c.addr == "" {
		return nil, &APIError{Message: notConfiguredError}
	}

	payload := map[string]interface{}{"telegram_chat_id": chatID}
	for k, v := range body {
		payload[k] = v
	}

	reqURL := c.addr + "/api/" + strings.Trim(path, "/")

	var reqBody io.Reader
	if method == http.MethodGet {
		params := url.Values{}
		for k, v := range payload {
			params.Add(k, fmt.Sprint(v))
		}
		reqURL += "?" + params.Encode()
	} else {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if withAuth {
		c.authorize(req, token)
	}

	logger.Debug("---> backend", method, reqURL)

	return c.do(c.cl, req)
}

// Upload performs a multipart POST against /api/<path> with the given form
// fields and files. Used by submissions that attach user documents.
func (c *Client) Upload(ctx context.Context, path string, chatID int64, token string, fields map[string]string, files []FilePart) (Envelope, error) {
	if c.addr == "" {
		return nil, &APIError{Message: notConfiguredError}
	}

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	_ = writer.WriteField("telegram_chat_id", strconv.FormatInt(chatID, 10))
	for k, v := range fields {
		_ = writer.WriteField(k, v)
	}

	for _, f := range files {
		part, err := writer.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, err
		}
		if _, err = part.Write(f.Data); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	reqURL := c.addr + "/api/" + strings.Trim(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	c.authorize(req, token)

	logger.Debug("---> backend upload", reqURL)

	return c.do(c.upl, req)
}

func (c *Client) authorize(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else if c.botKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.botKey)
	}
}

func (c *Client) do(cl *http.Client, req *http.Request) (Envelope, error) {
	resp, err := cl.Do(req)
	if err != nil {
		logger.Warning("Backend request failed:", req.URL.Path, err)
		return nil, &APIError{Message: NetworkErrorMessage}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warning("Error while reading backend response", err)
		return nil, &APIError{Message: NetworkErrorMessage}
	}

	logger.Debug("<--- backend", req.Method, req.URL.Path, "status", resp.StatusCode)

	env := ParseEnvelope(bodyBytes)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.String("message")
		if msg == "" {
			msg = env.String("error")
		}
		if msg == "" {
			msg = fmt.Sprintf("API error %d", resp.StatusCode)
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}

	return env, nil
}
