package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/exp/slog"

	"vaultkeeper/internal/apperr"
	"vaultkeeper/internal/domain/record"
	"vaultkeeper/internal/domain/transfer"
	"vaultkeeper/internal/domain/user"
)

const userAgent = "vaultkeeper-cli/1.0"

// APIError is a problem response from the server. It unwraps to the
// apperr kind named in its type field.
type APIError struct {
	Status int
	Kind   string
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

func (e *APIError) Unwrap() error {
	switch e.Kind {
	case "authentication":
		return apperr.ErrAuthentication
	case "forbidden":
		return apperr.ErrForbidden
	case "integrity":
		return apperr.ErrIntegrity
	case "validation":
		return apperr.ErrValidation
	case "conflict":
		return apperr.ErrConflict
	case "not_found":
		return apperr.ErrNotFound
	}

	switch {
	case e.Status == http.StatusUnauthorized:
		return apperr.ErrAuthentication
	case e.Status == http.StatusForbidden:
		return apperr.ErrForbidden
	case e.Status == http.StatusNotFound:
		return apperr.ErrNotFound
	case e.Status == http.StatusConflict:
		return apperr.ErrConflict
	case e.Status >= 400 && e.Status < 500:
		return apperr.ErrValidation
	}
	return apperr.ErrInternal
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

// LoginResult is what the server hands back on a successful login.
type LoginResult struct {
	Token string       `json:"token"`
	User  user.Summary `json:"user"`
}

// recordPayload is the record body accepted by create and update. The
// server assigns id, owner and modification time.
type recordPayload struct {
	NameEncrypted     *string `json:"name_encrypted"`
	EmailEncrypted    *string `json:"email_encrypted,omitempty"`
	PasswordEncrypted *string `json:"password_encrypted,omitempty"`
	URLEncrypted      *string `json:"url_encrypted,omitempty"`
	NotesEncrypted    *string `json:"notes_encrypted,omitempty"`
}

func payloadOf(w record.WireRecord) recordPayload {
	return recordPayload{
		NameEncrypted:     w.NameEncrypted,
		EmailEncrypted:    w.EmailEncrypted,
		PasswordEncrypted: w.PasswordEncrypted,
		URLEncrypted:      w.URLEncrypted,
		NotesEncrypted:    w.NotesEncrypted,
	}
}

type APIClient struct {
	client  *http.Client
	log     *slog.Logger
	baseURL string
	token   string
}

func NewAPIClient(baseURL string, timeout time.Duration, log *slog.Logger) *APIClient {
	return &APIClient{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 4,
			},
		},
		log:     log.With("component", "api_client"),
		baseURL: baseURL,
	}
}

func (c *APIClient) SetToken(token string) {
	c.token = token
}

func (c *APIClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/v1/health", nil, nil)
}

func (c *APIClient) Register(ctx context.Context, username, password string) (int, error) {
	var out struct {
		ID int `json:"user_id"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/user/register", body, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *APIClient) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var out LoginResult
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/user/login", body, &out); err != nil {
		return LoginResult{}, err
	}
	return out, nil
}

func (c *APIClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/user/logout", nil, nil)
}

func (c *APIClient) Me(ctx context.Context) (user.Summary, error) {
	var out user.Summary
	if err := c.do(ctx, http.MethodGet, "/user/me", nil, &out); err != nil {
		return user.Summary{}, err
	}
	return out, nil
}

func (c *APIClient) RequestReset(ctx context.Context, username string) error {
	body := map[string]string{"username": username}
	return c.do(ctx, http.MethodPost, "/user/reset/request", body, nil)
}

func (c *APIClient) RedeemReset(ctx context.Context, token, newPassword string) error {
	body := map[string]string{"token": token, "new_password": newPassword}
	return c.do(ctx, http.MethodPost, "/user/reset/redeem", body, nil)
}

func (c *APIClient) SetupAdmin(ctx context.Context, username, password string) (int, error) {
	var out struct {
		ID int `json:"user_id"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/admin/setup", body, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *APIClient) Export(ctx context.Context) (transfer.Document, error) {
	var doc transfer.Document
	if err := c.do(ctx, http.MethodGet, "/admin/export", nil, &doc); err != nil {
		return transfer.Document{}, err
	}
	return doc, nil
}

func (c *APIClient) Import(ctx context.Context, doc transfer.Document, truncate bool) (transfer.Stats, error) {
	path := "/admin/import?truncate=" + strconv.FormatBool(truncate)

	var stats transfer.Stats
	if err := c.do(ctx, http.MethodPost, path, doc, &stats); err != nil {
		return transfer.Stats{}, err
	}
	return stats, nil
}

func (c *APIClient) ListRecords(ctx context.Context) ([]record.WireRecord, error) {
	var out []record.WireRecord
	if err := c.do(ctx, http.MethodGet, "/api/records", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) GetRecord(ctx context.Context, id int) (record.WireRecord, error) {
	var out record.WireRecord
	if err := c.do(ctx, http.MethodGet, recordPath(id), nil, &out); err != nil {
		return record.WireRecord{}, err
	}
	return out, nil
}

func (c *APIClient) CreateRecord(ctx context.Context, w record.WireRecord) (record.WireRecord, error) {
	var out record.WireRecord
	if err := c.do(ctx, http.MethodPost, "/api/records", payloadOf(w), &out); err != nil {
		return record.WireRecord{}, err
	}
	return out, nil
}

func (c *APIClient) UpdateRecord(ctx context.Context, w record.WireRecord) (record.WireRecord, error) {
	var out record.WireRecord
	if err := c.do(ctx, http.MethodPut, recordPath(w.ID), payloadOf(w), &out); err != nil {
		return record.WireRecord{}, err
	}
	return out, nil
}

func (c *APIClient) DeleteRecord(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, recordPath(id), nil, nil)
}

func recordPath(id int) string {
	return "/api/records/" + url.PathEscape(strconv.Itoa(id))
}

func (c *APIClient) do(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.log.Debug("request", slog.String("method", method), slog.String("path", path))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.log.Debug("response", slog.String("path", path), slog.Int("status", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeProblem(resp.StatusCode, data)
	}

	if result == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeProblem(status int, data []byte) error {
	var p problem
	if err := json.Unmarshal(data, &p); err != nil {
		return &APIError{Status: status}
	}

	detail := p.Detail
	if detail == "" {
		detail = p.Title
	}
	return &APIError{Status: status, Kind: p.Type, Detail: detail}
}
