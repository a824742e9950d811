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
	"strings"
	"time"
)

// APIError is a non-2xx answer from the API server.
type APIError struct {
	Status    int
	Code      string `json:"code"`
	Message   string `json:"error"`
	Direction string `json:"direction"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d (%s): %s", e.Status, e.Code, e.Message)
}

// API is a thin client for the /api/v1 endpoints.
type API struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewAPI creates a client for baseURL (e.g. http://localhost:8081).
// httpClient may be nil.
func NewAPI(baseURL, token string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &API{baseURL: strings.TrimSuffix(baseURL, "/"), token: token, http: httpClient}
}

// Token returns the bearer token the client sends.
func (a *API) Token() string { return a.token }

type unreadCountBody struct {
	UnreadCount int64 `json:"unreadCount"`
}

func (a *API) SendFriendRequest(ctx context.Context, recipientID uint) error {
	return a.do(ctx, http.MethodPost, "/friend-requests", map[string]uint{"recipientId": recipientID}, nil)
}

func (a *API) AcceptFriendRequest(ctx context.Context, requesterID uint) error {
	return a.do(ctx, http.MethodPost, fmt.Sprintf("/friend-requests/%d/accept", requesterID), nil, nil)
}

func (a *API) RejectFriendRequest(ctx context.Context, requesterID uint) error {
	return a.do(ctx, http.MethodPost, fmt.Sprintf("/friend-requests/%d/reject", requesterID), nil, nil)
}

func (a *API) CancelFriendRequest(ctx context.Context, recipientID uint) error {
	return a.do(ctx, http.MethodDelete, fmt.Sprintf("/friend-requests/%d", recipientID), nil, nil)
}

func (a *API) RemoveFriend(ctx context.Context, friendID uint) error {
	return a.do(ctx, http.MethodDelete, fmt.Sprintf("/friends/%d", friendID), nil, nil)
}

func (a *API) ListFriends(ctx context.Context) (*RelationshipList, error) {
	var out RelationshipList
	if err := a.do(ctx, http.MethodGet, "/friends", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) ListNotifications(ctx context.Context, page, limit int, unreadOnly bool) (*NotificationPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if unreadOnly {
		q.Set("unread", "true")
	}
	var out NotificationPage
	if err := a.do(ctx, http.MethodGet, "/notifications?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) UnreadCount(ctx context.Context) (int64, error) {
	var out unreadCountBody
	err := a.do(ctx, http.MethodGet, "/notifications/unread-count", nil, &out)
	return out.UnreadCount, err
}

func (a *API) MarkRead(ctx context.Context, notificationID uint) (int64, error) {
	var out unreadCountBody
	err := a.do(ctx, http.MethodPost, fmt.Sprintf("/notifications/%d/read", notificationID), nil, &out)
	return out.UnreadCount, err
}

func (a *API) MarkAllRead(ctx context.Context) (int64, error) {
	var out unreadCountBody
	err := a.do(ctx, http.MethodPost, "/notifications/read-all", nil, &out)
	return out.UnreadCount, err
}

func (a *API) SetFollow(ctx context.Context, movieID uint, on bool) (*ToggleResult, error) {
	var out ToggleResult
	if err := a.do(ctx, toggleMethod(on), fmt.Sprintf("/movies/%d/follow", movieID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) SetFavorite(ctx context.Context, episodeID uint, on bool) (*ToggleResult, error) {
	var out ToggleResult
	if err := a.do(ctx, toggleMethod(on), fmt.Sprintf("/episodes/%d/favorite", episodeID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func toggleMethod(on bool) string {
	if on {
		return http.MethodPost
	}
	return http.MethodDelete
}

func (a *API) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+"/api/v1"+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
