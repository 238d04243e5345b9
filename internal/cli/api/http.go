package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"Flow/internal/cli/repo"
	fsrepo "Flow/internal/cli/repo/fs"
)

const authCookie = "auth_token"

// StatusError - ответ сервера с кодом 4xx/5xx.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server status %d", e.Code)
	}
	return fmt.Sprintf("server status %d: %s", e.Code, e.Message)
}

// IsStatus сообщает, что err - ответ сервера с данным кодом.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Client - HTTP-клиент API Flow. Токен передаётся cookie auth_token.
type Client struct {
	BaseURL string
	Tokens  repo.TokenStore
	HTTP    *http.Client
}

func NewClient(baseURL string, tokens repo.TokenStore) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Tokens:  tokens,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// newRequest собирает запрос с JSON-телом и cookie авторизации, если токен сохранён.
func (c *Client) newRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Tokens != nil {
		if token, err := c.Tokens.Load(); err == nil {
			req.AddCookie(&http.Cookie{Name: authCookie, Value: token})
		}
	}
	return req, nil
}

// Do отправляет JSON-запрос и декодирует ответ в out (если не nil).
func (c *Client) Do(ctx context.Context, method, path string, payload, out any) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return resp, &StatusError{Code: resp.StatusCode, Message: errorMessage(data)}
	}
	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp, nil
}

// errorMessage достаёт текст ошибки из {"error": ...} или тела как есть.
func errorMessage(data []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(data))
}

// Login входит (регистрирует) и сохраняет токен из cookie ответа.
func (c *Client) Login(ctx context.Context, login, password string) (int64, error) {
	var out struct {
		UserID int64 `json:"user_id"`
	}
	resp, err := c.Do(ctx, http.MethodPost, "/api/user/login", map[string]string{"login": login, "password": password}, &out)
	if err != nil {
		return 0, err
	}
	if err := PersistAuthFromResponse(resp, c.Tokens); err != nil {
		return 0, fmt.Errorf("saving auth: %w", err)
	}
	return out.UserID, nil
}

// Logout сбрасывает сессию на сервере и удаляет локальный токен.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.Do(ctx, http.MethodPost, "/api/user/logout", nil, nil)
	if clearErr := c.Tokens.Clear(); clearErr != nil {
		return clearErr
	}
	return err
}

// DeleteAccount удаляет аккаунт и локальный токен.
func (c *Client) DeleteAccount(ctx context.Context) error {
	if _, err := c.Do(ctx, http.MethodDelete, "/api/user", nil, nil); err != nil {
		return err
	}
	return c.Tokens.Clear()
}

// Summary - сводка записи в ответах списков.
type Summary struct {
	ID              int64   `json:"id"`
	Kind            string  `json:"kind"`
	Title           string  `json:"title"`
	Abstract        string  `json:"abstract"`
	LastEdited      string  `json:"last_edited"`
	Priority        int     `json:"priority"`
	EstimatedEffort int     `json:"estimated_effort"`
	DueDate         *string `json:"due_date"`
}

// Item - полная запись с телом.
type Item struct {
	Summary
	Body string `json:"body"`
}

// RankedTask - задача со счётом срочности.
type RankedTask struct {
	Summary
	Score float64 `json:"score"`
}

// Page - страница сводок.
type Page struct {
	Items   []Summary `json:"items"`
	HasMore bool      `json:"has_more"`
}

// Digest - уведомление о задачах.
type Digest struct {
	Title string   `json:"title"`
	Text  string   `json:"text"`
	Lines []string `json:"lines"`
}

// SaveRequest - создание (ID = 0) или обновление записи.
type SaveRequest struct {
	ID              int64  `json:"id,omitempty"`
	Kind            string `json:"kind"`
	Title           string `json:"title"`
	Body            string `json:"body"`
	Priority        int    `json:"priority,omitempty"`
	EstimatedEffort int    `json:"estimated_effort,omitempty"`
	DueDate         string `json:"due_date,omitempty"`
}

func (c *Client) List(ctx context.Context, kind, order string, page int) (Page, error) {
	q := url.Values{}
	q.Set("kind", kind)
	if order != "" {
		q.Set("order", order)
	}
	q.Set("page", strconv.Itoa(page))
	var p Page
	_, err := c.Do(ctx, http.MethodGet, "/api/items?"+q.Encode(), nil, &p)
	return p, err
}

// All читает всю выборку потоком NDJSON; сервер сам идёт по страницам.
func (c *Client) All(ctx context.Context, kind, order string) iter.Seq2[Summary, error] {
	return func(yield func(Summary, error) bool) {
		q := url.Values{}
		q.Set("kind", kind)
		if order != "" {
			q.Set("order", order)
		}
		req, err := c.newRequest(ctx, http.MethodGet, "/api/items/all?"+q.Encode(), nil)
		if err != nil {
			yield(Summary{}, err)
			return
		}
		resp, err := c.HTTP.Do(req)
		if err != nil {
			yield(Summary{}, err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusBadRequest {
			data, _ := io.ReadAll(resp.Body)
			yield(Summary{}, &StatusError{Code: resp.StatusCode, Message: errorMessage(data)})
			return
		}

		dec := json.NewDecoder(resp.Body)
		for {
			var s Summary
			err := dec.Decode(&s)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Summary{}, fmt.Errorf("decode stream: %w", err))
				return
			}
			if !yield(s, nil) {
				return
			}
		}
	}
}

func (c *Client) Count(ctx context.Context, kind string) (int64, error) {
	path := "/api/items/count"
	if kind != "" {
		path += "?kind=" + url.QueryEscape(kind)
	}
	var out struct {
		Count int64 `json:"count"`
	}
	_, err := c.Do(ctx, http.MethodGet, path, nil, &out)
	return out.Count, err
}

func (c *Client) Get(ctx context.Context, id int64) (Item, error) {
	var it Item
	_, err := c.Do(ctx, http.MethodGet, "/api/items/"+strconv.FormatInt(id, 10), nil, &it)
	return it, err
}

func (c *Client) Save(ctx context.Context, req SaveRequest) (int64, error) {
	var out struct {
		ID int64 `json:"id"`
	}
	_, err := c.Do(ctx, http.MethodPost, "/api/items", req, &out)
	return out.ID, err
}

func (c *Client) Delete(ctx context.Context, ids []int64) (int64, error) {
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	_, err := c.Do(ctx, http.MethodPost, "/api/items/delete", map[string][]int64{"ids": ids}, &out)
	return out.Deleted, err
}

func (c *Client) Ranked(ctx context.Context, limit int) ([]RankedTask, error) {
	var out []RankedTask
	_, err := c.Do(ctx, http.MethodGet, "/api/items/ranked?limit="+strconv.Itoa(limit), nil, &out)
	return out, err
}

func (c *Client) Overdue(ctx context.Context) ([]Summary, error) {
	var out []Summary
	_, err := c.Do(ctx, http.MethodGet, "/api/items/overdue", nil, &out)
	return out, err
}

func (c *Client) Digest(ctx context.Context, limit int) (Digest, error) {
	var d Digest
	_, err := c.Do(ctx, http.MethodGet, "/api/items/digest?limit="+strconv.Itoa(limit), nil, &d)
	return d, err
}

// PersistAuthFromResponse извлекает auth cookie из ответа и сохраняет его в store.
func PersistAuthFromResponse(resp *http.Response, store repo.TokenStore) error {
	for _, c := range resp.Cookies() {
		if c.Name == authCookie && c.Value != "" {
			return store.Save(c.Value)
		}
	}
	return fmt.Errorf("no auth cookie in response")
}

// NewFileClient - клиент с токеном в файле.
func NewFileClient(baseURL, tokenFile string) *Client {
	return NewClient(baseURL, fsrepo.TokenFile{Path: tokenFile})
}
