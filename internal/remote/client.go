package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mentorhub/mentor_sessions/internal/model"
	"go.uber.org/zap"
)

// DefaultTimeout дедлайн одного удалённого вызова
const DefaultTimeout = 10 * time.Second

// fieldAlternates альтернативные имена полей для однократного ретрая при SchemaError.
// Известные расхождения схемы между клиентом и хранилищем, см. комментарий к doJSON.
var fieldAlternates = map[string]string{
	"durationMinutes": "duration_minutes",
	"url":             "meeting_url",
	"provider":        "meeting_provider",
}

// Client клиент удалённого хранилища запросов на сессии.
// Каждый вызов идёт с таймаутом, ошибки классифицируются по типам из model.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

// NewClient создаёт клиент хранилища
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    timeout,
		logger:     logger,
	}
}

// remoteError тело ошибки удалённого хранилища
type remoteError struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Status string `json:"status,omitempty"` // текущий статус записи при 409
}

// CreateSession создаёт запрос на сессию в хранилище
func (c *Client) CreateSession(ctx context.Context, input CreateSessionInput) (*model.SessionRequest, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal create session: %w", err)
	}

	session, err := c.doJSON(ctx, http.MethodPost, "/sessions", body, http.StatusCreated)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Session request created",
		zap.String("session_id", session.ID),
		zap.Int64("mentor_id", input.MentorID),
		zap.Int64("mentee_id", input.MenteeID),
	)

	return session, nil
}

// GetSession получает текущее состояние записи
func (c *Client) GetSession(ctx context.Context, id string) (*model.SessionRequest, error) {
	return c.doJSON(ctx, http.MethodGet, "/sessions/"+id, nil, http.StatusOK)
}

// UpdateStatus обновляет статус записи.
// Хранилище отвечает 409, если запись уже не в pending_approval.
func (c *Client) UpdateStatus(ctx context.Context, id string, status model.SessionStatus, actorID int64, actorRole string) (*model.SessionRequest, error) {
	payload := map[string]interface{}{
		"status":    status,
		"actorId":   actorID,
		"actorRole": actorRole,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal update status: %w", err)
	}

	session, err := c.doJSON(ctx, http.MethodPut, "/sessions/"+id+"/status", body, http.StatusOK)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Session status updated",
		zap.String("session_id", id),
		zap.String("status", string(status)),
	)

	return session, nil
}

// UpdateMeeting прикрепляет данные встречи к подтверждённой записи
func (c *Client) UpdateMeeting(ctx context.Context, id string, meeting model.MeetingInfo) (*model.SessionRequest, error) {
	payload := map[string]interface{}{
		"url":      meeting.URL,
		"provider": meeting.Provider,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal update meeting: %w", err)
	}

	session, err := c.doJSON(ctx, http.MethodPut, "/sessions/"+id+"/meeting", body, http.StatusOK)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Session meeting attached",
		zap.String("session_id", id),
		zap.String("url", meeting.URL),
	)

	return session, nil
}

// doJSON выполняет один вызов хранилища с таймаутом и классификацией ошибок.
// При отказе из-за неизвестного имени поля делает ровно один ретрай
// с альтернативным именем из fieldAlternates, затем сдаётся.
func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, wantStatus int) (*model.SessionRequest, error) {
	session, rejected, err := c.doOnce(ctx, method, path, body, wantStatus)
	if err == nil {
		return session, nil
	}

	// Ретраим только отказ схемы и только если знаем альтернативное имя
	var schemaErr *model.SchemaError
	if !errors.As(err, &schemaErr) {
		return nil, err
	}
	alt, ok := fieldAlternates[rejected]
	if !ok || body == nil {
		return nil, err
	}

	c.logger.Warn("Remote rejected field, retrying with alternate name",
		zap.String("field", rejected),
		zap.String("alternate", alt),
		zap.String("path", path),
	)

	renamed, renameErr := renameField(body, rejected, alt)
	if renameErr != nil {
		return nil, err
	}

	session, _, retryErr := c.doOnce(ctx, method, path, renamed, wantStatus)
	if retryErr != nil {
		// Второй отказ всплывает как есть, больше не ретраим
		return nil, retryErr
	}
	return session, nil
}

// doOnce один вызов без ретраев; возвращает имя отвергнутого поля при отказе схемы
func (c *Client) doOnce(ctx context.Context, method, path string, body []byte, wantStatus int) (*model.SessionRequest, string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(callCtx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Таймаут и недоступность хранилища - транспортная ошибка, молча не ретраим
		return nil, "", &model.TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == wantStatus {
		var session model.SessionRequest
		if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
			return nil, "", fmt.Errorf("decode session: %w", err)
		}
		return &session, "", nil
	}

	rejected, classifyErr := c.classify(resp, method, path)
	return nil, rejected, classifyErr
}

// classify переводит не-успешный ответ хранилища в типизированную ошибку
func (c *Client) classify(resp *http.Response, method, path string) (string, error) {
	var remoteErr remoteError
	_ = json.NewDecoder(resp.Body).Decode(&remoteErr)

	switch {
	case resp.StatusCode == http.StatusConflict:
		// Запись уже не в pending_approval
		return "", &model.StateError{
			ID:     sessionIDFromPath(path),
			Op:     method + " " + path,
			Status: model.SessionStatus(remoteErr.Status),
		}

	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		if remoteErr.Field != "" && strings.Contains(strings.ToLower(remoteErr.Error), "unknown") {
			return remoteErr.Field, &model.SchemaError{
				Field: remoteErr.Field,
				Err:   errors.New(remoteErr.Error),
			}
		}
		return "", model.NewValidationError(remoteErr.Field, remoteErr.Error)

	case resp.StatusCode >= 500:
		return "", &model.TransportError{
			Op:  method + " " + path,
			Err: fmt.Errorf("remote returned %d", resp.StatusCode),
		}
	}

	return "", fmt.Errorf("remote returned unexpected status %d: %s", resp.StatusCode, remoteErr.Error)
}

// sessionIDFromPath достаёт ID записи из пути вида /sessions/{id}[/...]
func sessionIDFromPath(path string) string {
	rest := strings.TrimPrefix(path, "/sessions/")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// renameField переименовывает ключ в JSON-объекте тела запроса
func renameField(body []byte, from, to string) ([]byte, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal body for rename: %w", err)
	}
	value, ok := payload[from]
	if !ok {
		return nil, fmt.Errorf("field %q not in body", from)
	}
	delete(payload, from)
	payload[to] = value
	return json.Marshal(payload)
}
