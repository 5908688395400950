// sessiond - локальная замена удалённого хранилища заявок для разработки.
// Держит записи в памяти и реализует тот же REST-контракт, что и боевое
// хранилище, включая 409 на решениях по не-pending записям.
package main

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mentorhub/mentor_sessions/internal/app"
	"github.com/mentorhub/mentor_sessions/internal/model"
	"go.uber.org/zap"
)

type store struct {
	mu       sync.RWMutex
	sessions map[string]*model.SessionRequest
	logger   *zap.Logger
}

func main() {
	logger := app.NewLogger(os.Getenv("ENV"))
	defer logger.Sync()

	addr := os.Getenv("SESSIOND_ADDR")
	if addr == "" {
		addr = ":8095"
	}

	s := &store{
		sessions: make(map[string]*model.SessionRequest),
		logger:   logger,
	}

	r := mux.NewRouter()
	r.HandleFunc("/sessions", s.createSession).Methods("POST")
	r.HandleFunc("/sessions/{id}", s.getSession).Methods("GET")
	r.HandleFunc("/sessions/{id}/status", s.updateStatus).Methods("PUT")
	r.HandleFunc("/sessions/{id}/meeting", s.updateMeeting).Methods("PUT")

	logger.Info("sessiond listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("sessiond: %v", err)
	}
}

type createRequest struct {
	MentorID        int64   `json:"mentorId"`
	MenteeID        int64   `json:"menteeId"`
	Date            string  `json:"date"`
	Time            string  `json:"time"`
	DurationMinutes int     `json:"durationMinutes"`
	Topic           string  `json:"topic"`
	Fee             float64 `json:"fee"`
}

type statusRequest struct {
	Status    model.SessionStatus `json:"status"`
	ActorID   int64               `json:"actorId"`
	ActorRole string              `json:"actorRole"`
}

type meetingRequest struct {
	URL      string `json:"url"`
	Provider string `json:"provider"`
}

func (s *store) createSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !decodeStrict(w, r, &req) {
		return
	}

	switch {
	case req.MentorID <= 0:
		writeError(w, http.StatusBadRequest, "mentorId", "mentorId must be positive")
		return
	case req.MenteeID <= 0:
		writeError(w, http.StatusBadRequest, "menteeId", "menteeId must be positive")
		return
	case req.MentorID == req.MenteeID:
		writeError(w, http.StatusBadRequest, "menteeId", "mentor and mentee must differ")
		return
	case req.Date == "" || req.Time == "":
		writeError(w, http.StatusBadRequest, "date", "date and time are required")
		return
	}

	session := &model.SessionRequest{
		ID:              uuid.NewString(),
		MentorID:        req.MentorID,
		MenteeID:        req.MenteeID,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
		Topic:           req.Topic,
		Fee:             req.Fee,
		Status:          model.SessionStatusPending,
		RequestedAt:     time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.Info("Session created", zap.String("session_id", session.ID))
	writeJSON(w, http.StatusCreated, session)
}

func (s *store) getSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		writeError(w, http.StatusNotFound, "id", "session not found")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *store) updateStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req statusRequest
	if !decodeStrict(w, r, &req) {
		return
	}

	if req.Status != model.SessionStatusConfirmed &&
		req.Status != model.SessionStatusRejected &&
		req.Status != model.SessionStatusCancelled {
		writeError(w, http.StatusBadRequest, "status", "unsupported status")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		writeError(w, http.StatusNotFound, "id", "session not found")
		return
	}

	// Конечный статус неизменяем
	if !session.CanTransition(req.Status) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"error":  "session is not pending",
			"status": string(session.Status),
		})
		return
	}

	now := time.Now().UTC()
	session.Status = req.Status
	session.DecidedAt = &now

	s.logger.Info("Session status updated",
		zap.String("session_id", id),
		zap.String("status", string(req.Status)),
		zap.Int64("actor_id", req.ActorID),
		zap.String("actor_role", req.ActorRole),
	)
	writeJSON(w, http.StatusOK, session)
}

func (s *store) updateMeeting(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req meetingRequest
	if !decodeStrict(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url", "url is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		writeError(w, http.StatusNotFound, "id", "session not found")
		return
	}

	// Встреча прикрепляется только к подтверждённой записи
	if session.Status != model.SessionStatusConfirmed {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"error":  "session is not confirmed",
			"status": string(session.Status),
		})
		return
	}

	session.Meeting = &model.MeetingInfo{
		URL:       req.URL,
		Provider:  req.Provider,
		CreatedAt: time.Now().UTC(),
	}

	writeJSON(w, http.StatusOK, session)
}

// decodeStrict декодирует тело, отвергая неизвестные поля так же, как боевое
// хранилище: 400 с именем поля в ответе
func decodeStrict(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		field := unknownField(err)
		if field != "" {
			writeError(w, http.StatusBadRequest, field, "unknown field "+field)
		} else {
			writeError(w, http.StatusBadRequest, "", "invalid request body")
		}
		return false
	}
	return true
}

// unknownField достаёт имя поля из ошибки json-декодера
func unknownField(err error) string {
	const marker = `unknown field "`
	msg := err.Error()
	i := strings.Index(msg, marker)
	if i < 0 {
		return ""
	}
	rest := msg[i+len(marker):]
	if j := strings.IndexByte(rest, '"'); j >= 0 {
		return rest[:j]
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		http.Error(w, "encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, field, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"field": field,
	})
}
