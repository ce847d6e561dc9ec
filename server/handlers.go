package server

import (
	"chat-sync/auth"
	"chat-sync/domain"
	"chat-sync/errors"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

const maxBodyBytes = 64 << 10

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type postMessageBody struct {
	Text string `json:"text"`
}

type authWire struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
	UserID      int64  `json:"user_id"`
}

type profileWire struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type messageWire struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type pageWire struct {
	Messages []messageWire `json:"messages"`
	Total    int           `json:"total"`
}

type errorWire struct {
	Error       string              `json:"error"`
	FieldErrors map[string][]string `json:"field_errors,omitempty"`
}

func toMessageWire(m domain.Message) messageWire {
	return messageWire{ID: m.ID, Username: m.Author, Text: m.Text, CreatedAt: m.CreatedAt}
}

func toAuthWire(grant domain.AuthGrant) authWire {
	return authWire{
		AccessToken: grant.Token,
		TokenType:   "Bearer",
		Username:    grant.Member.Username,
		UserID:      grant.Member.ID,
	}
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if !decode(w, r, &body) {
		return
	}
	grant, err := s.accounts.Register(body.Username, body.Password)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAuthWire(grant))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if !decode(w, r, &body) {
		return
	}
	grant, err := s.accounts.Login(body.Username, body.Password)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuthWire(grant))
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	p := memberFrom(r.Context()).Profile()
	writeJSON(w, http.StatusOK, profileWire{ID: p.ID, Username: p.Username, CreatedAt: p.CreatedAt})
}

// listMessages reads limit and offset from the query. Unparsable values fall
// back to the defaults.
func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	window := domain.Window{
		Limit:  intParam(query.Get("limit"), domain.DefaultLimit),
		Offset: intParam(query.Get("offset"), 0),
	}
	page, err := s.chat.GetMessages(window)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pageWire{
		Messages: lo.Map(page.Messages, func(m domain.Message, _ int) messageWire { return toMessageWire(m) }),
		Total:    page.Total,
	})
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	var body postMessageBody
	if !decode(w, r, &body) {
		return
	}
	if fields := auth.Validate(auth.PostMessageRequest{Text: strings.TrimSpace(body.Text)}); fields != nil {
		writeError(w, http.StatusBadRequest, "Validation error", fields)
		return
	}
	message, err := s.chat.PostMessage(memberFrom(r.Context()), body.Text)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMessageWire(message))
}

func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	var authErr *errors.AuthError
	switch {
	case stderrors.As(err, &authErr) && authErr.Kind == errors.AuthValidationFailed:
		writeError(w, http.StatusBadRequest, authErr.Message, authErr.FieldMessages)
	case stderrors.As(err, &authErr) && authErr.Kind == errors.AuthInvalidCredentials:
		writeError(w, http.StatusUnauthorized, authErr.Message, nil)
	case stderrors.Is(err, errors.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "Validation error", map[string][]string{"text": {"This field may not be blank."}})
	case stderrors.Is(err, errors.ErrMessageTooLong):
		writeError(w, http.StatusBadRequest, "Validation error", map[string][]string{"text": {"Ensure this field has no more than 1000 characters."}})
	default:
		s.log.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error.", nil)
	}
}

func decode(w http.ResponseWriter, r *http.Request, target any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body.", nil)
		return false
	}
	return true
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string, fields map[string][]string) {
	writeJSON(w, status, errorWire{Error: message, FieldErrors: fields})
}
