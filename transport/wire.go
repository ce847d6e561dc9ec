package transport

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type postMessageBody struct {
	Text string `json:"text"`
}

// authResponse accepts both "access_token" and the shorter "token".
type authResponse struct {
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
	Username    string `json:"username"`
}

func (a authResponse) token() string {
	if a.AccessToken != "" {
		return a.AccessToken
	}
	return a.Token
}

type errorWire struct {
	Error       string              `json:"error"`
	Detail      string              `json:"detail"`
	FieldErrors map[string][]string `json:"field_errors"`
}

func (e errorWire) message(status int) string {
	switch {
	case e.Error != "":
		return e.Error
	case e.Detail != "":
		return e.Detail
	default:
		return http.StatusText(status)
	}
}

type profileWire struct {
	ID        int64     `json:"id" validate:"gt=0"`
	Username  string    `json:"username" validate:"required"`
	CreatedAt time.Time `json:"created_at" validate:"required"`
}

func (p profileWire) toProfile() domain.Profile {
	return domain.Profile{ID: p.ID, Username: p.Username, CreatedAt: p.CreatedAt}
}

type messageWire struct {
	ID        int64     `json:"id" validate:"gt=0"`
	Username  string    `json:"username" validate:"required"`
	Text      string    `json:"text" validate:"required,max=1000"`
	CreatedAt time.Time `json:"created_at" validate:"required"`
}

func (m messageWire) toMessage() domain.Message {
	return domain.Message{ID: m.ID, Author: m.Username, Text: m.Text, CreatedAt: m.CreatedAt}
}

type pageWire struct {
	Messages []messageWire `json:"messages" validate:"dive"`
	Total    int           `json:"total" validate:"min=0"`
}

func (p pageWire) toPage() domain.Page {
	return domain.Page{
		Messages: lo.Map(p.Messages, func(m messageWire, _ int) domain.Message { return m.toMessage() }),
		Total:    p.Total,
	}
}

// decodeValid turns an undecodable or invalid success payload into a
// Malformed feed error.
func decodeValid(body []byte, target any) error {
	if err := json.Unmarshal(body, target); err != nil {
		return errors.Malformed("undecodable payload", err)
	}
	if err := validate.Struct(target); err != nil {
		return errors.Malformed("invalid payload", err)
	}
	return nil
}
