package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"taskhub/internal/common"
	"taskhub/internal/models"
)

type APIResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    interface{}         `json:"data,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func JSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes a successful envelope.
func OK(w http.ResponseWriter, status int, message string, data interface{}) {
	JSON(w, status, APIResponse{Success: true, Message: message, Data: data})
}

// StatusOf maps a service error to its HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrDuplicateEmail),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrAlreadyVerified):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrAuthenticationFailed),
		errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error writes the failure envelope for err. Unexpected errors are logged and
// reported without detail.
func Error(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	status := StatusOf(err)
	resp := APIResponse{Success: false}

	var v *common.ValidationError
	switch {
	case errors.As(err, &v):
		resp.Message = common.ErrValidation.Error()
		resp.Errors = v.Fields
	case errors.Is(err, common.ErrDuplicateEmail):
		resp.Message = common.ErrValidation.Error()
		resp.Errors = map[string][]string{"email": {common.ErrDuplicateEmail.Error()}}
	case status == http.StatusInternalServerError:
		log.WithError(err).Error("request failed")
		resp.Message = "internal server error"
	default:
		resp.Message = sentinelMessage(err)
	}
	JSON(w, status, resp)
}

func sentinelMessage(err error) string {
	for _, s := range []error{
		common.ErrInvalidToken, common.ErrAlreadyVerified, common.ErrAuthenticationFailed,
		common.ErrUnauthorized, common.ErrForbidden, common.ErrNotFound,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return err.Error()
}

// DecodeJSON reads the request body into v. An empty body leaves v untouched.
func DecodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return common.FieldError(common.NonFieldErrors, "Invalid request body: "+err.Error())
}

// PageRequest reads the page and page_size query parameters.
func PageRequest(r *http.Request) (models.PageRequest, error) {
	q := r.URL.Query()
	v := common.NewValidationError()
	var p models.PageRequest
	for _, f := range []struct {
		name string
		dst  *int
	}{{"page", &p.Page}, {"page_size", &p.PageSize}} {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			v.Add(f.name, "A valid positive integer is required.")
			continue
		}
		*f.dst = n
	}
	if err := v.OrNil(); err != nil {
		return models.PageRequest{}, err
	}
	return p.Normalize(), nil
}
