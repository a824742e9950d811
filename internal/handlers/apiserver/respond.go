package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"movie-social/internal/logger"
	"movie-social/internal/services"
	"movie-social/internal/storage"
)

// ErrorResponse 统一的错误响应体。
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Direction string `json:"direction,omitempty"`
}

// MessageResponse 简单的成功提示。
type MessageResponse struct {
	Message string `json:"message"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// writeJSONResponse 发送 JSON 响应。
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		// 头部已发送，编码失败无法再补救
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeJSONError 是一个辅助函数，用于发送 JSON 格式的错误响应。
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONResponse(w, statusCode, ErrorResponse{Error: message, Code: codeForStatus(statusCode)})
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_input"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusServiceUnavailable:
		return "store_unavailable"
	default:
		return "internal"
	}
}

// writeServiceError maps service errors onto HTTP responses.
func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error, fallback string) {
	var pending *services.PendingRequestError
	switch {
	case errors.As(err, &pending):
		writeJSONResponse(w, http.StatusConflict, ErrorResponse{
			Error:     pending.Error(),
			Code:      "request_pending",
			Direction: string(pending.Direction),
		})
	case errors.Is(err, services.ErrAlreadyFriends):
		writeJSONResponse(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "already_friends"})
	case errors.Is(err, services.ErrEpisodeExists):
		writeJSONResponse(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "episode_exists"})
	case errors.Is(err, services.ErrSelfRequest):
		writeJSONResponse(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "self_request"})
	case errors.Is(err, services.ErrInvalidInput):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrUnauthorized):
		writeJSONError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrStoreUnavailable):
		log.Error(fallback, zap.Error(err))
		writeJSONError(w, services.ErrStoreUnavailable.Error(), http.StatusServiceUnavailable)
	default:
		log.Error(fallback, zap.Error(err))
		writeJSONError(w, fallback, http.StatusInternalServerError)
	}
}

// pathID parses a positive numeric mux variable.
func pathID(r *http.Request, name string) (uint, bool) {
	id, err := storage.ParseID(mux.Vars(r)[name])
	if err != nil {
		return 0, false
	}
	return id, true
}

// decodeAndValidate reads a JSON body into v and runs struct validation.
func decodeAndValidate(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return validate.Struct(v)
}
