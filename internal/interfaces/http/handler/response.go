package handler

import "github.com/servicebook/backend/internal/interfaces/http/dto"

// APIResponse documents the envelope every endpoint writes. T is the payload
// type swag renders for Data.
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse is the envelope for failures
// @Description Error envelope carrying an ERR_* code and message
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}
