package transfers

import (
	"errors"
	"fmt"
)

type Code string

// 共通エラーコード（必要に応じて追加）
const (
	CodeInvalidArgument  Code = "INVALID_ARGUMENT"
	CodeNotFound         Code = "NOT_FOUND"
	CodeConflict         Code = "CONFLICT"
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeInternal         Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	// 入力エラーの場合、どのフィールドが原因か
	Field string `json:"field,omitempty"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

// ErrValidation: ステップ境界で弾く入力エラー（フィールド付き）
func ErrValidation(field, msg string) *APIError {
	return &APIError{Code: CodeInvalidArgument, Message: msg, Field: field}
}

// ErrPermissionDenied: 拠点スコープ外からの振替をブロックする
func ErrPermissionDenied(msg string) *APIError {
	return &APIError{Code: CodePermissionDenied, Message: msg}
}

func ToHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodePermissionDenied:
			return 403
		case CodeNotFound:
			return 404
		case CodeConflict:
			return 409
		default:
			return 500
		}
	}
	return 500
}
