package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Configuration (CFG) ----

func ErrRewardSettingMissing(category string) *AppError {
	return New("CFG_001", fmt.Sprintf("reward setting not configured for category %q", category), http.StatusInternalServerError)
}

func ErrInvalidRewardDate(date string) *AppError {
	return New("CFG_002", fmt.Sprintf("invalid reward date %q, expected YYYY-MM-DD", date), http.StatusBadRequest)
}

// ---- Reward Computation (RWD) ----

func ErrFeeLedgerLoad(err error) *AppError {
	return Wrap("RWD_001", "loading fee ledger failed", http.StatusInternalServerError, err)
}

func ErrCenterLoad(err error) *AppError {
	return Wrap("RWD_002", "loading center hierarchy failed", http.StatusInternalServerError, err)
}

func ErrRewardLedgerLoad(err error) *AppError {
	return Wrap("RWD_003", "loading reward ledger failed", http.StatusInternalServerError, err)
}

func ErrPayableWrite(err error) *AppError {
	return Wrap("RWD_004", "writing payable records failed", http.StatusInternalServerError, err)
}

// ---- Disbursement (XFER) ----

func ErrDisburseRunning(date string) *AppError {
	return New("XFER_001", fmt.Sprintf("a disbursement run for %s is already in progress", date), http.StatusConflict)
}

func ErrPayableLoad(err error) *AppError {
	return Wrap("XFER_002", "loading payable records failed", http.StatusInternalServerError, err)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("SYS_002", message, http.StatusBadRequest)
}
