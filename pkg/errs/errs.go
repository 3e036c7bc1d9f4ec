package errs

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type Kind uint8

const (
	KindInternal Kind = iota + 1
	KindBadRequest
	KindNotFound
	KindUnprocessableEntity
	KindMethodNotAllowed
)

const (
	msgInternal            = "Internal Server Error"
	msgDatabase            = "Database Error"
	msgParameter           = "Parameter Error"
	msgBadRequest          = "Bad Request"
	msgNotFound            = "Not Found"
	msgUnprocessableEntity = "Unprocessable Entity"
	msgMethodNotAllowed    = "Method Not Allowed"
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "InternalError"
	case KindBadRequest:
		return "BadRequest"
	case KindNotFound:
		return "NotFound"
	case KindUnprocessableEntity:
		return "UnprocessableEntity"
	case KindMethodNotAllowed:
		return "MethodNotAllowed"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// StatusCode is the HTTP status assigned to the kind.
func (k Kind) StatusCode() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnprocessableEntity:
		return http.StatusUnprocessableEntity
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the only error shape that crosses the HTTP boundary.
// Message is returned to the client; Err carries the detail that is
// logged for KindInternal and discarded for every other kind.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) StatusCode() int { return e.Kind.StatusCode() }

// Body is the JSON payload of every non-2xx response.
type Body struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Body() Body {
	return Body{Code: e.StatusCode(), Message: e.Message}
}

func newAppError(kind Kind, msg, def string, err error) *AppError {
	if msg == "" {
		msg = def
	}
	return &AppError{Kind: kind, Message: msg, Err: err}
}

func Internal(msg string, err error) *AppError {
	return newAppError(KindInternal, msg, msgInternal, err)
}

func BadRequest(msg string) *AppError {
	return newAppError(KindBadRequest, msg, msgBadRequest, nil)
}

func NotFound(msg string) *AppError {
	return newAppError(KindNotFound, msg, msgNotFound, nil)
}

func UnprocessableEntity(msg string) *AppError {
	return newAppError(KindUnprocessableEntity, msg, msgUnprocessableEntity, nil)
}

func MethodNotAllowed() *AppError {
	return newAppError(KindMethodNotAllowed, "", msgMethodNotAllowed, nil)
}

// Parameter reports a caller-supplied number that does not fit the
// store's integer width.
func Parameter(err error) *AppError {
	return &AppError{Kind: KindBadRequest, Message: msgParameter, Err: err}
}

// Database wraps a store failure. The client sees a content-free message;
// the SQLSTATE name, when available, is kept for the log.
func Database(op string, err error) *AppError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		name := pgerrcode.Name(pgErr.Code)
		if name == "" {
			name = pgErr.Code
		}
		err = errors.Wrapf(err, "%s [%s]", op, name)
	} else {
		err = errors.Wrap(err, op)
	}
	return &AppError{Kind: KindInternal, Message: msgDatabase, Err: err}
}

// Validation serializes validator failures as {"field":"rule"}.
func Validation(verrs validator.ValidationErrors) *AppError {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[fe.Field()] = rule
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return BadRequest(verrs.Error())
	}
	return BadRequest(string(data))
}

// From maps any error into the taxonomy. It is the single place where
// an underlying failure is given a kind and therefore a status code.
func From(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return Parameter(err)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return Validation(verrs)
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return fromHTTPError(he)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) || errors.Is(err, pgx.ErrNoRows) || pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return Database("store", err)
	}

	return Internal("", err)
}

func fromHTTPError(he *echo.HTTPError) *AppError {
	switch {
	case he.Code == http.StatusMethodNotAllowed:
		return MethodNotAllowed()
	case he.Code == http.StatusNotFound:
		return NotFound(httpMessage(he, msgNotFound))
	case he.Code == http.StatusUnprocessableEntity:
		return UnprocessableEntity(httpMessage(he, msgUnprocessableEntity))
	case he.Code >= http.StatusInternalServerError:
		return Internal("", he)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(he.Internal, &typeErr) {
		return UnprocessableEntity(fmt.Sprintf("Failed to deserialize the JSON body: field %q expects %s", typeErr.Field, typeErr.Type))
	}
	var numErr *strconv.NumError
	if errors.As(he.Internal, &numErr) {
		return Parameter(he)
	}
	return BadRequest(httpMessage(he, msgBadRequest))
}

func httpMessage(he *echo.HTTPError, def string) string {
	switch m := he.Message.(type) {
	case string:
		if m != "" {
			return m
		}
	case error:
		return m.Error()
	case fmt.Stringer:
		return m.String()
	}
	return def
}
