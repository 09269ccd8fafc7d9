package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// HTTPStatus 错误类别对应的响应码
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error 业务错误，Fields 只在校验错误时有值
type Error struct {
	Kind   Kind
	Msg    string
	Fields []string
}

func (e *Error) Error() string { return e.Msg }

// Is 同类别、同消息视为相同错误，方便 errors.Is(err, ErrNotMember)
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == e.Msg
}

func Validation(msg string, fields ...string) *Error {
	return &Error{Kind: KindValidation, Msg: msg, Fields: fields}
}

func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Msg: msg} }
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Msg: msg} }
func Forbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Msg: msg} }
func Conflict(msg string) *Error     { return &Error{Kind: KindConflict, Msg: msg} }

var (
	ErrUnauthorized         = Unauthorized("login required")
	ErrForbidden            = Forbidden("permission denied")
	ErrDuplicateName        = Conflict("community name already exists")
	ErrDuplicateRole        = Conflict("role name already exists in this community")
	ErrNotMember            = Forbidden("join the community first")
	ErrDuplicateApplication = Conflict("already applied to this position")
	ErrInvalidRole          = Validation("role does not belong to this community", "role_to_assign_id")
	ErrAlreadyAssigned      = Conflict("user already holds a role in this community")
	ErrCommunityNotFound    = NotFound("community not found")
	ErrMembershipNotFound   = NotFound("membership not found")
	ErrPositionNotFound     = NotFound("position not found")
	ErrApplicationNotFound  = NotFound("application not found")
	ErrRoleNotFound         = NotFound("role not found")
	ErrPostNotFound         = NotFound("post not found")
	ErrUserNotFound         = NotFound("user not found")
	ErrEventNotFound        = NotFound("event not found")
	ErrEventUnavailable     = NotFound("event not available")
	ErrEventFull            = Conflict("event is full")
	ErrRegistrationNotFound = NotFound("registration not found")
	ErrRequestNotFound      = NotFound("request not found")
	ErrRequestHandled       = Conflict("request already handled")
	ErrAlreadyConnected     = Conflict("already connected")
	ErrSelfRequest          = Validation("cannot send a request to yourself", "to_user_id")
	ErrThreadNotFound       = NotFound("thread not found")
)

// KindOf 非业务错误一律归为 internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// FieldsOf 取出校验错误的字段列表
func FieldsOf(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
