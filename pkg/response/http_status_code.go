package response

const (
	ErrCodeSuccess      = 4001 // Success
	ErrCodeParamInvalid = 4003 // Request body or parameter invalid

	ErrCodeUnauthorized = 4010
	ErrCodeForbidden    = 4030
	ErrCodeNotFound     = 4040
	ErrCodeConflict     = 4090
	ErrCodeRateLimited  = 4290

	ErrCodeInternal = 5000
)

// message
var msg = map[int]string{
	ErrCodeSuccess:      "success",
	ErrCodeParamInvalid: "invalid parameter",

	ErrCodeUnauthorized: "unauthorized",
	ErrCodeForbidden:    "not permitted",
	ErrCodeNotFound:     "not found",
	ErrCodeConflict:     "conflicts with the current plan state",
	ErrCodeRateLimited:  "rate limit exceeded",

	ErrCodeInternal: "internal server error",
}

// Msg returns the message registered for code
func Msg(code int) string {
	return msg[code]
}
