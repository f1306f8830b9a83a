package sandbox

import "fmt"

// ErrorKind is the taxonomy of sandbox failures (spec §7).
type ErrorKind string

const (
	KindSecurity   ErrorKind = "security"
	KindTimeout    ErrorKind = "timeout"
	KindMemory     ErrorKind = "memory"
	KindValidation ErrorKind = "validation"
)

// BotError is the typed error the sandbox returns for anything that is
// not a swallowed, non-fatal logic error inside bot code.
type BotError struct {
	Kind    ErrorKind
	Message string
}

func (e *BotError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func securityErr(format string, args ...any) *BotError {
	return &BotError{Kind: KindSecurity, Message: fmt.Sprintf(format, args...)}
}

func timeoutErr(format string, args ...any) *BotError {
	return &BotError{Kind: KindTimeout, Message: fmt.Sprintf(format, args...)}
}

func memoryErr(format string, args ...any) *BotError {
	return &BotError{Kind: KindMemory, Message: fmt.Sprintf(format, args...)}
}

func validationErr(format string, args ...any) *BotError {
	return &BotError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// IsFatal reports whether a sandbox error should disqualify the bot (as
// opposed to a swallowed in-bot logic error, which never reaches callers
// as an error at all).
func IsFatal(err error) bool {
	be, ok := err.(*BotError)
	return ok && (be.Kind == KindSecurity || be.Kind == KindTimeout || be.Kind == KindMemory)
}
