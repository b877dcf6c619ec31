package engine

import (
	"fmt"

	"github.com/novaclob/matching-engine/internal/engine/model"
)

// RejectError carries one of the closed taxonomy of reject reasons
// (spec §7) plus a human-readable detail. The Symbol Engine returns it
// to the caller as the command's error; it is never a panic.
type RejectError struct {
	Kind    model.ErrorKind
	Message string
}

func (e *RejectError) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func reject(kind model.ErrorKind, format string, args ...any) *RejectError {
	return &RejectError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// asReject unwraps err into its RejectError, if it is one.
func asReject(err error) (*RejectError, bool) {
	re, ok := err.(*RejectError)
	return re, ok
}
