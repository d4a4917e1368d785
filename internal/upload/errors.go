package upload

import (
	"errors"
	"fmt"
	"strings"
)

// Failure reasons surfaced to callers. Each maps to distinct user guidance; the UI
// keys off the reason string, so these are part of the contract.
const (
	ReasonAuthorizeFailed = "authorize failed"
	ReasonTransferNetwork = "transfer failed: network"
	ReasonTransferAborted = "transfer aborted"
	ReasonRegisterFailed  = "register failed"
)

// TransferStatusReason is the reason for a transfer that got a non-success status.
func TransferStatusReason(status int) string {
	return fmt.Sprintf("transfer failed: %d", status)
}

// Error is a pipeline failure with a stable reason and, for network failures, a
// flag for cross-origin misconfiguration on the storage bucket.
type Error struct {
	Reason string
	CORS   bool
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

// corsSubstrings are the known markers of a bucket CORS misconfiguration in
// transport error text.
var corsSubstrings = []string{
	"cors",
	"access-control-allow-origin",
	"preflight",
	"cross-origin",
}

func corsLikely(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range corsSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// UserMessage translates a pipeline failure into actionable guidance.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "upload failed, please try again"
	}
	switch {
	case e.Reason == ReasonAuthorizeFailed:
		return "could not prepare the upload, please try again"
	case e.Reason == ReasonTransferAborted:
		return "upload cancelled"
	case e.Reason == ReasonTransferNetwork && e.CORS:
		return "upload blocked by the storage bucket's cross-origin policy; check the bucket CORS configuration"
	case e.Reason == ReasonTransferNetwork:
		return "network error while uploading, check your connection and try again"
	case e.Reason == ReasonRegisterFailed:
		return "the file was uploaded but could not be registered, please retry the upload"
	default:
		return "upload failed (" + e.Reason + ")"
	}
}
