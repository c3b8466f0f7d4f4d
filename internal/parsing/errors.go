package parsing

import (
	"context"
	"errors"
	"net"
	"net/url"
)

// User-facing failure messages. The triage is deliberately coarse — three
// fixed strings — so error text stays predictable across the UI.
const (
	MsgTimeout = "parsing timed out, please try again"
	MsgNetwork = "network error, please check your connection and try again"
	MsgGeneric = "parsing failed, please try again"
)

// MsgRejected marks a parse the user discarded. A rejected parse terminates
// as completed (the attempt ran to its end); this message is what tells a
// Status or event consumer the blocks were thrown away, not applied.
const MsgRejected = "rejected"

// ErrParseInProgress is returned when a parse is submitted for an insertion
// point that already has a live placeholder.
var ErrParseInProgress = errors.New("a parse is already in progress at this position")

// ErrUnknownParse is returned for operations on a parse ID the manager does
// not track.
var ErrUnknownParse = errors.New("unknown parse id")

// ErrWrongStage is returned when confirm/reject/retry is called in a stage
// that does not allow it.
var ErrWrongStage = errors.New("operation not allowed in current stage")

// ClassifyError triages a pipeline failure into one of the three
// user-facing messages: timeout, network, or generic.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return MsgTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return MsgTimeout
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return MsgNetwork
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return MsgNetwork
	}
	return MsgGeneric
}
