package imapx

import (
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
)

// Error texts that only surface as strings. Some transports wrap the real
// cause beyond recognition, so a text heuristic stays as the fallback
// classifier.
var transientTexts = []string{
	"timeout",
	"timed out",
	"connection reset",
	"connection refused",
	"socket closed",
	"use of closed network connection",
	"broken pipe",
	"unexpected eof",
}

// IsTransient reports whether an error is a connection-level failure that a
// fresh connection can recover from. Transient errors must make the caller
// discard its cached connection; they are not fatal to the account.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, ErrNotConnected) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, text := range transientTexts {
		if strings.Contains(msg, text) {
			return true
		}
	}
	return false
}
