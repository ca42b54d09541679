package imapx

import (
	"errors"
	"fmt"
	"io"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection reset errno", syscall.ECONNRESET, true},
		{"connection refused errno", syscall.ECONNREFUSED, true},
		{"eof", io.EOF, true},
		{"wrapped eof", fmt.Errorf("fetch: %w", io.ErrUnexpectedEOF), true},
		{"not connected", ErrNotConnected, true},
		{"timeout text", errors.New("i/o timeout"), true},
		{"socket closed text", errors.New("imap: socket closed unexpectedly"), true},
		{"closed network connection text", errors.New("use of closed network connection"), true},
		{"auth failure", errors.New("LOGIN failed: invalid credentials"), false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
