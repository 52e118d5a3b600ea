package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskPII(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"email", "login by dev@example.com failed", "login by [EMAIL] failed"},
		{"ipv4", "request from 192.168.1.10 denied", "request from [IP] denied"},
		{"linux home", "read /home/casey/.ssh/id_rsa", "read [USER_PATH]/.ssh/id_rsa"},
		{"macos home", "wrote /Users/casey/notes.txt", "wrote [USER_PATH]/notes.txt"},
		{"windows profile", `open C:\Users\casey\secrets.txt`, `open [USER_PATH]\secrets.txt`},
		{"bearer token", "header Bearer eyJhbGciOiJIUzI1NiJ9.abc", "header [TOKEN]"},
		{"password assignment", "password=hunter2 rejected", "password=[REDACTED] rejected"},
		{"api key assignment", "api_key: sk-live-123456", "api_key=[REDACTED]"},
		{"clean", "validated input for generate", "validated input for generate"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, maskPII(tc.in))
		})
	}
}

func TestMaskEventCopiesMetadata(t *testing.T) {
	original := Event{
		Message:  "token=abc123",
		Resource: "/home/casey/project",
		Metadata: map[string]string{"email": "a@b.co"},
	}

	masked := maskEvent(original)

	assert.Equal(t, "token=[REDACTED]", masked.Message)
	assert.Equal(t, "[USER_PATH]/project", masked.Resource)
	assert.Equal(t, "[EMAIL]", masked.Metadata["email"])
	// Original event untouched.
	assert.Equal(t, "a@b.co", original.Metadata["email"])
}
