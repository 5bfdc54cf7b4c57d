package operation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name      string
		succeeded int
		failed    int
		want      Status
	}{
		{"empty", 0, 0, StatusEmpty},
		{"all succeeded", 10, 0, StatusSucceeded},
		{"all failed", 0, 10, StatusFailed},
		{"mixed", 7, 3, StatusPartial},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.succeeded, tt.failed))
		})
	}
}
