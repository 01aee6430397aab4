package ledger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInstance(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "simple", input: "default"},
		{name: "hyphens and digits", input: "bench-42"},
		{name: "single character", input: "x"},
		{name: "empty", input: "", wantErr: "cannot be empty"},
		{name: "uppercase", input: "Prod", wantErr: "must be lowercase"},
		{name: "leading hyphen", input: "-prod", wantErr: "not at start/end"},
		{name: "trailing hyphen", input: "prod-", wantErr: "not at start/end"},
		{name: "colon would break keys", input: "a:b", wantErr: "must be lowercase alphanumeric"},
		{name: "too long", input: strings.Repeat("a", MaxInstanceLength+1), wantErr: "too long"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateInstance(tc.input)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
