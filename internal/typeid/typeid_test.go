package typeid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIDs(t *testing.T) {
	tests := []struct {
		prefix string
		gen    func() string
	}{
		{PrefixProgram, NewProgramID},
		{PrefixSession, NewSessionID},
		{PrefixToken, NewTokenID},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			id := tt.gen()
			assert.True(t, strings.HasPrefix(id, tt.prefix+"_"), id)
			assert.NoError(t, Validate(id, tt.prefix))
			assert.NotEqual(t, id, tt.gen())
		})
	}
}

func TestValidateRejects(t *testing.T) {
	assert.Error(t, Validate(NewProgramID(), PrefixSession))
	assert.Error(t, Validate("not-an-id", PrefixProgram))
}
