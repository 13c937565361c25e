package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmail(t *testing.T) {
	t.Parallel()

	e, err := ParseEmail("  Momo@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, Email("momo@example.com"), e)

	e, err = ParseEmail("")
	require.NoError(t, err)
	assert.True(t, e.IsZero())

	for _, bad := range []string{"momo", "momo@", "a b@example.com"} {
		_, err = ParseEmail(bad)
		assert.Error(t, err, bad)
	}
}

func TestEmailUnmarshalJSON(t *testing.T) {
	t.Parallel()

	var u NewUser
	require.NoError(t, json.Unmarshal([]byte(`{"username":"momo","email":"MOMO@example.com"}`), &u))
	assert.Equal(t, Email("momo@example.com"), u.Email)

	require.NoError(t, json.Unmarshal([]byte(`{"username":"momo","email":null}`), &u))
	assert.True(t, u.Email.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"email":"not-an-address"}`), &u))
	assert.Error(t, json.Unmarshal([]byte(`{"email":42}`), &u))
}
