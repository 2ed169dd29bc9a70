package patch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profilePatch struct {
	Name  Optional[string] `json:"name"`
	Phone Optional[string] `json:"phone"`
	Admin Optional[bool]   `json:"is_admin"`
}

func TestOptional_TaggedPresence(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		nameSet   bool
		phoneSet  bool
		phoneNull bool
	}{
		{"absent fields", `{}`, false, false, false},
		{"value", `{"name":"Ann"}`, true, false, false},
		{"explicit null", `{"phone":null}`, false, true, true},
		{"empty string is a value", `{"phone":""}`, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p profilePatch
			require.NoError(t, json.Unmarshal([]byte(tt.body), &p))

			assert.Equal(t, tt.nameSet, p.Name.Set)
			assert.Equal(t, tt.phoneSet, p.Phone.Set)
			assert.Equal(t, tt.phoneNull, p.Phone.Null)
		})
	}
}

func TestOptional_TypeMismatch(t *testing.T) {
	var p profilePatch
	err := json.Unmarshal([]byte(`{"is_admin":"yes"}`), &p)
	assert.Error(t, err)
}

func TestOptional_Helpers(t *testing.T) {
	some := Some("x")
	assert.True(t, some.HasValue())
	require.NotNil(t, some.Ptr())
	assert.Equal(t, "x", *some.Ptr())

	null := Null[string]()
	assert.True(t, null.Set)
	assert.False(t, null.HasValue())
	assert.Nil(t, null.Ptr())

	data, err := json.Marshal(struct {
		A Optional[int] `json:"a"`
		B Optional[int] `json:"b"`
	}{A: Some(3)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":3,"b":null}`, string(data))
}
