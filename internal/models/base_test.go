package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestULID_ParseRoundtrip(t *testing.T) {
	id := NewULID()
	assert.False(t, id.IsZero())
	assert.NotEqual(t, id, NewULID())
	assert.Len(t, id.String(), 26)

	parsed, err := ParseULID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseULID("not-a-ulid")
	assert.ErrorContains(t, err, "invalid ULID")
	assert.Panics(t, func() { MustParseULID("") })
}

func TestULID_ValueAndScan(t *testing.T) {
	var zero ULID
	val, err := zero.Value()
	require.NoError(t, err)
	assert.Nil(t, val)

	id := NewULID()
	val, err = id.Value()
	require.NoError(t, err)
	assert.Equal(t, id.String(), val)

	tests := []struct {
		name    string
		input   any
		want    ULID
		wantErr bool
	}{
		{"nil", nil, ULID{}, false},
		{"string", id.String(), id, false},
		{"bytes", []byte(id.String()), id, false},
		{"empty string", "", ULID{}, false},
		{"bad string", "bad", ULID{}, true},
		{"int", 42, ULID{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u ULID
			err := u.Scan(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, u)
		})
	}
}

func TestULID_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		ID ULID `json:"id"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":""}`, string(data))

	id := NewULID()
	data, err = json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"`+id.String()+`"`, string(data))

	var parsed ULID
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, id, parsed)

	require.NoError(t, json.Unmarshal([]byte(`""`), &parsed))
	assert.True(t, parsed.IsZero())
	assert.Error(t, json.Unmarshal([]byte(`"not-a-ulid"`), &parsed))
}

func TestNow_IsUTCMicroseconds(t *testing.T) {
	now := Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.Zero(t, now.Nanosecond()%1000)
}

func TestBaseModel_BeforeCreate(t *testing.T) {
	var b BaseModel
	require.NoError(t, b.BeforeCreate(nil))
	assert.False(t, b.ID.IsZero())

	id := b.ID
	require.NoError(t, b.BeforeCreate(nil))
	assert.Equal(t, id, b.ID)
}
