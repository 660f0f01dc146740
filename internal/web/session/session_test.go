package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWrite(t *testing.T) {
	Init(nil)

	id, err := GenerateSessionID()
	require.NoError(t, err)
	assert.Len(t, id, 64)

	var missing Data
	require.ErrorIs(t, missing.Read(id), ErrSessionNotFound)

	data := Data{User: User{ID: 7, Username: "admin"}}
	require.NoError(t, data.Write(id, time.Minute))

	var got Data
	require.NoError(t, got.Read(id))
	assert.Equal(t, data, got)

	require.NoError(t, Delete(id))
	require.ErrorIs(t, got.Read(id), ErrSessionNotFound)
}
