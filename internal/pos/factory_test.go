package pos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAdapterUnsupportedSystem(t *testing.T) {
	_, err := NewAdapter(Config{SystemID: "square"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedSystem)
	assert.Contains(t, err.Error(), "square")
}

func TestNewAdapterCaspit(t *testing.T) {
	a, err := NewAdapter(Config{SystemID: SystemCaspit, Credentials: map[string]string{
		"user": "u", "password": "p", "osek_morshe": "123456789",
	}})
	require.NoError(t, err)
	assert.Equal(t, SystemCaspit, a.SystemID())

	// Caspit supports expense documents.
	_, ok := a.(ExpenseCreator)
	assert.True(t, ok)
}

func TestNewAdapterICount(t *testing.T) {
	a, err := NewAdapter(Config{SystemID: SystemICount, Credentials: map[string]string{
		"cid": "company", "user": "u", "password": "p",
	}})
	require.NoError(t, err)
	assert.Equal(t, SystemICount, a.SystemID())

	// iCount only syncs entities, never expense documents.
	_, ok := a.(ExpenseCreator)
	assert.False(t, ok)
}
