package entities

import (
	"testing"

	"canvas-backend/domain/core/valueobjects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConnectionValidation(t *testing.T) {
	a := valueobjects.NewElementID()
	b := valueobjects.NewElementID()

	conn, err := NewConnection(valueobjects.NewConnectionID(), a, b)
	require.NoError(t, err)
	assert.Equal(t, a, conn.From())
	assert.Equal(t, b, conn.To())

	_, err = NewConnection("", a, b)
	assert.Error(t, err)

	_, err = NewConnection(valueobjects.NewConnectionID(), "", b)
	assert.Error(t, err)

	_, err = NewConnection(valueobjects.NewConnectionID(), a, a)
	assert.Error(t, err, "self-connections are rejected")
}

func TestUndirectedKeySymmetric(t *testing.T) {
	a := valueobjects.ElementID("aaa")
	b := valueobjects.ElementID("bbb")

	assert.Equal(t, UndirectedKey(a, b), UndirectedKey(b, a))
	assert.NotEqual(t, UndirectedKey(a, b), UndirectedKey(a, valueobjects.ElementID("ccc")))
}

func TestConnectionTouches(t *testing.T) {
	a := valueobjects.NewElementID()
	b := valueobjects.NewElementID()
	conn, err := NewConnection(valueobjects.NewConnectionID(), a, b)
	require.NoError(t, err)

	assert.True(t, conn.Touches(a))
	assert.True(t, conn.Touches(b))
	assert.False(t, conn.Touches(valueobjects.NewElementID()))
}
