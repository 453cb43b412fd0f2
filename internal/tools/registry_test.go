package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullHandlerMap() map[string]Handler {
	noop := func(_ context.Context, _ json.RawMessage) Result { return base{OK: true} }
	m := map[string]Handler{}
	for _, spec := range Declared {
		m[spec.Name] = noop
	}
	return m
}

func TestRegistryCoversEveryDeclaredTool(t *testing.T) {
	reg, err := newRegistry(fullHandlerMap(), nil)
	require.NoError(t, err)

	for _, spec := range Declared {
		assert.True(t, reg.Known(spec.Name), spec.Name)
	}
	assert.False(t, reg.Known("transferToHuman"))
}

func TestRegistryRejectsMissingHandler(t *testing.T) {
	m := fullHandlerMap()
	delete(m, ToolCancelAppointment)

	_, err := newRegistry(m, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ToolCancelAppointment)
}

func TestRegistryRejectsUndeclaredHandler(t *testing.T) {
	m := fullHandlerMap()
	m["transferToHuman"] = m[ToolListSpecialties]

	_, err := newRegistry(m, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transferToHuman")
}

func TestDispatchUnknownToolErrors(t *testing.T) {
	reg, err := newRegistry(fullHandlerMap(), nil)
	require.NoError(t, err)

	_, err = reg.Dispatch(context.Background(), "transferToHuman", nil)
	assert.Error(t, err)
}

func TestDispatchRunsHandler(t *testing.T) {
	m := fullHandlerMap()
	called := false
	m[ToolListSpecialties] = func(_ context.Context, _ json.RawMessage) Result {
		called = true
		return ListSpecialtiesResult{base: base{OK: true}, Specialties: []string{"Cardiologia"}}
	}

	reg, err := newRegistry(m, nil)
	require.NoError(t, err)

	res, err := reg.Dispatch(context.Background(), ToolListSpecialties, nil)
	require.NoError(t, err)
	assert.True(t, called)
	assert.True(t, res.IsOK())
}
