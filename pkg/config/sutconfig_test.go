package config_test

import (
	"strings"
	"testing"

	"github.com/jihwankim/faultsched/pkg/config"
	"github.com/stretchr/testify/require"
)

const validDoc = `{
  "system_name": "demo",
  "fault_module": "demo_faults.py",
  "components": [
    {
      "id": "c1",
      "active": true,
      "targets": ["t1"],
      "operable_events": [
        {"id": "e1", "fault": "kill", "a_model": "singular"}
      ]
    },
    {
      "id": "c2",
      "active": false,
      "targets": []
    }
  ]
}`

func TestLoad_ValidDocumentAppliesDefaultsAndDropsInactive(t *testing.T) {
	doc, err := config.Load("-", strings.NewReader(validDoc))
	require.NoError(t, err)

	require.Equal(t, "demo", doc.SystemName)
	require.Equal(t, "demo_faults", doc.FaultModule) // ".py" suffix stripped
	require.Len(t, doc.Components, 1)                // inactive c2 dropped

	e := doc.Components[0].OperableEvents[0]
	require.Equal(t, "kill", e.Fault)
	require.Equal(t, 1, e.Instances)
	require.Equal(t, 1, e.MTTF)
	require.Equal(t, -1, e.EffectiveStart)
	require.Equal(t, -1, e.EffectiveEnd)
	require.Equal(t, "fixed", e.RandomWindowType)
}

func TestLoad_MissingSystemNameIsValidationError(t *testing.T) {
	_, err := config.Load("-", strings.NewReader(`{"fault_module":"m","components":[]}`))
	require.Error(t, err)
	var verr *config.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Error(), "system_name")
}

func TestLoad_EmptyTargetsForActiveComponentFails(t *testing.T) {
	doc := `{"system_name":"s","fault_module":"m","components":[
		{"id":"c1","active":true,"targets":[]}
	]}`
	_, err := config.Load("-", strings.NewReader(doc))
	require.Error(t, err)
	require.Contains(t, err.Error(), "targets")
}

func TestLoad_InvalidActivationModelFails(t *testing.T) {
	doc := `{"system_name":"s","fault_module":"m","components":[
		{"id":"c1","active":true,"targets":["t1"],"operable_events":[
			{"id":"e1","fault":"kill","a_model":"bogus"}
		]}
	]}`
	_, err := config.Load("-", strings.NewReader(doc))
	require.Error(t, err)
	require.Contains(t, err.Error(), "a_model")
}

func TestLoad_NegativeMTTFFails(t *testing.T) {
	doc := `{"system_name":"s","fault_module":"m","components":[
		{"id":"c1","active":true,"targets":["t1"],"operable_events":[
			{"id":"e1","fault":"kill","a_model":"recurring","p_model":"exponential","mttf":-1}
		]}
	]}`
	_, err := config.Load("-", strings.NewReader(doc))
	require.Error(t, err)
	require.Contains(t, err.Error(), "mttf")
}
