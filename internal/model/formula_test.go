package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerm_UnmarshalExtended(t *testing.T) {
	var f Formula
	err := json.Unmarshal([]byte(`[{"type":"group","id":3,"coefficient":-1}]`), &f)
	require.NoError(t, err)
	require.Len(t, f, 1)
	assert.Equal(t, KindGroup, f[0].Kind)
	assert.Equal(t, 3, f[0].ID)
	assert.True(t, f[0].Coefficient.Equal(decimal.NewFromInt(-1)))
}

func TestTerm_UnmarshalLegacyAccountOnly(t *testing.T) {
	var f Formula
	err := json.Unmarshal([]byte(`[{"account_id":7,"coefficient":2.5}]`), &f)
	require.NoError(t, err)
	require.Len(t, f, 1)
	assert.Equal(t, KindAccount, f[0].Kind)
	assert.Equal(t, 7, f[0].ID)
	assert.True(t, f[0].Coefficient.Equal(decimal.RequireFromString("2.5")))
}

func TestTerm_UnmarshalMissingKindDefaultsToAccount(t *testing.T) {
	var term Term
	err := json.Unmarshal([]byte(`{"id":9,"coefficient":1}`), &term)
	require.NoError(t, err)
	assert.Equal(t, KindAccount, term.Kind)
}

func TestTerm_UnmarshalUnknownKind(t *testing.T) {
	var term Term
	err := json.Unmarshal([]byte(`{"type":"dashboard","id":1,"coefficient":1}`), &term)
	assert.Error(t, err)
}

func TestTerm_UnmarshalNoTarget(t *testing.T) {
	var term Term
	err := json.Unmarshal([]byte(`{"coefficient":1}`), &term)
	assert.Error(t, err)
}

func TestTerm_MarshalWritesExtendedShape(t *testing.T) {
	f := Formula{{Kind: KindInstitution, ID: 4, Coefficient: decimal.NewFromInt(1)}}
	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"institution","id":4,"coefficient":"1"}]`, string(data))

	var back Formula
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, KindInstitution, back[0].Kind)
	assert.Equal(t, 4, back[0].ID)
}
