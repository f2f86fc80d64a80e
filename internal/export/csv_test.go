package export

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally-dev/tally/internal/model"
)

func sampleAccounts() []model.Account {
	groupID := 10
	return []model.Account{
		{ID: 1, Name: "Checking", Info: "daily driver", Balance: decimal.RequireFromString("100.50"), GroupID: &groupID},
		{ID: 2, Name: "Net Cash", IsCalculated: true, Balance: decimal.Zero, Formula: model.Formula{
			{Kind: model.KindGroup, ID: 10, Coefficient: decimal.NewFromInt(1)},
			{Kind: model.KindAccount, ID: 1, Coefficient: decimal.NewFromInt(-1)},
		}},
	}
}

func TestAccounts_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, sampleAccounts()))

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Checking", got[0].Name)
	require.NotNil(t, got[0].GroupID)
	assert.Equal(t, 10, *got[0].GroupID)
	assert.True(t, got[0].Balance.Equal(decimal.RequireFromString("100.50")))

	require.True(t, got[1].IsCalculated)
	require.Len(t, got[1].Formula, 2)
	assert.Equal(t, model.KindGroup, got[1].Formula[0].Kind)
	assert.True(t, got[1].Formula[1].Coefficient.Equal(decimal.NewFromInt(-1)))
}

func TestAccounts_ReadRejectsBadBalance(t *testing.T) {
	in := "account_id,name,info,balance,is_archived,group_id,institution_id,is_calculated,formula\n" +
		"1,Checking,,not-a-number,false,,,false,\n"
	_, err := ReadAccounts(bytes.NewBufferString(in))
	assert.Error(t, err)
}

func TestGroups_RoundTrip(t *testing.T) {
	groups := []model.Group{
		{ID: 10, Name: "Cash", Description: "liquid", Color: "#00ff00"},
		{ID: 11, Name: "Retirement", IsArchived: true},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteGroups(&buf, groups))

	got, err := ReadGroups(&buf)
	require.NoError(t, err)
	assert.Equal(t, groups, got)
}

func TestInstitutions_RoundTrip(t *testing.T) {
	institutions := []model.Institution{{ID: 20, Name: "Broker", Color: "#123456"}}

	var buf bytes.Buffer
	require.NoError(t, WriteInstitutions(&buf, institutions))

	got, err := ReadInstitutions(&buf)
	require.NoError(t, err)
	assert.Equal(t, institutions, got)
}

func TestReadAccounts_Empty(t *testing.T) {
	got, err := ReadAccounts(bytes.NewBuffer(nil))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWriteAll_ReadAll(t *testing.T) {
	dir := t.TempDir()
	accounts := sampleAccounts()
	groups := []model.Group{{ID: 10, Name: "Cash"}}

	require.NoError(t, WriteAll(dir, accounts, groups, nil))

	gotAccounts, gotGroups, gotInstitutions, err := ReadAll(dir)
	require.NoError(t, err)
	assert.Len(t, gotAccounts, 2)
	assert.Equal(t, groups, gotGroups)
	assert.Empty(t, gotInstitutions)
}
