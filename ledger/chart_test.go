package ledger

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestNewChart(t *testing.T) {
	chart, err := NewChart(
		NewAccount(2, "Rent", AccountTypeExpense, "housing:rent"),
		NewAccount(1, "Checking", AccountTypeAsset, "bank"),
	)
	assert.NoError(t, err)
	assert.Equal(t, 2, chart.Len())
	assert.Equal(t, "Checking", chart.Accounts()[0].Name, "accounts are ordered by id")

	rent, ok := chart.Account("Rent")
	assert.True(t, ok)
	assert.Equal(t, 2, rent.ID)

	byID, ok := chart.AccountByID(1)
	assert.True(t, ok)
	assert.Equal(t, "Checking", byID.Name)
}

func TestNewChartDuplicates(t *testing.T) {
	_, err := NewChart(
		NewAccount(1, "Checking", AccountTypeAsset, ""),
		NewAccount(1, "Savings", AccountTypeAsset, ""),
		NewAccount(2, "Checking", AccountTypeAsset, ""),
	)
	var verr *ValidationErrors
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, 2, len(verr.Errors))

	var dup *DuplicateAccountError
	assert.True(t, errors.As(err, &dup))
	assert.Equal(t, "Savings", dup.Account)
}

func TestNewChartUnknownClosingAccount(t *testing.T) {
	salary := NewAccount(1, "Salary", AccountTypeIncome, "")
	salary.ClosingAccount = "Retained Earnings"

	_, err := NewChart(salary)
	var unknown *UnknownAccountError
	assert.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Retained Earnings", unknown.GetAccount())
	assert.Contains(t, err.Error(), "closing account of Salary")
}

func TestLookup(t *testing.T) {
	chart, err := NewChart(NewAccount(1, "Checking", AccountTypeAsset, ""))
	assert.NoError(t, err)

	_, err = chart.Lookup("Brokerage", "budget item")
	var unknown *UnknownAccountError
	assert.True(t, errors.As(err, &unknown))
	assert.Equal(t, "budget item: Invalid reference to unknown account 'Brokerage'", err.Error())
}

// TestFlatCategory verifies shorter categories pad their deepest label forward.
func TestFlatCategory(t *testing.T) {
	chart, err := NewChart(
		NewAccount(1, "Rent", AccountTypeExpense, "housing:rent:apartment"),
		NewAccount(2, "Utilities", AccountTypeExpense, "housing"),
		NewAccount(3, "Misc", AccountTypeExpense, ""),
	)
	assert.NoError(t, err)
	assert.Equal(t, 3, chart.CategoryDepth())

	rent, _ := chart.Account("Rent")
	utilities, _ := chart.Account("Utilities")
	misc, _ := chart.Account("Misc")
	assert.Equal(t, []string{"housing", "rent", "apartment"}, chart.FlatCategory(rent))
	assert.Equal(t, []string{"housing", "housing", "housing"}, chart.FlatCategory(utilities))
	assert.Equal(t, []string{"", "", ""}, chart.FlatCategory(misc))
}
