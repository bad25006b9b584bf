package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AccountType represents the type of account
type AccountType int

const (
	AccountTypeUnknown AccountType = iota
	AccountTypeAsset
	AccountTypeLiability
	AccountTypeEquity
	AccountTypeIncome
	AccountTypeExpense
)

// AccountTypes lists the known account types in statement order.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeIncome,
	AccountTypeExpense,
}

// String returns the string representation of the account type
func (t AccountType) String() string {
	switch t {
	case AccountTypeAsset:
		return "asset"
	case AccountTypeLiability:
		return "liability"
	case AccountTypeEquity:
		return "equity"
	case AccountTypeIncome:
		return "income"
	case AccountTypeExpense:
		return "expense"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t AccountType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// DebitIncreasesBalance reports the conventional sign of the account type:
// debits increase assets and expenses, credits increase everything else.
func (t AccountType) DebitIncreasesBalance() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// ParseAccountType parses an account type name. Singular, plural and
// capitalised forms are accepted ("asset", "Assets").
func ParseAccountType(s string) AccountType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asset", "assets":
		return AccountTypeAsset
	case "liability", "liabilities":
		return AccountTypeLiability
	case "equity":
		return AccountTypeEquity
	case "income", "revenue":
		return AccountTypeIncome
	case "expense", "expenses":
		return AccountTypeExpense
	default:
		return AccountTypeUnknown
	}
}

// Account represents an account in the chart of accounts.
type Account struct {
	ID   int
	Name string
	Type AccountType

	// Category is the hierarchy of labels the account is reported under,
	// outermost first, e.g. ["housing", "rent"].
	Category []string

	// DebitIncreasesBalance is the sign convention used to derive net amounts.
	DebitIncreasesBalance bool

	// ClosingAccount names the account that absorbs this account's net flow
	// at every period boundary. Only temporary accounts carry one.
	ClosingAccount string
}

// NewAccount creates an account using the conventional sign of its type.
func NewAccount(id int, name string, typ AccountType, category string) *Account {
	return &Account{
		ID:                    id,
		Name:                  name,
		Type:                  typ,
		Category:              ParseCategory(category),
		DebitIncreasesBalance: typ.DebitIncreasesBalance(),
	}
}

// IsTemporary reports whether the account is closed into another account.
func (a *Account) IsTemporary() bool { return a.ClosingAccount != "" }

// NetAmount returns the signed effect of a posting on the account's natural
// balance: positive when it increases the balance, negative otherwise.
func (a *Account) NetAmount(action Action, amount decimal.Decimal) decimal.Decimal {
	if (action == Debit) == a.DebitIncreasesBalance {
		return amount
	}
	return amount.Neg()
}

// Posting returns the posting whose net amount on this account is net.
func (a *Account) Posting(net decimal.Decimal) Posting {
	action := Debit
	if net.IsNegative() == a.DebitIncreasesBalance {
		action = Credit
	}
	return Posting{Account: a.Name, Action: action, Amount: net.Abs()}
}

// ParseCategory splits a ':' delimited category into its labels.
func ParseCategory(category string) []string {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil
	}
	parts := strings.Split(category, ":")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
