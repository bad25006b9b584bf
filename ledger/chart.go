package ledger

import (
	"golang.org/x/exp/slices"
)

// Chart is the registry of accounts a ledger is recorded against. It is
// immutable once created.
type Chart struct {
	accounts []*Account
	byID     map[int]*Account
	byName   map[string]*Account
	depth    int
}

// NewChart creates a chart from accounts. Account ids and names must be
// unique, and every closing account must itself be part of the chart. All
// defects are reported together as *ValidationErrors.
func NewChart(accounts ...*Account) (*Chart, error) {
	c := &Chart{
		accounts: make([]*Account, 0, len(accounts)),
		byID:     make(map[int]*Account, len(accounts)),
		byName:   make(map[string]*Account, len(accounts)),
	}

	var errs []error
	for _, a := range accounts {
		if prev, ok := c.byID[a.ID]; ok {
			errs = append(errs, &DuplicateAccountError{Account: a.Name, ID: a.ID, Previous: prev.Name})
			continue
		}
		if prev, ok := c.byName[a.Name]; ok {
			errs = append(errs, &DuplicateAccountError{Account: a.Name, ID: a.ID, Previous: prev.Name})
			continue
		}
		c.byID[a.ID] = a
		c.byName[a.Name] = a
		c.accounts = append(c.accounts, a)
		c.depth = max(c.depth, len(a.Category))
	}

	for _, a := range c.accounts {
		if a.ClosingAccount == "" {
			continue
		}
		if _, ok := c.byName[a.ClosingAccount]; !ok {
			errs = append(errs, &UnknownAccountError{Account: a.ClosingAccount, Referrer: "closing account of " + a.Name})
		}
	}
	if len(errs) > 0 {
		return nil, &ValidationErrors{Errors: errs}
	}

	slices.SortFunc(c.accounts, func(a, b *Account) int { return a.ID - b.ID })
	return c, nil
}

// Accounts returns all accounts ordered by id.
func (c *Chart) Accounts() []*Account { return c.accounts }

// Len returns the number of accounts.
func (c *Chart) Len() int { return len(c.accounts) }

// Account returns an account by name.
func (c *Chart) Account(name string) (*Account, bool) {
	a, ok := c.byName[name]
	return a, ok
}

// AccountByID returns an account by id.
func (c *Chart) AccountByID(id int) (*Account, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// Lookup returns an account by name, or an *UnknownAccountError naming the
// referrer when it does not exist.
func (c *Chart) Lookup(name, referrer string) (*Account, error) {
	if a, ok := c.byName[name]; ok {
		return a, nil
	}
	return nil, &UnknownAccountError{Account: name, Referrer: referrer}
}

// CategoryDepth returns the number of labels of the deepest category.
func (c *Chart) CategoryDepth() int { return c.depth }

// FlatCategory returns the account's category padded to CategoryDepth labels.
// Shorter categories repeat their deepest label, so that accounts sharing an
// ancestor still group together at every level.
func (c *Chart) FlatCategory(a *Account) []string {
	flat := make([]string, c.depth)
	last := ""
	for i := range flat {
		if i < len(a.Category) {
			last = a.Category[i]
		}
		flat[i] = last
	}
	return flat
}
