package loader

import (
	"fmt"
	"io"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/statements/budget"
	"github.com/robinvdvleuten/statements/ledger"
	"github.com/robinvdvleuten/statements/period"
	"github.com/robinvdvleuten/statements/statement"
)

// budgetFile mirrors budget.toml:
//
//	[[interval]]
//	start = 2024-01-01
//	end = 2025-01-01
//
//	[[interval.item]]
//	account = "Rent"
//	frequency = "month"
//	amount = "1000.00"
type budgetFile struct {
	Interval []struct {
		Start time.Time `toml:"start"`
		End   time.Time `toml:"end"`
		Item  []struct {
			Account   string           `toml:"account"`
			Frequency period.Frequency `toml:"frequency"`
			Amount    decimal.Decimal  `toml:"amount"`
		} `toml:"item"`
	} `toml:"interval"`
}

// ReadBudget reads a budget. Interval dates are TOML local dates; the end
// date is exclusive.
func ReadBudget(r io.Reader) (*budget.Budget, error) {
	var f budgetFile
	if err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, err
	}

	b := &budget.Budget{}
	for i, iv := range f.Interval {
		if iv.Start.IsZero() || iv.End.IsZero() {
			return nil, fmt.Errorf("interval %d: start and end dates are required", i+1)
		}
		block := budget.Block{Interval: budget.Interval{Start: utcDate(iv.Start), End: utcDate(iv.End)}}
		for _, item := range iv.Item {
			block.Items = append(block.Items, budget.Item{
				Account:   item.Account,
				Frequency: item.Frequency,
				Amount:    item.Amount,
			})
		}
		b.Blocks = append(b.Blocks, block)
	}
	return b, nil
}

func utcDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// configFile mirrors statements.toml:
//
//	gains_account = "Unrealized Gains"
//	parallelism = 4
//
//	[gain_policy]
//	liability = "inverted"
type configFile struct {
	GainsAccount string            `toml:"gains_account"`
	Parallelism  int               `toml:"parallelism"`
	GainPolicy   map[string]string `toml:"gain_policy"`
}

// ReadConfig reads engine settings. Unset values keep their defaults.
func ReadConfig(r io.Reader) (statement.Config, error) {
	cfg := statement.DefaultConfig()

	var f configFile
	if err := toml.NewDecoder(r).Decode(&f); err != nil {
		return cfg, err
	}
	if f.GainsAccount != "" {
		cfg.GainsAccount = f.GainsAccount
	}
	if f.Parallelism > 0 {
		cfg.Parallelism = f.Parallelism
	}
	for name, value := range f.GainPolicy {
		typ := ledger.ParseAccountType(name)
		if typ == ledger.AccountTypeUnknown {
			return cfg, fmt.Errorf("gain_policy: unknown account type %q", name)
		}
		policy, err := statement.ParseSignPolicy(value)
		if err != nil {
			return cfg, fmt.Errorf("gain_policy.%s: %w", name, err)
		}
		if cfg.GainPolicy == nil {
			cfg.GainPolicy = make(map[ledger.AccountType]statement.SignPolicy)
		}
		cfg.GainPolicy[typ] = policy
	}
	return cfg, nil
}
