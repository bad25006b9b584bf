package statement

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/robinvdvleuten/statements/ledger"
)

// SignPolicy decides which way a gain entry moves an account. Natural posts
// the gain on the side that increases the account's balance; Inverted flips
// both postings of the entry.
type SignPolicy int

const (
	SignNatural SignPolicy = iota
	SignInverted
)

func (p SignPolicy) String() string {
	if p == SignInverted {
		return "inverted"
	}
	return "natural"
}

// ParseSignPolicy parses "natural" or "inverted".
func ParseSignPolicy(s string) (SignPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "natural":
		return SignNatural, nil
	case "inverted":
		return SignInverted, nil
	default:
		return SignNatural, fmt.Errorf("invalid gain sign policy %q, expected natural or inverted", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *SignPolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseSignPolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// DefaultGainsAccount is the account unrealized gains are offset against when
// no other is configured.
const DefaultGainsAccount = "Unrealized Gains"

// Config holds engine settings.
type Config struct {
	// GainsAccount names the account offsetting every inferred gain.
	GainsAccount string

	// GainPolicy overrides the gain sign policy per account type.
	GainPolicy map[ledger.AccountType]SignPolicy

	// Parallelism bounds the number of accounts computed concurrently.
	Parallelism int
}

// DefaultConfig returns the settings used when the context carries none.
func DefaultConfig() Config {
	return Config{
		GainsAccount: DefaultGainsAccount,
		Parallelism:  runtime.GOMAXPROCS(0),
	}
}

// Policy returns the gain sign policy for accounts of type t.
func (c Config) Policy(t ledger.AccountType) SignPolicy {
	return c.GainPolicy[t]
}

type configKey struct{}

// WithContext adds the config to a context.
func (c Config) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, configKey{}, c)
}

// ConfigFromContext returns the context's config with unset fields defaulted.
func ConfigFromContext(ctx context.Context) Config {
	cfg, _ := ctx.Value(configKey{}).(Config)
	def := DefaultConfig()
	if cfg.GainsAccount == "" {
		cfg.GainsAccount = def.GainsAccount
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = def.Parallelism
	}
	return cfg
}
