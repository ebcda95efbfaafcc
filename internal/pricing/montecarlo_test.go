package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/contactkeval/option-pricer/internal/payoff"
)

// With zero volatility every path lands exactly on the spot, so an
// at-the-money call pays nothing and the estimator is exactly zero with
// zero standard error.
func TestMonteCarloZeroVolatilityExact(t *testing.T) {
	res, err := PriceMonteCarlo(100, 0, 0, 1, 0, 1000, "max(s - 100, 0)", 42)
	require.NoError(t, err)
	require.Equal(t, 0.0, res.Estimate)
	require.Equal(t, 0.0, res.StdError)
	require.Equal(t, 1000, res.Paths)
}

func TestMonteCarloReproducibleWithFixedSeed(t *testing.T) {
	price := func(seed uint64) MonteCarloResult {
		res, err := PriceMonteCarlo(100, 0.05, 0.2, 1, 0, 5000, "max(s - 100, 0)", seed)
		require.NoError(t, err)
		return res
	}

	first := price(7)
	second := price(7)
	require.Equal(t, first.Estimate, second.Estimate, "same seed must be bit-for-bit reproducible")
	require.Equal(t, first.StdError, second.StdError)

	other := price(8)
	require.NotEqual(t, first.Estimate, other.Estimate, "different seeds should draw different paths")
}

func TestMonteCarloMatchesBlackScholes(t *testing.T) {
	spot, strike, rate, sigma, maturity := 100.0, 100.0, 0.05, 0.2, 1.0

	res, err := PriceMonteCarlo(spot, rate, sigma, maturity, 0, 200000, "max(s - 100, 0)", 7)
	require.NoError(t, err)

	closedForm := BlackScholesPrice(Call, spot, strike, maturity, rate, 0, sigma)
	require.InDelta(t, closedForm, res.Estimate, 0.5)
	require.Greater(t, res.StdError, 0.0)
}

// The standard error shrinks like 1/sqrt(N): growing the path count by 16x
// should cut it by roughly 4x.
func TestMonteCarloStandardErrorShrinks(t *testing.T) {
	small, err := PriceMonteCarlo(100, 0.05, 0.2, 1, 0, 4000, "max(s - 100, 0)", 11)
	require.NoError(t, err)
	large, err := PriceMonteCarlo(100, 0.05, 0.2, 1, 0, 64000, "max(s - 100, 0)", 11)
	require.NoError(t, err)

	require.Greater(t, small.StdError, large.StdError)
	ratio := small.StdError / large.StdError
	require.Greater(t, ratio, 3.0)
	require.Less(t, ratio, 5.0)
}

func TestMonteCarloRejectsInvalidParameters(t *testing.T) {
	identity := func(price float64) (float64, error) { return price, nil }
	valid := MonteCarloSpec{
		Spot: 100, Rate: 0.05, Volatility: 0.2,
		Maturity: 1, Paths: 100, Seed: 1, Payoff: identity,
	}

	cases := []struct {
		name   string
		mutate func(*MonteCarloSpec)
	}{
		{"zero paths", func(s *MonteCarloSpec) { s.Paths = 0 }},
		{"zero maturity", func(s *MonteCarloSpec) { s.Maturity = 0 }},
		{"negative volatility", func(s *MonteCarloSpec) { s.Volatility = -0.1 }},
		{"zero spot", func(s *MonteCarloSpec) { s.Spot = 0 }},
		{"missing payoff", func(s *MonteCarloSpec) { s.Payoff = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := valid
			tc.mutate(&spec)
			_, err := MonteCarloPrice(spec)
			require.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}

func TestMonteCarloRejectsBadExpressionBeforeSimulating(t *testing.T) {
	_, err := PriceMonteCarlo(100, 0.05, 0.2, 1, 0, 1000000000, "max(s - 100", 1)
	require.Error(t, err)

	var parseErr *payoff.ParseError
	require.True(t, errors.As(err, &parseErr), "want *ParseError, got %T: %v", err, err)
}

// A single failing path aborts the whole call and reports the terminal price
// it failed at. Zero volatility pins every terminal price to the spot.
func TestMonteCarloEvalErrorCarriesTerminalPrice(t *testing.T) {
	_, err := PriceMonteCarlo(100, 0, 0, 1, 0, 100, "100 / (s - s)", 3)
	require.Error(t, err)

	var evalErr *payoff.EvalError
	require.True(t, errors.As(err, &evalErr), "want *EvalError, got %T: %v", err, err)
	require.Equal(t, 100.0, evalErr.TerminalPrice)
}

func TestMonteCarloSinglePathHasZeroStdError(t *testing.T) {
	res, err := PriceMonteCarlo(100, 0, 0.2, 1, 0, 1, "max(s - 100, 0)", 9)
	require.NoError(t, err)
	require.Equal(t, 0.0, res.StdError)
}

func TestConfidenceInterval(t *testing.T) {
	res := MonteCarloResult{Estimate: 10, StdError: 1, Paths: 1000}

	low, high := res.ConfidenceInterval(0.95)
	require.InDelta(t, 10-1.959964, low, 1e-3)
	require.InDelta(t, 10+1.959964, high, 1e-3)
}
