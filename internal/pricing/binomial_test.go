package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// One-step symmetric tree with zero rate is computable by hand:
// p = (1 - 0.9) / (1.1 - 0.9) = 0.5, price = 0.5 * 10 = 5.
func TestBinomialOneStepHandComputed(t *testing.T) {
	price, err := PriceBinomial(100, 100, 0, 1.1, 0.9, 1, 1, Call, false)
	require.NoError(t, err)
	require.InDelta(t, 5.0, price, 1e-12)
}

func TestBinomialPutCallParity(t *testing.T) {
	spot, strike, rate := 100.0, 95.0, 0.05
	up, down := 1.2, 0.85
	periods, maturity := 50, 1.0

	call, err := PriceBinomial(spot, strike, rate, up, down, periods, maturity, Call, false)
	require.NoError(t, err)
	put, err := PriceBinomial(spot, strike, rate, up, down, periods, maturity, Put, false)
	require.NoError(t, err)

	lhs := call - put
	rhs := spot - strike*math.Exp(-rate*maturity)
	require.InDelta(t, rhs, lhs, 1e-9, "put-call parity violated")
}

func TestAmericanAtLeastEuropean(t *testing.T) {
	spot, strike, rate := 100.0, 110.0, 0.05
	up, down := 1.1, 0.9
	periods, maturity := 100, 1.0

	european, err := PriceBinomial(spot, strike, rate, up, down, periods, maturity, Put, false)
	require.NoError(t, err)
	american, err := PriceBinomial(spot, strike, rate, up, down, periods, maturity, Put, true)
	require.NoError(t, err)

	require.GreaterOrEqual(t, american, european-1e-12,
		"early exercise must have non-negative value")
}

// With CRR factors u = e^(sigma*sqrt(dt)), d = 1/u, the European lattice
// price converges to the Black-Scholes closed form as periods grow.
func TestBinomialConvergesToBlackScholes(t *testing.T) {
	spot, strike, rate, sigma, maturity := 100.0, 100.0, 0.05, 0.2, 1.0
	periods := 201

	dt := maturity / float64(periods)
	up := math.Exp(sigma * math.Sqrt(dt))
	down := 1 / up

	for _, optionType := range []OptionType{Call, Put} {
		lattice, err := PriceBinomial(spot, strike, rate, up, down, periods, maturity, optionType, false)
		require.NoError(t, err)

		closedForm := BlackScholesPrice(optionType, spot, strike, maturity, rate, 0, sigma)
		require.InDelta(t, closedForm, lattice, 0.05,
			"lattice %s price should converge to Black-Scholes", optionType)
	}
}

func TestBinomialRejectsInvalidParameters(t *testing.T) {
	valid := OptionSpec{
		Spot: 100, Strike: 100, Rate: 0.05,
		Up: 1.1, Down: 0.9,
		Periods: 10, Maturity: 1, Type: Call,
	}

	cases := []struct {
		name   string
		mutate func(*OptionSpec)
	}{
		{"zero periods", func(s *OptionSpec) { s.Periods = 0 }},
		{"negative periods", func(s *OptionSpec) { s.Periods = -3 }},
		{"zero maturity", func(s *OptionSpec) { s.Maturity = 0 }},
		{"negative spot", func(s *OptionSpec) { s.Spot = -1 }},
		{"zero strike", func(s *OptionSpec) { s.Strike = 0 }},
		{"zero down factor", func(s *OptionSpec) { s.Down = 0 }},
		{"up below down", func(s *OptionSpec) { s.Up = 0.8 }},
		{"unknown option type", func(s *OptionSpec) { s.Type = "straddle" }},
		// e^(r*dt) above the up factor drives the risk-neutral
		// probability over 1.
		{"arbitrage rate too high", func(s *OptionSpec) { s.Rate = 2.0; s.Periods = 1 }},
		{"arbitrage rate too low", func(s *OptionSpec) { s.Rate = -2.0; s.Periods = 1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := valid
			tc.mutate(&spec)
			_, err := NewBinomialPricer(spec)
			require.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}

func TestBinomialPriceIsDeterministic(t *testing.T) {
	first, err := PriceBinomial(100, 105, 0.03, 1.15, 0.88, 25, 0.5, Call, true)
	require.NoError(t, err)
	second, err := PriceBinomial(100, 105, 0.03, 1.15, 0.88, 25, 0.5, Call, true)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
