package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/contactkeval/option-pricer/internal/logger"
)

// ErrInvalidParameter reports pricing inputs that are malformed or violate
// no-arbitrage bounds. Callers can detect it with errors.Is.
var ErrInvalidParameter = errors.New("invalid pricing parameter")

// OptionType selects the intrinsic payoff formula.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// OptionSpec describes a single option priced on a recombining binomial tree.
type OptionSpec struct {
	Spot     float64    // current underlying price, > 0
	Strike   float64    // strike price, > 0
	Rate     float64    // annualized continuously compounded risk-free rate
	Up       float64    // up-factor per step
	Down     float64    // down-factor per step, 0 < Down < Up
	Periods  int        // number of tree steps, >= 1
	Maturity float64    // time to maturity in years, > 0
	Type     OptionType // call or put
	American bool       // allow early exercise
}

// BinomialPricer prices an option on a Cox-Ross-Rubinstein style recombining
// tree under risk-neutral probabilities.
//
// Compounding is continuous throughout: the per-period growth factor is
// e^(r*dt) and each induction step discounts by e^(-r*dt), consistent with
// the Monte Carlo engine's e^(-r*T) discounting.
type BinomialPricer struct {
	spec OptionSpec

	dt       float64 // Maturity / Periods
	discount float64 // e^(-Rate*dt)
	prob     float64 // risk-neutral up probability
}

// NewBinomialPricer validates the spec and precomputes the per-period
// discount factor and risk-neutral up probability. It fails with
// ErrInvalidParameter when the inputs are malformed or when the derived
// probability falls outside [0,1], which signals an arbitrage violation.
func NewBinomialPricer(spec OptionSpec) (*BinomialPricer, error) {
	if err := validateOptionSpec(spec); err != nil {
		return nil, err
	}

	dt := spec.Maturity / float64(spec.Periods)
	growth := math.Exp(spec.Rate * dt)
	prob := (growth - spec.Down) / (spec.Up - spec.Down)
	if prob < 0 || prob > 1 {
		return nil, fmt.Errorf(
			"%w: risk-neutral probability %.6f outside [0,1], arbitrage bound d < e^(r*dt) < u violated (u=%g d=%g e^(r*dt)=%g)",
			ErrInvalidParameter, prob, spec.Up, spec.Down, growth,
		)
	}

	return &BinomialPricer{
		spec:     spec,
		dt:       dt,
		discount: math.Exp(-spec.Rate * dt),
		prob:     prob,
	}, nil
}

// Price computes the option value at the tree root by backward induction.
// It is a pure function of the validated spec.
func (p *BinomialPricer) Price() float64 {
	spec := p.spec
	logger.Debugf(
		"event=binomial_price type=%s periods=%d spot=%.4f strike=%.4f prob=%.6f american=%t",
		spec.Type, spec.Periods, spec.Spot, spec.Strike, p.prob, spec.American,
	)

	// Terminal option values, indexed by the number of up moves. The tree
	// recombines, so one flat slice per period is all the state needed.
	values := make([]float64, spec.Periods+1)
	for upMoves := 0; upMoves <= spec.Periods; upMoves++ {
		values[upMoves] = p.intrinsic(p.assetPrice(spec.Periods, upMoves))
	}

	for step := spec.Periods - 1; step >= 0; step-- {
		for i := 0; i <= step; i++ {
			continuation := p.discount * (p.prob*values[i+1] + (1-p.prob)*values[i])
			if spec.American {
				// Early exercise uses the same intrinsic formula as the
				// leaves; ties go to continuation.
				exercise := p.intrinsic(p.assetPrice(step, i))
				if exercise > continuation {
					continuation = exercise
				}
			}
			values[i] = continuation
		}
		logger.Tracef("event=induction_step step=%d root_estimate=%.6f", step, values[0])
	}

	return values[0]
}

// intrinsic is the immediate exercise payoff at the given asset price.
func (p *BinomialPricer) intrinsic(assetPrice float64) float64 {
	if p.spec.Type == Put {
		return math.Max(0, p.spec.Strike-assetPrice)
	}
	return math.Max(0, assetPrice-p.spec.Strike)
}

// assetPrice returns the underlying price at node (step, upMoves).
func (p *BinomialPricer) assetPrice(step, upMoves int) float64 {
	downMoves := step - upMoves
	return p.spec.Spot * math.Pow(p.spec.Up, float64(upMoves)) * math.Pow(p.spec.Down, float64(downMoves))
}

func validateOptionSpec(spec OptionSpec) error {
	switch {
	case spec.Periods < 1:
		return fmt.Errorf("%w: periods must be at least 1, got %d", ErrInvalidParameter, spec.Periods)
	case spec.Maturity <= 0:
		return fmt.Errorf("%w: maturity must be positive, got %g", ErrInvalidParameter, spec.Maturity)
	case spec.Spot <= 0:
		return fmt.Errorf("%w: spot must be positive, got %g", ErrInvalidParameter, spec.Spot)
	case spec.Strike <= 0:
		return fmt.Errorf("%w: strike must be positive, got %g", ErrInvalidParameter, spec.Strike)
	case spec.Down <= 0:
		return fmt.Errorf("%w: down factor must be positive, got %g", ErrInvalidParameter, spec.Down)
	case spec.Up <= spec.Down:
		return fmt.Errorf("%w: up factor %g must exceed down factor %g", ErrInvalidParameter, spec.Up, spec.Down)
	}
	if spec.Type != Call && spec.Type != Put {
		return fmt.Errorf("%w: option type must be %q or %q, got %q", ErrInvalidParameter, Call, Put, spec.Type)
	}
	return nil
}

// PriceBinomial is a convenience wrapper that prices a single option.
func PriceBinomial(
	spot, strike, rate, up, down float64,
	periods int,
	maturity float64,
	optionType OptionType,
	american bool,
) (float64, error) {
	pricer, err := NewBinomialPricer(OptionSpec{
		Spot:     spot,
		Strike:   strike,
		Rate:     rate,
		Up:       up,
		Down:     down,
		Periods:  periods,
		Maturity: maturity,
		Type:     optionType,
		American: american,
	})
	if err != nil {
		return 0, err
	}
	return pricer.Price(), nil
}
