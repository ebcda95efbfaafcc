package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/contactkeval/option-pricer/internal/config"
	"github.com/contactkeval/option-pricer/internal/pricing"
)

// Prompter wraps an input scanner and output writer for interactive prompts.
// Inject a custom reader/writer for tests.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewPrompter creates a Prompter using stdin/stdout.
func NewPrompter() *Prompter {
	return &Prompter{
		scanner: bufio.NewScanner(os.Stdin),
		out:     os.Stdout,
	}
}

// NewPrompterFromReader creates a Prompter with custom reader/writer (for tests).
func NewPrompterFromReader(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{
		scanner: bufio.NewScanner(r),
		out:     w,
	}
}

// String prompts for a string value. Returns defaultVal on empty input.
func (p *Prompter) String(prompt, defaultVal string) string {
	fmt.Fprintf(p.out, "%s [%s]: ", prompt, defaultVal)
	if !p.scanner.Scan() {
		return defaultVal
	}
	input := strings.TrimSpace(p.scanner.Text())
	if input == "" {
		return defaultVal
	}
	return input
}

// Float prompts for a float value. Returns defaultVal on empty or
// unparseable input, telling the user when input was ignored.
func (p *Prompter) Float(prompt string, defaultVal float64) float64 {
	raw := p.String(prompt, strconv.FormatFloat(defaultVal, 'g', -1, 64))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		fmt.Fprintf(p.out, "not a number, using %g\n", defaultVal)
		return defaultVal
	}
	return v
}

// Int prompts for an integer value with the same fallback behavior as Float.
func (p *Prompter) Int(prompt string, defaultVal int) int {
	raw := p.String(prompt, strconv.Itoa(defaultVal))
	v, err := strconv.Atoi(raw)
	if err != nil {
		fmt.Fprintf(p.out, "not an integer, using %d\n", defaultVal)
		return defaultVal
	}
	return v
}

// runMonteCarloPrompt collects Monte Carlo inputs interactively, prices them
// and prints the estimate with its uncertainty.
func runMonteCarloPrompt(cfg config.Config, p *Prompter) error {
	d := cfg.Defaults

	fmt.Fprintln(p.out, "Enter option parameters (press Enter to accept defaults):")
	spot := p.Float("Spot price", d.Spot)
	rate := p.Float("Risk-free rate (continuously compounded)", d.Rate)
	volatility := p.Float("Volatility (sigma)", d.Volatility)
	maturity := p.Float("Maturity in years", d.Maturity)
	dividend := p.Float("Dividend yield", d.Dividend)
	paths := p.Int("Number of Monte Carlo paths", d.Paths)

	fmt.Fprintln(p.out, "\nProvide a payoff expression using s (or S, S_T) for the terminal price.")
	fmt.Fprintln(p.out, "Examples: max(s - 100, 0), max(90 - s, 0), max(10 - abs(s - 100), 0)")
	expression := p.String("Payoff expression", d.Payoff)

	res, err := pricing.PriceMonteCarlo(spot, rate, volatility, maturity, dividend, paths, expression, 0)
	if err != nil {
		return err
	}

	low, high := res.ConfidenceInterval(0.95)
	fmt.Fprintf(p.out, "\nEstimated option price: %.4f (std error %.4f, 95%% CI [%.4f, %.4f])\n",
		res.Estimate, res.StdError, low, high)
	return nil
}
