package payoff

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, source string) *Expression {
	t.Helper()
	expr, err := Parse(source)
	require.NoError(t, err)
	return expr
}

func TestEvaluateVanillaCall(t *testing.T) {
	expr := mustParse(t, "max(s - 100, 0)")

	got, err := expr.Evaluate(120)
	require.NoError(t, err)
	require.Equal(t, 20.0, got)

	got, err = expr.Evaluate(80)
	require.NoError(t, err)
	require.Equal(t, 0.0, got)
}

func TestEvaluateAcceptedExpressions(t *testing.T) {
	cases := []struct {
		name     string
		source   string
		terminal float64
		want     float64
	}{
		{"put", "max(90 - s, 0)", 80, 10},
		{"butterfly", "max(10 - abs(s - 100), 0)", 95, 5},
		{"butterfly wing", "max(10 - abs(s - 100), 0)", 120, 0},
		{"upper case variable", "max(S - 100, 0)", 110, 10},
		{"terminal price alias", "max(S_T - 100, 0)", 110, 10},
		{"exponent", "s ** 2", 3, 9},
		{"unary minus", "-s + 100", 40, 60},
		{"min", "min(s, 50)", 80, 50},
		{"constant", "2.5", 1234, 2.5},
		{"nested", "max(min(s, 120) - 100, 0)", 150, 20},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := mustParse(t, tc.source).Evaluate(tc.terminal)
			require.NoError(t, err)
			require.InDelta(t, tc.want, got, 1e-12)
		})
	}
}

func TestParseRejectsDisallowedConstructs(t *testing.T) {
	cases := []struct {
		name   string
		source string
	}{
		{"host language escape", "__import__('os').system('ls')"},
		{"unknown identifier", "x + 1"},
		{"unknown function", "sqrt(s)"},
		{"comparator", "s > 100"},
		{"logical operator", "s && 1"},
		{"boolean literal", "true"},
		{"string literal", "'abc'"},
		{"modulo", "s % 3"},
		{"bitwise and", "s & 3"},
		{"ternary", "s ? 1 : 2"},
		{"empty", ""},
		{"blank", "   "},
		{"unbalanced", "max(s - 100"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.source)
			require.Error(t, err)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr), "want *ParseError, got %T: %v", err, err)
		})
	}
}

func TestParseErrorNamesOffendingIdentifier(t *testing.T) {
	_, err := Parse("notional * s")
	require.Error(t, err)
	require.Contains(t, err.Error(), "notional")
}

func TestEvaluateDivisionByZero(t *testing.T) {
	expr := mustParse(t, "100 / (s - s)")

	_, err := expr.Evaluate(42)
	require.Error(t, err)

	var evalErr *EvalError
	require.True(t, errors.As(err, &evalErr), "want *EvalError, got %T: %v", err, err)
	require.Equal(t, 42.0, evalErr.TerminalPrice)
}

func TestSourceRoundTrips(t *testing.T) {
	expr := mustParse(t, "  max(s - 100, 0)  ")
	require.Equal(t, "max(s - 100, 0)", expr.Source())
}

func TestExpressionIsReusable(t *testing.T) {
	expr := mustParse(t, "max(s - 100, 0)")
	for i := 0; i < 3; i++ {
		got, err := expr.Evaluate(130)
		require.NoError(t, err)
		require.Equal(t, 30.0, got)
	}
}
