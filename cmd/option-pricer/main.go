package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/contactkeval/option-pricer/internal/config"
	"github.com/contactkeval/option-pricer/internal/logger"
	"github.com/contactkeval/option-pricer/internal/pricing"
	"github.com/contactkeval/option-pricer/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	serve := flag.Bool("serve", false, "run the web server instead of pricing once")
	addr := flag.String("addr", "", "listen address override, e.g. :8000")
	engine := flag.String("engine", "montecarlo", "pricing engine: montecarlo or binomial")
	interactive := flag.Bool("interactive", false, "prompt for Monte Carlo inputs instead of using flags")
	verbosity := flag.Int("v", 1, "verbosity: 0=errors 1=info 2=debug 3=trace")

	// shared inputs
	spot := flag.Float64("spot", 100, "spot price of the underlying")
	rate := flag.Float64("rate", 0.05, "annualized continuously compounded risk-free rate")
	maturity := flag.Float64("maturity", 1, "time to maturity in years")

	// binomial inputs
	strike := flag.Float64("strike", 100, "strike price")
	up := flag.Float64("up", 1.1, "up-factor per step")
	down := flag.Float64("down", 0.9, "down-factor per step")
	periods := flag.Int("periods", 3, "number of tree steps")
	optionType := flag.String("type", "call", "option type: call or put")
	american := flag.Bool("american", false, "price an American option")

	// monte carlo inputs
	volatility := flag.Float64("vol", 0.2, "annualized volatility")
	dividend := flag.Float64("dividend", 0, "continuous dividend yield")
	paths := flag.Int("paths", 20000, "number of Monte Carlo paths")
	payoffExpr := flag.String("payoff", "max(s - 100, 0)", "payoff expression in s (or S, S_T)")
	seed := flag.Uint64("seed", 0, "Monte Carlo seed, 0 = derive from wall clock")
	flag.Parse()

	logger.SetVerbosity(*verbosity)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Errorf("loading config: %v", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	if *serve {
		srv := server.New(cfg)
		logger.Infof("event=serve addr=%s", cfg.ListenAddr)
		if err := http.ListenAndServe(cfg.ListenAddr, srv.Router()); err != nil {
			logger.Errorf("server stopped: %v", err)
			os.Exit(1)
		}
		return
	}

	switch *engine {
	case "binomial":
		price, err := pricing.PriceBinomial(
			*spot, *strike, *rate, *up, *down,
			*periods, *maturity, pricing.OptionType(*optionType), *american,
		)
		if err != nil {
			logger.Errorf("binomial pricing failed: %v", err)
			os.Exit(1)
		}
		fmt.Printf("Option price: %.4f\n", price)

	case "montecarlo":
		if *interactive {
			if err := runMonteCarloPrompt(cfg, NewPrompter()); err != nil {
				logger.Errorf("monte carlo pricing failed: %v", err)
				os.Exit(1)
			}
			return
		}
		res, err := pricing.PriceMonteCarlo(
			*spot, *rate, *volatility, *maturity, *dividend,
			*paths, *payoffExpr, *seed,
		)
		if err != nil {
			logger.Errorf("monte carlo pricing failed: %v", err)
			os.Exit(1)
		}
		low, high := res.ConfidenceInterval(0.95)
		fmt.Printf("Estimated option price: %.4f (std error %.4f, 95%% CI [%.4f, %.4f])\n",
			res.Estimate, res.StdError, low, high)

	default:
		logger.Errorf("unknown engine %q, want montecarlo or binomial", *engine)
		os.Exit(2)
	}
}
