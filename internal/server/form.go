package server

import (
	"html/template"
	"net/http"
	"strconv"

	"github.com/contactkeval/option-pricer/internal/logger"
	"github.com/contactkeval/option-pricer/internal/pricing"
)

const formTemplate = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>Monte Carlo Option Pricer</title>
    <style>
      body { font-family: system-ui, -apple-system, sans-serif; margin: 2rem; line-height: 1.5; }
      form { max-width: 640px; display: grid; gap: 0.75rem; }
      label { display: flex; flex-direction: column; font-weight: 600; }
      input { padding: 0.45rem 0.5rem; font-size: 1rem; }
      .error { color: #b00020; }
      .result { margin-top: 1rem; padding: 0.75rem; background: #f3f6ff; border-left: 4px solid #2d5cf6; }
    </style>
  </head>
  <body>
    <h1>Monte Carlo Option Calculator</h1>
    <p>Simulate a single-step geometric Brownian motion under the risk-neutral measure.
    Provide your own payoff expression using <code>s</code> (or <code>S</code>, <code>S_T</code>) for the terminal price.</p>
    <form method="post">
      <label>Spot price
        <input type="number" step="any" name="spot" value="{{index .Values "spot"}}" required>
      </label>
      <label>Risk-free rate (r)
        <input type="number" step="any" name="rate" value="{{index .Values "rate"}}" required>
      </label>
      <label>Volatility (sigma)
        <input type="number" step="any" name="volatility" value="{{index .Values "volatility"}}" required>
      </label>
      <label>Maturity (years)
        <input type="number" step="any" name="maturity" value="{{index .Values "maturity"}}" required>
      </label>
      <label>Dividend yield
        <input type="number" step="any" name="dividend" value="{{index .Values "dividend"}}" required>
      </label>
      <label>Monte Carlo paths
        <input type="number" step="1" name="paths" value="{{index .Values "paths"}}" min="1" required>
      </label>
      <label>Payoff expression
        <input type="text" name="payoff" value="{{index .Values "payoff"}}" required>
      </label>
      <button type="submit">Price option</button>
    </form>

    {{if .Errors}}
      <div class="error">
        <h3>Input issues</h3>
        <ul>
          {{range .Errors}}<li>{{.}}</li>{{end}}
        </ul>
      </div>
    {{end}}

    {{if .Result}}
      <div class="result">
        <strong>Estimated option price:</strong> {{printf "%.4f" .Result.Price}}
        (std error {{printf "%.4f" .Result.StdError}})
      </div>
    {{end}}
  </body>
</html>
`

var formTmpl = template.Must(template.New("form").Parse(formTemplate))

type formResult struct {
	Price    float64
	StdError float64
}

type formView struct {
	Values map[string]string
	Errors []string
	Result *formResult
}

// handleForm renders the pricing form and, on POST, prices the submitted
// parameters, echoing the entered values back into the form.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	d := s.cfg.Defaults
	view := formView{
		Values: map[string]string{
			"spot":       strconv.FormatFloat(d.Spot, 'g', -1, 64),
			"rate":       strconv.FormatFloat(d.Rate, 'g', -1, 64),
			"volatility": strconv.FormatFloat(d.Volatility, 'g', -1, 64),
			"maturity":   strconv.FormatFloat(d.Maturity, 'g', -1, 64),
			"dividend":   strconv.FormatFloat(d.Dividend, 'g', -1, 64),
			"paths":      strconv.Itoa(d.Paths),
			"payoff":     d.Payoff,
		},
	}

	if r.Method == http.MethodPost {
		s.priceForm(r, &view)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := formTmpl.Execute(w, view); err != nil {
		logger.Errorf("event=form_render_failed err=%v", err)
	}
}

func (s *Server) priceForm(r *http.Request, view *formView) {
	if err := r.ParseForm(); err != nil {
		view.Errors = append(view.Errors, "could not parse form submission")
		return
	}

	readFloat := func(name, label string, def float64) float64 {
		raw := r.PostFormValue(name)
		if raw == "" {
			return def
		}
		view.Values[name] = raw
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			view.Errors = append(view.Errors, label+" must be numeric")
			return def
		}
		return v
	}

	d := s.cfg.Defaults
	spot := readFloat("spot", "Spot price", d.Spot)
	rate := readFloat("rate", "Risk-free rate", d.Rate)
	volatility := readFloat("volatility", "Volatility", d.Volatility)
	maturity := readFloat("maturity", "Maturity", d.Maturity)
	dividend := readFloat("dividend", "Dividend yield", d.Dividend)

	paths := d.Paths
	if raw := r.PostFormValue("paths"); raw != "" {
		view.Values["paths"] = raw
		v, err := strconv.Atoi(raw)
		if err != nil {
			view.Errors = append(view.Errors, "Paths must be an integer")
		} else {
			paths = v
		}
	}

	expression := r.PostFormValue("payoff")
	if expression == "" {
		expression = d.Payoff
	}
	view.Values["payoff"] = expression

	if len(view.Errors) > 0 {
		return
	}

	res, err := pricing.PriceMonteCarlo(spot, rate, volatility, maturity, dividend, paths, expression, 0)
	if err != nil {
		view.Errors = append(view.Errors, err.Error())
		return
	}

	logger.Infof("event=form_price estimate=%.6f paths=%d", res.Estimate, res.Paths)
	view.Result = &formResult{Price: res.Estimate, StdError: res.StdError}
}
