package journal

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
)

// Run mirrors the backtest_runs table.
type Run struct {
	RunID        string
	Created      time.Time
	Dataset      string
	Tickers      []string
	StopStrategy string
	EquityMode   string
	Config       []byte // JSON of the effective configuration
	RiskPct      float64

	// First and last bar dates across all tickers.
	Start time.Time
	End   time.Time

	Trades int
	Wins   int
	Losses int

	StartEquity decimal.Decimal
	EndEquity   decimal.Decimal
	NetPnL      decimal.Decimal

	ReturnPct    float64
	WinRate      float64
	MeanR        float64
	MedianR      float64
	SkewWarning  bool
	ProfitFactor float64
	MaxDDPct     float64

	// Tickers whose data could not be used, with the reason.
	Failed map[string]string

	Notes []string
}

var runOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"money":  func(d decimal.Decimal) string { return d.StringFixed(2) },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var runOrg = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

// RenderOrg renders the run summary as an Org-mode heading.
func (r *Run) RenderOrg() (string, error) {
	var buf bytes.Buffer
	if err := runOrg.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("render run %s: %w", r.RunID, err)
	}
	return buf.String(), nil
}

// WriteOrg writes the rendered summary to path.
func (r *Run) WriteOrg(path string) error {
	s, err := r.RenderOrg()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0o644)
}

const RunOrgTemplate = `* BACKTEST: {{.StopStrategy}} {{range $i, $t := .Tickers}}{{if $i}},{{end}}{{$t}}{{end}}
:PROPERTIES:
:RUN_ID:        {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STOP_STRATEGY: {{.StopStrategy}}
:EQUITY_MODE:   {{.EquityMode}}
:DATASET:       {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:    {{.Start.Format "2006-01-02"}}
:END_DATE:      {{.End.Format "2006-01-02"}}
:START_EQUITY:  {{money .StartEquity}}
:END_EQUITY:    {{money .EndEquity}}
:NET_PNL:       {{money .NetPnL}}
:RETURN_PCT:    {{printf "%.2f" .ReturnPct}}
:MAX_DD_PCT:    {{printf "%.2f" .MaxDDPct}}
:TRADES:        {{.Trades}}
:WINS:          {{.Wins}}
:LOSSES:        {{.Losses}}
:WIN_RATE:      {{printf "%.2f" (mul100 .WinRate)}}
:MEDIAN_R:      {{printf "%.3f" .MedianR}}
:MEAN_R:        {{printf "%.3f" .MeanR}}
:CREATED:       [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Parameters
| Parameter        | Value |
|------------------+-------|
| Stop strategy    | {{.StopStrategy}} |
| Risk per trade % | {{printf "%.2f" .RiskPct}} |
| Config           | {{printf "%s" .Config}} |

** Performance Summary
- Net P/L:        *{{money .NetPnL}}*
- Return:         *{{printf "%.2f" .ReturnPct}}%*
- Max Drawdown:   *{{printf "%.2f" .MaxDDPct}}%*
- Win Rate:       *{{printf "%.2f" (mul100 .WinRate)}}%*
- Median R:       *{{printf "%.3f" .MedianR}}*
- Mean R:         *{{printf "%.3f" .MeanR}}*{{if .SkewWarning}} (outlier-driven: mean well above median){{end}}
- Profit Factor:  *{{printf "%.2f" .ProfitFactor}}*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{.Trades}} |
{{- if .Failed }}

** Failed Tickers
{{- range $t, $why := .Failed }}
- {{$t}}: {{$why}}
{{- end }}
{{- end }}
{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`
