package collector

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"FXSentinel/internal/model"
	"FXSentinel/internal/pacer"
	"FXSentinel/internal/retrier"
)

const DefaultAlphaVantageURL = "https://www.alphavantage.co/query"

const (
	QueryRealtime = "CURRENCY_EXCHANGE_RATE"
	QueryIntraday = "FX_INTRADAY"
	QueryDaily    = "FX_DAILY"
)

// AlphaVantage implements Provider on the Alpha Vantage FX endpoints.
type AlphaVantage struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Pacer   pacer.Pacer
	Retrier *retrier.Retrier
	// Observe, when set, is told about every upstream call and its outcome.
	Observe func(query string, err error)
	logger  *zap.Logger
}

// NewAlphaVantage creates a provider with optional proxy support. Every call
// waits on p first.
func NewAlphaVantage(apiKey, proxyURL string, timeout time.Duration, p pacer.Pacer, r *retrier.Retrier, logger *zap.Logger) *AlphaVantage {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if p == nil {
		p = pacer.NewIntervalPacer(pacer.DefaultInterval)
	}
	if r == nil {
		r = retrier.New(retrier.WithRetryIf(model.IsRetryable))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlphaVantage{
		BaseURL: DefaultAlphaVantageURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		Pacer:   p,
		Retrier: r,
		logger:  logger,
	}
}

func (a *AlphaVantage) Name() string { return "alphavantage" }

func (a *AlphaVantage) RealtimeRate(ctx context.Context, pair model.Pair) (float64, error) {
	body, err := a.call(ctx, url.Values{
		"function":      {QueryRealtime},
		"from_currency": {pair.Base()},
		"to_currency":   {pair.Quote()},
	})
	if err != nil {
		return 0, err
	}

	raw, ok := body["Realtime Currency Exchange Rate"]
	if !ok {
		return 0, &model.MalformedResponseError{Op: QueryRealtime, Detail: "missing \"Realtime Currency Exchange Rate\""}
	}
	var rate map[string]string
	if err := json.Unmarshal(raw, &rate); err != nil {
		return 0, &model.MalformedResponseError{Op: QueryRealtime, Detail: err.Error()}
	}
	s, ok := rate["5. Exchange Rate"]
	if !ok {
		return 0, &model.MalformedResponseError{Op: QueryRealtime, Detail: "missing \"5. Exchange Rate\""}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &model.MalformedResponseError{Op: QueryRealtime, Detail: "exchange rate " + strconv.Quote(s)}
	}
	return v, nil
}

func (a *AlphaVantage) Intraday(ctx context.Context, pair model.Pair) (model.TimeSeries, error) {
	body, err := a.call(ctx, url.Values{
		"function":    {QueryIntraday},
		"from_symbol": {pair.Base()},
		"to_symbol":   {pair.Quote()},
		"interval":    {"5min"},
		"outputsize":  {"compact"},
	})
	if err != nil {
		return nil, err
	}
	return decodeSeries(QueryIntraday, body, "Time Series FX (5min)")
}

func (a *AlphaVantage) Daily(ctx context.Context, pair model.Pair) (model.TimeSeries, error) {
	body, err := a.call(ctx, url.Values{
		"function":    {QueryDaily},
		"from_symbol": {pair.Base()},
		"to_symbol":   {pair.Quote()},
		"outputsize":  {"compact"},
	})
	if err != nil {
		return nil, err
	}
	return decodeSeries(QueryDaily, body, "Time Series FX (Daily)")
}

// call issues one paced, retried GET and returns the top-level JSON object.
func (a *AlphaVantage) call(ctx context.Context, params url.Values) (map[string]json.RawMessage, error) {
	query := params.Get("function")
	params.Set("apikey", a.APIKey)
	endpoint := a.BaseURL + "?" + params.Encode()

	body, err := retrier.DoWithData(ctx, a.Retrier, func(ctx context.Context) (map[string]json.RawMessage, error) {
		if err := a.Pacer.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "pacing")
		}
		return a.get(ctx, query, endpoint)
	})
	if a.Observe != nil {
		a.Observe(query, err)
	}
	if err != nil {
		return nil, err
	}

	for _, key := range []string{"Error Message", "Note", "Information"} {
		if raw, ok := body[key]; ok {
			var msg string
			_ = json.Unmarshal(raw, &msg)
			return nil, &model.MalformedResponseError{Op: query, Detail: key + ": " + msg}
		}
	}
	return body, nil
}

func (a *AlphaVantage) get(ctx context.Context, query, endpoint string) (map[string]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, &model.TransportError{Op: query, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.TransportError{Op: query, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		a.logger.Warn("alphavantage request failed", zap.String("query", query), zap.Int("status", resp.StatusCode))
		return nil, &model.TransportError{Op: query, StatusCode: resp.StatusCode, Err: errors.New(string(raw))}
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, &model.MalformedResponseError{Op: query, Detail: err.Error()}
	}
	return body, nil
}

// avBar is one bar as Alpha Vantage encodes it: numbered string fields.
type avBar struct {
	High  string `json:"2. high"`
	Low   string `json:"3. low"`
	Close string `json:"4. close"`
}

// decodeSeries parses the named time-series section. A missing section is an
// empty series so that callers can degrade.
func decodeSeries(query string, body map[string]json.RawMessage, section string) (model.TimeSeries, error) {
	raw, ok := body[section]
	if !ok {
		return model.TimeSeries{}, nil
	}
	var bars map[string]avBar
	if err := json.Unmarshal(raw, &bars); err != nil {
		return nil, &model.MalformedResponseError{Op: query, Detail: err.Error()}
	}

	ts := make(model.TimeSeries, len(bars))
	for stamp, b := range bars {
		var bar model.Bar
		var err error
		if bar.High, err = strconv.ParseFloat(b.High, 64); err != nil {
			return nil, &model.MalformedResponseError{Op: query, Detail: stamp + ": high " + strconv.Quote(b.High)}
		}
		if bar.Low, err = strconv.ParseFloat(b.Low, 64); err != nil {
			return nil, &model.MalformedResponseError{Op: query, Detail: stamp + ": low " + strconv.Quote(b.Low)}
		}
		if bar.Close, err = strconv.ParseFloat(b.Close, 64); err != nil {
			return nil, &model.MalformedResponseError{Op: query, Detail: stamp + ": close " + strconv.Quote(b.Close)}
		}
		ts[stamp] = bar
	}
	return ts, nil
}
