// internal/dex/jupiter/client.go
package jupiter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"resty.dev/v3"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
	"github.com/rovshanmuradov/solana-observer/internal/utils/metrics"
)

const (
	// DefaultQuoteURL - публичный endpoint котировок Jupiter.
	DefaultQuoteURL = "https://quote-api.jup.ag/v6/quote"

	defaultTimeout     = 15 * time.Second
	defaultSlippageBps = 50
	opQuote            = "quote"
)

// Config задает параметры клиента котировок.
type Config struct {
	QuoteURL    string
	Timeout     time.Duration
	SlippageBps int
	// RatePerMinute ограничивает частоту запросов, 0 - без ограничения.
	RatePerMinute int
}

// Client - адаптер сервиса котировок. Как и RPC адаптер, повторов не делает.
type Client struct {
	http        *resty.Client
	quoteURL    string
	slippageBps int
	logger      *zap.Logger
	metrics     *metrics.Collector
}

// Проверяем, что Client реализует blockchain.Quoter интерфейс
var _ blockchain.Quoter = (*Client)(nil)

// NewClient создает клиент котировок.
func NewClient(cfg Config, logger *zap.Logger, collector *metrics.Collector) *Client {
	if cfg.QuoteURL == "" {
		cfg.QuoteURL = DefaultQuoteURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.SlippageBps <= 0 {
		cfg.SlippageBps = defaultSlippageBps
	}
	logger = logger.Named("jupiter")

	limit := rate.Inf
	if cfg.RatePerMinute > 0 {
		limit = rate.Limit(float64(cfg.RatePerMinute) / 60)
	}
	limiter := rate.NewLimiter(limit, 1)

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetResponseBodyUnlimitedReads(true).
		SetHeader("Accept", "application/json").
		AddRequestMiddleware(func(_ *resty.Client, r *resty.Request) error {
			if err := limiter.Wait(r.Context()); err != nil {
				logger.Debug("Rate limiter wait failed", zap.Error(err))
				return err
			}
			return nil
		})

	return &Client{
		http:        httpClient,
		quoteURL:    cfg.QuoteURL,
		slippageBps: cfg.SlippageBps,
		logger:      logger,
		metrics:     collector,
	}
}

// Close освобождает ресурсы HTTP клиента.
func (c *Client) Close() error {
	return c.http.Close()
}

// Quote запрашивает лучшую котировку обмена amountBaseUnits inputMint на outputMint.
// Пустой routePlan или поле error в ответе - Protocol ошибка (маршрута нет).
func (c *Client) Quote(ctx context.Context, inputMint, outputMint solana.PublicKey, amountBaseUnits uint64) (*blockchain.Quote, error) {
	start := time.Now()
	q, err := c.quote(ctx, inputMint, outputMint, amountBaseUnits)

	outcome := "ok"
	if err != nil {
		outcome = blockchain.KindOf(err).String()
		c.logger.Debug("Quote failed",
			zap.String("input_mint", inputMint.String()),
			zap.Uint64("amount", amountBaseUnits),
			zap.Error(err))
	}
	c.metrics.RecordRPC(opQuote, outcome, time.Since(start))
	return q, err
}

func (c *Client) quote(ctx context.Context, inputMint, outputMint solana.PublicKey, amountBaseUnits uint64) (*blockchain.Quote, error) {
	if amountBaseUnits == 0 {
		return nil, blockchain.ValidationError(opQuote, errors.New("amount must be positive"))
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"inputMint":   inputMint.String(),
			"outputMint":  outputMint.String(),
			"amount":      strconv.FormatUint(amountBaseUnits, 10),
			"slippageBps": strconv.Itoa(c.slippageBps),
		}).
		Get(c.quoteURL)
	if err != nil {
		return nil, blockchain.NetworkError(opQuote, err)
	}

	body := resp.Bytes()
	validJSON := len(body) > 0 && sonic.Valid(body)

	// Агрегатор отвечает 4xx с полем error, когда маршрута нет
	var parsed quoteResponse
	if validJSON {
		if err := sonic.Unmarshal(body, &parsed); err != nil {
			return nil, blockchain.DecodeError(opQuote, err)
		}
		if parsed.Error != "" {
			return nil, blockchain.ProtocolError(opQuote, fmt.Errorf("%s: %s", parsed.ErrorCode, parsed.Error))
		}
	}

	if !resp.IsSuccess() {
		return nil, blockchain.NetworkError(opQuote, fmt.Errorf("http status %d", resp.StatusCode()))
	}
	if !validJSON {
		return nil, blockchain.DecodeError(opQuote, errors.New("malformed json body"))
	}

	return parsed.toQuote(inputMint, outputMint, amountBaseUnits)
}

func (r *quoteResponse) toQuote(inputMint, outputMint solana.PublicKey, amountBaseUnits uint64) (*blockchain.Quote, error) {
	if r.OutAmount == "" {
		return nil, blockchain.ProtocolError(opQuote, errors.New("missing outAmount"))
	}
	if len(r.RoutePlan) == 0 {
		return nil, blockchain.ProtocolError(opQuote, errors.New("empty route plan"))
	}

	out, err := strconv.ParseUint(r.OutAmount, 10, 64)
	if err != nil {
		return nil, blockchain.DecodeError(opQuote, fmt.Errorf("outAmount %q: %w", r.OutAmount, err))
	}

	in := amountBaseUnits
	if r.InAmount != "" {
		if parsedIn, err := strconv.ParseUint(r.InAmount, 10, 64); err == nil {
			in = parsedIn
		}
	}

	q := &blockchain.Quote{
		InputMint:  inputMint,
		OutputMint: outputMint,
		InAmount:   in,
		OutAmount:  out,
		RouteHops:  len(r.RoutePlan),
	}
	if r.PriceImpactPct != "" {
		if impact, err := decimal.NewFromString(r.PriceImpactPct); err == nil {
			q.PriceImpactPct = decimal.NewNullDecimal(impact)
		}
	}
	return q, nil
}
