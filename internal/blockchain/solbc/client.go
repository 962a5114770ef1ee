// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/ast"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/blockchain"
	"github.com/rovshanmuradov/solana-observer/internal/utils/metrics"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultHeavyTimeout = 25 * time.Second
)

// errNullResult возвращается из Call, когда узел ответил "result": null.
var errNullResult = errors.New("null result")

// Options задает параметры подключения к RPC узлу.
type Options struct {
	RPCURL string
	// Timeout применяется к легким вызовам (баланс, supply, подписи).
	Timeout time.Duration
	// HeavyTimeout применяется к getTransaction.
	HeavyTimeout time.Duration
	HTTPClient   *http.Client
	Headers      map[string]string
}

// Client – тонкий адаптер для JSON-RPC узла Solana. Повторов не делает,
// каждую ошибку классифицирует как Network, Decode или Protocol.
type Client struct {
	rpc          *rpc.Client
	endpoint     string
	timeout      time.Duration
	heavyTimeout time.Duration
	logger       *zap.Logger
	metrics      *metrics.Collector
}

// NewClient создаёт новый клиент, принимая опции, логгер и коллектор метрик через dependency injection.
func NewClient(opts Options, logger *zap.Logger, collector *metrics.Collector) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.HeavyTimeout <= 0 {
		opts.HeavyTimeout = defaultHeavyTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	rpcClient := jsonrpc.NewClientWithOpts(opts.RPCURL, &jsonrpc.RPCClientOpts{
		HTTPClient:    hc,
		CustomHeaders: opts.Headers,
	})

	return &Client{
		rpc:          rpc.NewWithCustomRPCClient(rpcClient),
		endpoint:     opts.RPCURL,
		timeout:      opts.Timeout,
		heavyTimeout: opts.HeavyTimeout,
		logger:       logger.Named("solbc-client"),
		metrics:      collector,
	}
}

// Call выполняет один JSON-RPC вызов и декодирует поле result в out.
// Ошибки:
//   - Network: транспорт, таймаут, отмена контекста, статус не 2xx;
//   - Decode: тело не является корректным JSON или result не ложится в out;
//   - Protocol: конверт с error или без result.
//
// Ответ "result": null возвращается как errNullResult внутри Protocol ошибки,
// вызывающий код решает, означает ли это NotFound.
func (c *Client) Call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	return c.call(ctx, c.timeout, method, params, out)
}

func (c *Client) call(ctx context.Context, timeout time.Duration, method string, params []interface{}, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var body []byte
	var statusErr error

	err := c.rpc.RPCCallWithCallback(ctx, method, params, func(_ *http.Request, resp *http.Response) error {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			statusErr = fmt.Errorf("http status %d", resp.StatusCode)
			return statusErr
		}
		b, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return readErr
		}
		body = b
		return nil
	})

	if err == nil {
		err = decodeEnvelope(method, body, out)
	} else {
		err = blockchain.NetworkError(method, err)
	}

	c.record(method, start, err)
	return err
}

// decodeEnvelope разбирает JSON-RPC конверт в одном месте для всех вызовов.
func decodeEnvelope(method string, body []byte, out interface{}) error {
	if !sonic.Valid(body) {
		return blockchain.DecodeError(method, errors.New("malformed json body"))
	}

	root, err := sonic.Get(body)
	if err != nil {
		return blockchain.DecodeError(method, err)
	}

	if errNode := root.Get("error"); errNode.Exists() && errNode.TypeSafe() != ast.V_NULL {
		raw, rawErr := errNode.Raw()
		if rawErr != nil {
			return blockchain.DecodeError(method, rawErr)
		}
		var rpcErr jsonrpc.RPCError
		if err := sonic.UnmarshalString(raw, &rpcErr); err != nil {
			return blockchain.ProtocolError(method, fmt.Errorf("error envelope: %s", raw))
		}
		return blockchain.ProtocolError(method, &rpcErr)
	}

	result := root.Get("result")
	if !result.Exists() {
		return blockchain.ProtocolError(method, errors.New("missing result"))
	}
	if result.TypeSafe() == ast.V_NULL {
		return blockchain.ProtocolError(method, errNullResult)
	}
	if out == nil {
		return nil
	}

	raw, err := result.Raw()
	if err != nil {
		return blockchain.DecodeError(method, err)
	}
	if err := sonic.UnmarshalString(raw, out); err != nil {
		return blockchain.DecodeError(method, err)
	}
	return nil
}

func (c *Client) record(method string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = blockchain.KindOf(err).String()
		c.logger.Debug("rpc call failed",
			zap.String("method", method),
			zap.String("endpoint", c.endpoint),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
	}
	c.metrics.RecordRPC(method, outcome, time.Since(start))
}

// IsNullResult сообщает, что узел вернул пустой result.
func IsNullResult(err error) bool {
	return errors.Is(err, errNullResult)
}
