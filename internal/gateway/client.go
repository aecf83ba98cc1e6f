// Package gateway implements the venue boundary over a single websocket
// connection to the venue node: id-matched RPC calls for orders and
// snapshots, plus account-change subscriptions feeding the sequencer
// inbox as raw payloads.
package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"maker_go/internal/domain"
	"maker_go/internal/event"
	"maker_go/internal/infra"
	"maker_go/internal/wire"
	"maker_go/pkg/quant"

	"github.com/gorilla/websocket"
)

const (
	pingInterval      = 20 * time.Second
	handshakeTimeout  = 10 * time.Second
	defaultRPCTimeout = 5 * time.Second
	maxRetries        = 10
)

// Config holds the venue connection parameters.
type Config struct {
	URL               string
	Market            string
	Owner             string // maker identity key
	BidsAccount       string
	AsksAccount       string
	EventQueueAccount string
	BaseWallet        string
	QuoteWallet       string
	RequestTimeout    time.Duration
}

// Client talks to the venue node. It implements domain.Gateway and feeds
// account-change notifications into the sequencer inbox. One goroutine
// reads the socket; RPC callers park on per-request channels.
type Client struct {
	cfg   Config
	inbox chan<- event.Event

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	writeMu   sync.Mutex

	reqID      atomic.Uint64
	pendingMu  sync.Mutex
	pending    map[uint64]chan envelope
	arrivalSeq uint64 // local notification numbering, readLoop only

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClient factory
func NewClient(cfg Config, inbox chan<- event.Event) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRPCTimeout
	}
	return &Client{
		cfg:     cfg,
		inbox:   inbox,
		pending: make(map[uint64]chan envelope),
	}
}

// Connect starts the connection loop and returns once the first dial
// succeeded, so startup snapshots can be loaded immediately.
func (c *Client) Connect(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	if err := c.connect(ctx); err != nil {
		return err
	}

	c.wg.Add(1)
	go c.connectionLoop(ctx)
	return nil
}

// Disconnect tears the socket down and waits for the loops to exit.
func (c *Client) Disconnect() {
	if c.cancel != nil {
		c.cancel()
	}
	c.closeConnection()
	c.wg.Wait()
}

// IsConnected reports the socket state.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Client) connectionLoop(ctx context.Context) {
	defer c.wg.Done()

	// Connect already dialed once; read until the socket drops, then
	// redial with backoff.
	c.readLoop(ctx)

	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := c.connect(ctx); err != nil {
			slog.Warn("Venue connection failed", slog.Any("error", err), slog.Int("retry", retryCount))
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0 // Infinite retry loop for monitoring
			}
			delay := infra.CalculateBackoff(retryCount)
			time.Sleep(delay)
		} else {
			retryCount = 0
			c.readLoop(ctx)
		}
	}
}

func (c *Client) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return domain.NewGatewayError("connect", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	infra.GlobalMetrics.SetConnected(true)

	if err := c.subscribe(); err != nil {
		c.closeConnection()
		return err
	}

	go c.pingLoop(ctx)
	slog.Info("Venue connected", slog.String("url", c.cfg.URL))
	return nil
}

func (c *Client) subscribe() error {
	req := request{
		ID:     c.reqID.Add(1),
		Method: "subscribe",
		Params: subscribeParams{Accounts: []string{
			c.cfg.BidsAccount,
			c.cfg.AsksAccount,
			c.cfg.EventQueueAccount,
		}},
	}
	b, err := json.Marshal(req)
	if err != nil {
		return domain.NewFatalGatewayError("subscribe", err)
	}
	return c.threadSafeWrite(b)
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.RLock()
			conn, connected := c.conn, c.connected
			c.mu.RUnlock()
			if !connected {
				return
			}
			c.writeMu.Lock()
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (c *Client) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.closeConnection()
			return
		default:
		}

		c.mu.RLock()
		conn, connected := c.conn, c.connected
		c.mu.RUnlock()
		if !connected {
			return
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			slog.Warn("Venue read failed", slog.Any("error", err))
			c.closeConnection()
			return
		}

		var env envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			slog.Error("Unparseable venue message", slog.Any("error", err))
			infra.GlobalMetrics.RecordError()
			continue
		}

		if env.ID != nil {
			c.deliverResponse(env)
			continue
		}
		if env.Method == "accountNotification" {
			c.deliverNotification(ctx, env.Params)
			continue
		}
		slog.Warn("Unknown venue push", slog.String("method", env.Method))
	}
}

func (c *Client) deliverResponse(env envelope) {
	c.pendingMu.Lock()
	ch, ok := c.pending[*env.ID]
	if ok {
		delete(c.pending, *env.ID)
	}
	c.pendingMu.Unlock()
	if ok {
		ch <- env
	}
}

func (c *Client) deliverNotification(ctx context.Context, params json.RawMessage) {
	var note accountNotification
	if err := json.Unmarshal(params, &note); err != nil {
		slog.Error("Bad account notification", slog.Any("error", err))
		infra.GlobalMetrics.RecordError()
		return
	}

	var account event.Account
	switch note.Account {
	case c.cfg.BidsAccount:
		account = event.AccountBids
	case c.cfg.AsksAccount:
		account = event.AccountAsks
	case c.cfg.EventQueueAccount:
		account = event.AccountEventQueue
	default:
		slog.Warn("Notification for unsubscribed account", slog.String("account", note.Account))
		return
	}

	raw, err := base64.StdEncoding.DecodeString(note.Data)
	if err != nil {
		slog.Error("Bad account payload encoding", slog.Any("error", err))
		infra.GlobalMetrics.RecordError()
		return
	}

	c.arrivalSeq++
	ev := event.AcquireAccountUpdateEvent()
	ev.Seq = c.arrivalSeq
	ev.Ts = quant.TimeStamp(time.Now().UnixMicro())
	ev.Account = account
	ev.Data = append(ev.Data, raw...)

	select {
	case c.inbox <- ev:
	case <-ctx.Done():
		event.ReleaseAccountUpdateEvent(ev)
	}
}

func (c *Client) closeConnection() {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.connected = false
	c.mu.Unlock()
	infra.GlobalMetrics.SetConnected(false)
}

func (c *Client) threadSafeWrite(b []byte) error {
	c.mu.RLock()
	conn, connected := c.conn, c.connected
	c.mu.RUnlock()
	if !connected {
		return domain.NewGatewayError("write", domain.ErrNotConnected)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return domain.NewGatewayError("write", err)
	}
	return nil
}

// call performs one id-matched RPC. Transport problems and timeouts are
// retriable; an explicit venue error is a rejection and is not.
func (c *Client) call(ctx context.Context, method string, params, result any) error {
	id := c.reqID.Add(1)
	ch := make(chan envelope, 1)

	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	b, err := json.Marshal(request{ID: id, Method: method, Params: params})
	if err != nil {
		return domain.NewFatalGatewayError(method, err)
	}
	if err := c.threadSafeWrite(b); err != nil {
		return domain.NewGatewayError(method, err)
	}

	select {
	case <-ctx.Done():
		return domain.NewGatewayError(method, ctx.Err())
	case <-time.After(c.cfg.RequestTimeout):
		return domain.NewGatewayError(method, fmt.Errorf("timeout after %s", c.cfg.RequestTimeout))
	case env := <-ch:
		if env.Error != nil {
			return domain.NewFatalGatewayError(method, fmt.Errorf("%w: %s", domain.ErrOrderRejected, env.Error.Message))
		}
		if result != nil {
			if err := json.Unmarshal(env.Result, result); err != nil {
				return domain.NewFatalGatewayError(method, err)
			}
		}
		return nil
	}
}

// loadAccount fetches and decodes one raw account buffer.
func (c *Client) loadAccount(ctx context.Context, key string) ([]byte, error) {
	var res accountDataResult
	if err := c.call(ctx, "getAccountData", accountDataParams{Account: key}, &res); err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(res.Data)
	if err != nil {
		return nil, domain.NewFatalGatewayError("getAccountData", err)
	}
	return raw, nil
}

// LoadBook implements domain.Gateway.
func (c *Client) LoadBook(ctx context.Context, side domain.Side) ([]domain.BookOrder, error) {
	key := c.cfg.BidsAccount
	if side == domain.SideAsk {
		key = c.cfg.AsksAccount
	}
	raw, err := c.loadAccount(ctx, key)
	if err != nil {
		return nil, err
	}
	orders, err := wire.DecodeBookOrders(raw, side)
	if err != nil {
		return nil, domain.NewFatalGatewayError("loadBook", err)
	}
	return orders, nil
}

// LoadEventCursor implements domain.Gateway.
func (c *Client) LoadEventCursor(ctx context.Context) (uint64, error) {
	raw, err := c.loadAccount(ctx, c.cfg.EventQueueAccount)
	if err != nil {
		return 0, err
	}
	cursor, err := wire.CursorOf(raw)
	if err != nil {
		return 0, domain.NewFatalGatewayError("loadEventCursor", err)
	}
	return cursor, nil
}

// PlaceOrder implements domain.Gateway.
func (c *Client) PlaceOrder(ctx context.Context, side domain.Side, price quant.PriceLots, size quant.QtyLots, id domain.OrderID) error {
	return c.call(ctx, "placeOrder", placeOrderParams{
		Market:   c.cfg.Market,
		Side:     side.String(),
		Price:    int64(price),
		Size:     int64(size),
		ClientHi: id.Hi,
		ClientLo: id.Lo,
	}, nil)
}

// CancelOrder implements domain.Gateway.
func (c *Client) CancelOrder(ctx context.Context, id domain.OrderID) error {
	return c.call(ctx, "cancelOrder", cancelOrderParams{
		Market:   c.cfg.Market,
		ClientHi: id.Hi,
		ClientLo: id.Lo,
	}, nil)
}

// Settle implements domain.Gateway.
func (c *Client) Settle(ctx context.Context, account domain.SettleAccount) error {
	return c.call(ctx, "settleFunds", settleParams{
		Market:      c.cfg.Market,
		OpenOrders:  account.Key,
		BaseWallet:  c.cfg.BaseWallet,
		QuoteWallet: c.cfg.QuoteWallet,
	}, nil)
}

// OpenOrdersAccounts implements domain.Gateway.
func (c *Client) OpenOrdersAccounts(ctx context.Context) ([]domain.SettleAccount, error) {
	var res []openOrdersAccount
	err := c.call(ctx, "openOrders", openOrdersParams{Market: c.cfg.Market, Owner: c.cfg.Owner}, &res)
	if err != nil {
		return nil, err
	}
	accounts := make([]domain.SettleAccount, 0, len(res))
	for _, a := range res {
		accounts = append(accounts, domain.SettleAccount{
			Key:       a.Account,
			BaseFree:  quant.QtyLots(a.BaseFree),
			QuoteFree: quant.QtyLots(a.QuoteFree),
		})
	}
	return accounts, nil
}

var _ domain.Gateway = (*Client)(nil)
