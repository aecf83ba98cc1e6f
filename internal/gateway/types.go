package gateway

import "encoding/json"

// JSON envelope shared by requests, responses and subscription pushes on
// the venue node socket. Responses echo the request id; pushes carry a
// method and no id.
type envelope struct {
	ID     *uint64         `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *venueError     `json:"error,omitempty"`
}

type venueError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *venueError) Error() string {
	return e.Message
}

type request struct {
	ID     uint64 `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

type subscribeParams struct {
	Accounts []string `json:"accounts"`
}

type accountDataParams struct {
	Account string `json:"account"`
}

type accountDataResult struct {
	Data string `json:"data"` // base64 account buffer
}

type accountNotification struct {
	Account string `json:"account"`
	Data    string `json:"data"` // base64 account buffer
}

type placeOrderParams struct {
	Market   string `json:"market"`
	Side     string `json:"side"`
	Price    int64  `json:"price"`
	Size     int64  `json:"size"`
	ClientHi uint64 `json:"client_id_hi"`
	ClientLo uint64 `json:"client_id_lo"`
}

type cancelOrderParams struct {
	Market   string `json:"market"`
	ClientHi uint64 `json:"client_id_hi"`
	ClientLo uint64 `json:"client_id_lo"`
}

type settleParams struct {
	Market      string `json:"market"`
	OpenOrders  string `json:"open_orders"`
	BaseWallet  string `json:"base_wallet"`
	QuoteWallet string `json:"quote_wallet"`
}

type openOrdersParams struct {
	Market string `json:"market"`
	Owner  string `json:"owner"`
}

type openOrdersAccount struct {
	Account   string `json:"account"`
	BaseFree  int64  `json:"base_free"`
	QuoteFree int64  `json:"quote_free"`
}
