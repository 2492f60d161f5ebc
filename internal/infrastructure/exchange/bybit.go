package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

const (
	BybitBaseURL        = "https://api.bybit.com"
	BybitTestnetBaseURL = "https://api-testnet.bybit.com"
	BybitWSURL          = "wss://stream.bybit.com/v5/public/linear"
	BybitTestnetWSURL   = "wss://stream-testnet.bybit.com/v5/public/linear"

	bybitRecvWindow = 5000

	bybitCodePositionModeNotModified = 110025
	bybitCodeLeverageNotModified     = 110043
)

// Bybit hedge-mode position index.
const (
	bybitIdxOneWay = 0
	bybitIdxLong   = 1
	bybitIdxShort  = 2
)

// Bybit conditional order trigger direction.
const (
	bybitTriggerRise = 1
	bybitTriggerFall = 2
)

type BybitAdapter struct {
	apiKey    string
	apiSecret string
	baseURL   string
	wsURL     string
	client    *http.Client
	now       func() time.Time
	dialer    *websocket.Dialer
}

func NewBybitAdapter(apiKey, apiSecret, baseURL, wsURL string, testnet bool) *BybitAdapter {
	if baseURL == "" {
		baseURL = BybitBaseURL
		if testnet {
			baseURL = BybitTestnetBaseURL
		}
	}
	if wsURL == "" {
		wsURL = BybitWSURL
		if testnet {
			wsURL = BybitTestnetWSURL
		}
	}
	return &BybitAdapter{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   baseURL,
		wsURL:     wsURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		now:       time.Now,
		dialer:    websocket.DefaultDialer,
	}
}

func (b *BybitAdapter) Name() string { return "bybit" }

// --- REST API ---

func (b *BybitAdapter) sign(params string, timestamp int64) string {
	// timestamp + apiKey + recvWindow + params
	toSign := fmt.Sprintf("%d%s%d%s", timestamp, b.apiKey, bybitRecvWindow, params)
	h := hmac.New(sha256.New, []byte(b.apiSecret))
	h.Write([]byte(toSign))
	return hex.EncodeToString(h.Sum(nil))
}

// bybitEnvelope is the common v5 response wrapper.
type bybitEnvelope struct {
	RetCode int64           `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
}

// sendRequest signs and sends a v5 request and decodes the envelope into out.
// A non-zero retCode becomes a domain.ExchangeError.
func (b *BybitAdapter) sendRequest(ctx context.Context, method, path string, query url.Values, payload map[string]interface{}, out interface{}) error {
	timestamp := b.now().UnixMilli()

	var body []byte
	var paramsStr string
	target := b.baseURL + path

	if method == http.MethodGet {
		paramsStr = query.Encode()
		if paramsStr != "" {
			target += "?" + paramsStr
		}
	} else if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = jsonBody
		paramsStr = string(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("X-BAPI-API-KEY", b.apiKey)
	req.Header.Set("X-BAPI-TIMESTAMP", strconv.FormatInt(timestamp, 10))
	req.Header.Set("X-BAPI-SIGN", b.sign(paramsStr, timestamp))
	req.Header.Set("X-BAPI-RECV-WINDOW", strconv.Itoa(bybitRecvWindow))
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("bybit http %d: %s", resp.StatusCode, string(respBody))
	}

	var env bybitEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("bybit decode %s: %w", path, err)
	}
	if env.RetCode != 0 {
		return &domain.ExchangeError{Exchange: b.Name(), Code: env.RetCode, Message: env.RetMsg}
	}
	if out == nil || len(env.Result) == 0 {
		return nil
	}
	return json.Unmarshal(env.Result, out)
}

func linearQuery(symbol string) url.Values {
	q := url.Values{}
	q.Set("category", "linear")
	if symbol != "" {
		q.Set("symbol", symbol)
	}
	return q
}

func (b *BybitAdapter) GetInstrument(ctx context.Context, symbol string) (*domain.Instrument, error) {
	var result struct {
		List []struct {
			Symbol      string `json:"symbol"`
			Status      string `json:"status"`
			BaseCoin    string `json:"baseCoin"`
			QuoteCoin   string `json:"quoteCoin"`
			PriceFilter struct {
				TickSize string `json:"tickSize"`
			} `json:"priceFilter"`
			LotSizeFilter struct {
				QtyStep     string `json:"qtyStep"`
				MinOrderQty string `json:"minOrderQty"`
			} `json:"lotSizeFilter"`
		} `json:"list"`
	}

	if err := b.sendRequest(ctx, http.MethodGet, "/v5/market/instruments-info", linearQuery(symbol), nil, &result); err != nil {
		return nil, err
	}

	for _, item := range result.List {
		if item.Symbol != symbol {
			continue
		}
		if item.PriceFilter.TickSize == "" || item.LotSizeFilter.QtyStep == "" {
			return nil, fmt.Errorf("%s: %w", symbol, domain.ErrFilterMissing)
		}
		tick, err := decimal.NewFromString(item.PriceFilter.TickSize)
		if err != nil {
			return nil, fmt.Errorf("%s tick size: %w", symbol, err)
		}
		step, err := decimal.NewFromString(item.LotSizeFilter.QtyStep)
		if err != nil {
			return nil, fmt.Errorf("%s qty step: %w", symbol, err)
		}
		minQty, _ := decimal.NewFromString(item.LotSizeFilter.MinOrderQty)

		return &domain.Instrument{
			Symbol:      item.Symbol,
			BaseAsset:   item.BaseCoin,
			QuoteAsset:  item.QuoteCoin,
			Status:      item.Status,
			TickSize:    tick,
			StepSize:    step,
			MinQuantity: minQty,
		}, nil
	}

	return nil, fmt.Errorf("%s: %w", symbol, domain.ErrSymbolNotFound)
}

func (b *BybitAdapter) GetMarkPrice(ctx context.Context, symbol string) (float64, error) {
	var result struct {
		List []struct {
			Symbol    string `json:"symbol"`
			MarkPrice string `json:"markPrice"`
		} `json:"list"`
	}
	if err := b.sendRequest(ctx, http.MethodGet, "/v5/market/tickers", linearQuery(symbol), nil, &result); err != nil {
		return 0, err
	}
	if len(result.List) == 0 {
		return 0, fmt.Errorf("%s: %w", symbol, domain.ErrSymbolNotFound)
	}
	return strconv.ParseFloat(result.List[0].MarkPrice, 64)
}

func (b *BybitAdapter) GetBalance(ctx context.Context, asset string) (*domain.Balance, error) {
	q := url.Values{}
	q.Set("accountType", "UNIFIED")
	q.Set("coin", asset)

	var result struct {
		List []struct {
			Coin []struct {
				Coin                string `json:"coin"`
				WalletBalance       string `json:"walletBalance"`
				AvailableToWithdraw string `json:"availableToWithdraw"`
			} `json:"coin"`
		} `json:"list"`
	}
	if err := b.sendRequest(ctx, http.MethodGet, "/v5/account/wallet-balance", q, nil, &result); err != nil {
		return nil, err
	}

	for _, acct := range result.List {
		for _, c := range acct.Coin {
			if c.Coin == asset {
				return &domain.Balance{
					Asset:     asset,
					Wallet:    parseFloat(c.WalletBalance),
					Available: parseFloat(c.AvailableToWithdraw),
				}, nil
			}
		}
	}
	return &domain.Balance{Asset: asset}, nil
}

func (b *BybitAdapter) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	payload := map[string]interface{}{
		"category":     "linear",
		"symbol":       symbol,
		"buyLeverage":  strconv.Itoa(leverage),
		"sellLeverage": strconv.Itoa(leverage),
	}
	err := b.sendRequest(ctx, http.MethodPost, "/v5/position/set-leverage", nil, payload, nil)
	if isBybitCode(err, bybitCodeLeverageNotModified) {
		return nil
	}
	return err
}

func (b *BybitAdapter) EnableHedgeMode(ctx context.Context) error {
	payload := map[string]interface{}{
		"category": "linear",
		"coin":     "USDT",
		"mode":     3, // both sides
	}
	err := b.sendRequest(ctx, http.MethodPost, "/v5/position/switch-mode", nil, payload, nil)
	if isBybitCode(err, bybitCodePositionModeNotModified) {
		return nil
	}
	return err
}

func (b *BybitAdapter) PlaceOrder(ctx context.Context, req *domain.OrderRequest) (*domain.Order, error) {
	payload := map[string]interface{}{
		"category":    "linear",
		"symbol":      req.Symbol,
		"side":        bybitSide(req.Side),
		"orderType":   "Market",
		"qty":         req.Quantity,
		"positionIdx": bybitPositionIdx(req.PositionSide),
	}
	if req.ReduceOnly {
		payload["reduceOnly"] = true
	}
	if req.Type != domain.OrderTypeMarket {
		if req.StopPrice == "" {
			return nil, fmt.Errorf("%s order without trigger price: %w", req.Type, domain.ErrInvalidInput)
		}
		payload["triggerPrice"] = req.StopPrice
		payload["triggerDirection"] = bybitTriggerDirection(req.Type, req.Side)
		payload["triggerBy"] = "MarkPrice"
		payload["reduceOnly"] = true
	}

	var result struct {
		OrderID string `json:"orderId"`
	}
	if err := b.sendRequest(ctx, http.MethodPost, "/v5/order/create", nil, payload, &result); err != nil {
		return nil, orderRejected(err)
	}

	qty, _ := strconv.ParseFloat(req.Quantity, 64)
	stop, _ := strconv.ParseFloat(req.StopPrice, 64)
	return &domain.Order{
		OrderID:      result.OrderID,
		Exchange:     b.Name(),
		Symbol:       req.Symbol,
		Side:         req.Side,
		PositionSide: req.PositionSide,
		Type:         req.Type,
		Quantity:     qty,
		StopPrice:    stop,
		Status:       "New",
		CreatedAt:    b.now(),
	}, nil
}

type bybitOrder struct {
	OrderID       string `json:"orderId"`
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	OrderType     string `json:"orderType"`
	StopOrderType string `json:"stopOrderType"`
	Qty           string `json:"qty"`
	Price         string `json:"price"`
	AvgPrice      string `json:"avgPrice"`
	TriggerPrice  string `json:"triggerPrice"`
	OrderStatus   string `json:"orderStatus"`
	PositionIdx   int    `json:"positionIdx"`
	CreatedTime   string `json:"createdTime"`
}

func (b *BybitAdapter) GetOrder(ctx context.Context, symbol, orderID string) (*domain.Order, error) {
	q := linearQuery(symbol)
	q.Set("orderId", orderID)

	// Filled market orders drop out of the realtime list quickly; history has them.
	for _, path := range []string{"/v5/order/realtime", "/v5/order/history"} {
		var result struct {
			List []bybitOrder `json:"list"`
		}
		if err := b.sendRequest(ctx, http.MethodGet, path, q, nil, &result); err != nil {
			return nil, err
		}
		for _, o := range result.List {
			if o.OrderID == orderID {
				return b.toDomainOrder(o), nil
			}
		}
	}
	return nil, &domain.ExchangeError{Exchange: b.Name(), Code: 110001, Message: "order not found: " + orderID, Err: domain.ErrOrderRejected}
}

func (b *BybitAdapter) toDomainOrder(o bybitOrder) *domain.Order {
	created, _ := strconv.ParseInt(o.CreatedTime, 10, 64)
	side := domain.OrderSideBuy
	if o.Side == "Sell" {
		side = domain.OrderSideSell
	}
	typ := domain.OrderTypeMarket
	switch o.StopOrderType {
	case "TakeProfit", "PartialTakeProfit":
		typ = domain.OrderTypeTakeProfitMarket
	case "StopLoss", "PartialStopLoss", "Stop":
		typ = domain.OrderTypeStopMarket
	}
	return &domain.Order{
		OrderID:      o.OrderID,
		Exchange:     b.Name(),
		Symbol:       o.Symbol,
		Side:         side,
		PositionSide: sideFromIdx(o.PositionIdx, o.Side),
		Type:         typ,
		Quantity:     parseFloat(o.Qty),
		Price:        parseFloat(o.Price),
		AvgPrice:     parseFloat(o.AvgPrice),
		StopPrice:    parseFloat(o.TriggerPrice),
		Status:       o.OrderStatus,
		CreatedAt:    time.UnixMilli(created),
	}
}

func (b *BybitAdapter) GetPositions(ctx context.Context, symbol string) ([]*domain.Position, error) {
	var result struct {
		List []struct {
			Symbol        string `json:"symbol"`
			Side          string `json:"side"`
			Size          string `json:"size"`
			AvgPrice      string `json:"avgPrice"`
			MarkPrice     string `json:"markPrice"`
			UnrealisedPnl string `json:"unrealisedPnl"`
			Leverage      string `json:"leverage"`
			PositionIdx   int    `json:"positionIdx"`
		} `json:"list"`
	}

	if err := b.sendRequest(ctx, http.MethodGet, "/v5/position/list", linearQuery(symbol), nil, &result); err != nil {
		return nil, err
	}

	positions := make([]*domain.Position, 0, len(result.List))
	for _, raw := range result.List {
		size := parseFloat(raw.Size)
		side := sideFromIdx(raw.PositionIdx, raw.Side)
		// Bybit reports unsigned sizes; shorts are negative in the domain model.
		if side == domain.SideShort {
			size = -size
		}
		lev, _ := strconv.ParseFloat(raw.Leverage, 64)

		positions = append(positions, &domain.Position{
			Exchange:      b.Name(),
			Symbol:        raw.Symbol,
			Side:          side,
			Size:          size,
			EntryPrice:    parseFloat(raw.AvgPrice),
			CurrentPrice:  parseFloat(raw.MarkPrice),
			UnrealizedPnL: parseFloat(raw.UnrealisedPnl),
			Leverage:      int(lev),
		})
	}
	return positions, nil
}

func (b *BybitAdapter) CancelAllOrders(ctx context.Context, symbol string) error {
	payload := map[string]interface{}{
		"category": "linear",
		"symbol":   symbol,
	}
	return b.sendRequest(ctx, http.MethodPost, "/v5/order/cancel-all", nil, payload, nil)
}

func bybitSide(side domain.OrderSide) string {
	if side == domain.OrderSideSell {
		return "Sell"
	}
	return "Buy"
}

func bybitPositionIdx(side domain.Side) int {
	switch side {
	case domain.SideLong:
		return bybitIdxLong
	case domain.SideShort:
		return bybitIdxShort
	}
	return bybitIdxOneWay
}

// bybitTriggerDirection: a take-profit that sells (closing a long) fires on a rise,
// a stop that sells fires on a fall, and the buy side mirrors both.
func bybitTriggerDirection(typ domain.OrderType, side domain.OrderSide) int {
	rise := (typ == domain.OrderTypeTakeProfitMarket) == (side == domain.OrderSideSell)
	if rise {
		return bybitTriggerRise
	}
	return bybitTriggerFall
}

func sideFromIdx(idx int, rawSide string) domain.Side {
	switch idx {
	case bybitIdxLong:
		return domain.SideLong
	case bybitIdxShort:
		return domain.SideShort
	}
	if rawSide == "Sell" {
		return domain.SideShort
	}
	return domain.SideLong
}

func isBybitCode(err error, code int64) bool {
	var ee *domain.ExchangeError
	return errors.As(err, &ee) && ee.Code == code
}
