package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/domain"
	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
)

// Binance error codes that mean "nothing to change".
const (
	binanceCodeNoNeedChangePositionSide = -4059
	binanceCodeInvalidSymbol            = -1121
)

type BinanceAdapter struct {
	client *futures.Client
	// serveMarkPrice is futures.WsMarkPriceServeWithRate outside tests.
	serveMarkPrice func(symbol string, rate time.Duration, handler futures.WsMarkPriceHandler, errHandler futures.ErrHandler) (doneC, stopC chan struct{}, err error)
}

// NewBinanceAdapter builds a USD-M futures adapter. baseURL overrides the REST endpoint
// (testnet, proxies, tests); empty keeps the SDK default. The SDK picks the websocket
// host itself from futures.UseTestnet.
func NewBinanceAdapter(apiKey, apiSecret, baseURL string, testnet bool) *BinanceAdapter {
	if testnet {
		futures.UseTestnet = true
	}
	client := futures.NewClient(apiKey, apiSecret)
	if baseURL != "" {
		client.BaseURL = baseURL
	}
	client.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	return &BinanceAdapter{client: client, serveMarkPrice: futures.WsMarkPriceServeWithRate}
}

func (b *BinanceAdapter) Name() string { return "binance" }

func (b *BinanceAdapter) GetInstrument(ctx context.Context, symbol string) (*domain.Instrument, error) {
	info, err := b.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, b.wrap(err)
	}

	for i := range info.Symbols {
		s := &info.Symbols[i]
		if s.Symbol != symbol {
			continue
		}

		lot := s.LotSizeFilter()
		price := s.PriceFilter()
		if lot == nil || price == nil {
			return nil, fmt.Errorf("%s: %w", symbol, domain.ErrFilterMissing)
		}

		step, err := decimal.NewFromString(lot.StepSize)
		if err != nil {
			return nil, fmt.Errorf("%s step size %q: %w", symbol, lot.StepSize, err)
		}
		tick, err := decimal.NewFromString(price.TickSize)
		if err != nil {
			return nil, fmt.Errorf("%s tick size %q: %w", symbol, price.TickSize, err)
		}
		minQty, _ := decimal.NewFromString(lot.MinQuantity)

		return &domain.Instrument{
			Symbol:      s.Symbol,
			BaseAsset:   s.BaseAsset,
			QuoteAsset:  s.QuoteAsset,
			Status:      s.Status,
			TickSize:    tick,
			StepSize:    step,
			MinQuantity: minQty,
		}, nil
	}

	return nil, fmt.Errorf("%s: %w", symbol, domain.ErrSymbolNotFound)
}

func (b *BinanceAdapter) GetMarkPrice(ctx context.Context, symbol string) (float64, error) {
	res, err := b.client.NewPremiumIndexService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, b.wrap(err)
	}
	if len(res) == 0 {
		return 0, fmt.Errorf("%s: %w", symbol, domain.ErrSymbolNotFound)
	}
	return strconv.ParseFloat(res[0].MarkPrice, 64)
}

func (b *BinanceAdapter) GetBalance(ctx context.Context, asset string) (*domain.Balance, error) {
	balances, err := b.client.NewGetBalanceService().Do(ctx)
	if err != nil {
		return nil, b.wrap(err)
	}
	for _, bal := range balances {
		if bal.Asset != asset {
			continue
		}
		wallet, _ := strconv.ParseFloat(bal.Balance, 64)
		avail, _ := strconv.ParseFloat(bal.AvailableBalance, 64)
		return &domain.Balance{Asset: asset, Wallet: wallet, Available: avail}, nil
	}
	return &domain.Balance{Asset: asset}, nil
}

func (b *BinanceAdapter) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	if _, err := b.client.NewChangeLeverageService().Symbol(symbol).Leverage(leverage).Do(ctx); err != nil {
		return b.wrap(err)
	}
	return nil
}

func (b *BinanceAdapter) EnableHedgeMode(ctx context.Context) error {
	err := b.client.NewChangePositionModeService().DualSide(true).Do(ctx)
	if err != nil {
		var apiErr *common.APIError
		if errors.As(err, &apiErr) && apiErr.Code == binanceCodeNoNeedChangePositionSide {
			return nil
		}
		return b.wrap(err)
	}
	return nil
}

func (b *BinanceAdapter) PlaceOrder(ctx context.Context, req *domain.OrderRequest) (*domain.Order, error) {
	svc := b.client.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(futures.SideType(req.Side)).
		Type(futures.OrderType(req.Type)).
		Quantity(req.Quantity).
		NewOrderResponseType(futures.NewOrderRespTypeRESULT)

	if req.PositionSide != "" {
		svc = svc.PositionSide(futures.PositionSideType(req.PositionSide))
	} else if req.ReduceOnly {
		// reduceOnly is rejected in hedge mode, so it only applies to one-way orders.
		svc = svc.ReduceOnly(true)
	}
	if req.StopPrice != "" {
		svc = svc.StopPrice(req.StopPrice).WorkingType(futures.WorkingTypeMarkPrice)
	}

	res, err := svc.Do(ctx)
	if err != nil {
		return nil, orderRejected(b.wrap(err))
	}

	return &domain.Order{
		OrderID:      strconv.FormatInt(res.OrderID, 10),
		Exchange:     b.Name(),
		Symbol:       res.Symbol,
		Side:         domain.OrderSide(res.Side),
		PositionSide: domain.Side(res.PositionSide),
		Type:         domain.OrderType(res.Type),
		Quantity:     parseFloat(res.OrigQuantity),
		Price:        parseFloat(res.Price),
		AvgPrice:     parseFloat(res.AvgPrice),
		StopPrice:    parseFloat(res.StopPrice),
		Status:       string(res.Status),
		CreatedAt:    time.UnixMilli(res.UpdateTime),
	}, nil
}

func (b *BinanceAdapter) GetOrder(ctx context.Context, symbol, orderID string) (*domain.Order, error) {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("order id %q: %w", orderID, domain.ErrInvalidInput)
	}

	o, err := b.client.NewGetOrderService().Symbol(symbol).OrderID(id).Do(ctx)
	if err != nil {
		return nil, b.wrap(err)
	}

	return &domain.Order{
		OrderID:      strconv.FormatInt(o.OrderID, 10),
		Exchange:     b.Name(),
		Symbol:       o.Symbol,
		Side:         domain.OrderSide(o.Side),
		PositionSide: domain.Side(o.PositionSide),
		Type:         domain.OrderType(o.Type),
		Quantity:     parseFloat(o.OrigQuantity),
		Price:        parseFloat(o.Price),
		AvgPrice:     parseFloat(o.AvgPrice),
		StopPrice:    parseFloat(o.StopPrice),
		Status:       string(o.Status),
		CreatedAt:    time.UnixMilli(o.Time),
	}, nil
}

func (b *BinanceAdapter) GetPositions(ctx context.Context, symbol string) ([]*domain.Position, error) {
	risks, err := b.client.NewGetPositionRiskService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, b.wrap(err)
	}

	positions := make([]*domain.Position, 0, len(risks))
	for _, r := range risks {
		lev, _ := strconv.Atoi(r.Leverage)
		side := domain.Side(r.PositionSide)
		size := parseFloat(r.PositionAmt)
		if side == "BOTH" {
			// One-way mode: the sign carries the direction.
			side = domain.SideLong
			if size < 0 {
				side = domain.SideShort
			}
		}
		positions = append(positions, &domain.Position{
			Exchange:      b.Name(),
			Symbol:        r.Symbol,
			Side:          side,
			Size:          size,
			EntryPrice:    parseFloat(r.EntryPrice),
			CurrentPrice:  parseFloat(r.MarkPrice),
			UnrealizedPnL: parseFloat(r.UnRealizedProfit),
			Leverage:      lev,
		})
	}
	return positions, nil
}

func (b *BinanceAdapter) CancelAllOrders(ctx context.Context, symbol string) error {
	if err := b.client.NewCancelAllOpenOrdersService().Symbol(symbol).Do(ctx); err != nil {
		return b.wrap(err)
	}
	return nil
}

// SubscribeMarkPrice streams the 1s mark price until ctx is done.
func (b *BinanceAdapter) SubscribeMarkPrice(ctx context.Context, symbol string, callback func(price float64)) error {
	handler := func(event *futures.WsMarkPriceEvent) {
		if p := parseFloat(event.MarkPrice); p > 0 {
			callback(p)
		}
	}
	doneC, stopC, err := b.serveMarkPrice(symbol, time.Second, handler, func(error) {})
	if err != nil {
		return b.wrap(err)
	}

	go func() {
		select {
		case <-ctx.Done():
			close(stopC)
		case <-doneC:
		}
	}()
	return nil
}

// wrap turns SDK API errors into domain.ExchangeError and leaves transport errors alone.
func (b *BinanceAdapter) wrap(err error) error {
	var apiErr *common.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	ee := &domain.ExchangeError{Exchange: b.Name(), Code: apiErr.Code, Message: apiErr.Message}
	if apiErr.Code == binanceCodeInvalidSymbol {
		ee.Err = domain.ErrSymbolNotFound
	}
	return ee
}

// orderRejected tags an exchange error from order placement with domain.ErrOrderRejected.
func orderRejected(err error) error {
	var ee *domain.ExchangeError
	if errors.As(err, &ee) && ee.Err == nil {
		ee.Err = domain.ErrOrderRejected
	}
	return err
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
