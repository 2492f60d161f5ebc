package exchange

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const bybitPingInterval = 20 * time.Second

type bybitTickerEvent struct {
	Topic string `json:"topic"`
	Type  string `json:"type"`
	Data  struct {
		Symbol    string `json:"symbol"`
		MarkPrice string `json:"markPrice"`
	} `json:"data"`
}

// SubscribeMarkPrice streams tickers.<symbol> and calls back on every mark price
// update. Delta messages without a mark price are skipped.
func (b *BybitAdapter) SubscribeMarkPrice(ctx context.Context, symbol string, callback func(price float64)) error {
	conn, _, err := b.dialer.DialContext(ctx, b.wsURL, nil)
	if err != nil {
		return err
	}

	subMsg := map[string]interface{}{
		"op":   "subscribe",
		"args": []interface{}{"tickers." + symbol},
	}
	if err := conn.WriteJSON(subMsg); err != nil {
		conn.Close()
		return err
	}

	done := make(chan struct{})
	go b.keepAlive(ctx, conn, done)
	go b.readLoop(conn, symbol, callback, done)
	return nil
}

// keepAlive pings until ctx ends or the read loop exits, then closes the socket.
func (b *BybitAdapter) keepAlive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(bybitPingInterval)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return
		case <-done:
			return
		case <-ticker.C:
			// Bybit expects an application ping, not a control frame.
			if err := conn.WriteJSON(map[string]string{"op": "ping"}); err != nil {
				return
			}
		}
	}
}

func (b *BybitAdapter) readLoop(conn *websocket.Conn, symbol string, callback func(price float64), done chan<- struct{}) {
	defer close(done)

	topic := "tickers." + symbol
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var event bybitTickerEvent
		if err := json.Unmarshal(message, &event); err != nil {
			continue
		}
		if !strings.EqualFold(event.Topic, topic) || event.Data.MarkPrice == "" {
			continue
		}

		price, err := strconv.ParseFloat(event.Data.MarkPrice, 64)
		if err != nil || price <= 0 {
			continue
		}
		callback(price)
	}
}
