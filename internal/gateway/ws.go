package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/novaclob/matching-engine/internal/engine"
)

// WebSocket keepalive and buffering constants, carried over verbatim
// from the teacher's internal/websocket/broker.go.
const (
	writeWait           = 10 * time.Second
	pongWait            = 60 * time.Second
	pingPeriod          = (pongWait * 9) / 10
	maxMessageSize      = 64 * 1024
	maxConsecutiveDrops = 50
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleStream upgrades one connection to a single symbol's live event
// stream: an initial snapshot frame, then trade/delta/bbo frames
// sourced from one engine.Subscriber (spec §4.6); a frame that does not
// fit the connection's send buffer is dropped (see forwardEvents). Grounded on
// the teacher's websocket.ServeWS, generalized from a multi-topic hub
// subscription to a single-symbol subscriber-per-connection model since
// each connection here maps 1:1 onto one Symbol Engine's Sequencer.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	eng, codec, ok := s.registry.resolve(symbol)
	if !ok {
		http.Error(w, "unknown symbol", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub, snapshot, err := eng.Subscribe(ctx, s.subscriberBuf)
	if err != nil {
		cancel()
		_ = conn.Close()
		return
	}

	send := make(chan []byte, s.subscriberBuf)
	if raw, err := json.Marshal(streamFrame{Type: "snapshot", Snapshot: ptr(codec.snapshot(snapshot))}); err == nil {
		send <- raw
	}

	go forwardEvents(ctx, sub, codec, send)
	go writePump(conn, send, cancel)
	readPump(conn, cancel) // blocks until the client disconnects

	eng.Unsubscribe(context.Background(), sub)
}

// forwardEvents decodes each committed EventBatch into wire frames and
// offers them to send. A frame that finds the send buffer full is
// dropped; once more than maxConsecutiveDrops frames in a row have been
// dropped the connection is evicted (send is closed, which makes
// writePump close the connection) rather than allowed to stall the
// sequencer-side subscriber it is draining (spec §4.6 slow-subscriber
// semantics, enforced a second time at the transport edge).
func forwardEvents(ctx context.Context, sub *engine.Subscriber, codec SymbolCodec, send chan []byte) {
	defer close(send)
	drops := 0
	count := func(delivered bool) {
		if delivered {
			drops = 0
		} else {
			drops++
		}
	}
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-sub.Events():
			if !ok {
				return
			}
			for _, t := range batch.Trades {
				count(offer(send, streamFrame{Type: "trade", Trade: ptr(codec.trade(t))}))
			}
			for _, d := range batch.Deltas {
				count(offer(send, streamFrame{Type: "delta", Delta: ptr(codec.delta(d))}))
			}
			if batch.BBO != nil {
				count(offer(send, streamFrame{Type: "bbo", BBO: ptr(codec.bbo(*batch.BBO))}))
			}
			if drops > maxConsecutiveDrops {
				return
			}
		}
	}
}

func offer(send chan []byte, frame streamFrame) bool {
	raw, err := json.Marshal(frame)
	if err != nil {
		return true
	}
	select {
	case send <- raw:
		return true
	default:
		return false
	}
}

// writePump serializes writes to conn and pings on an idle connection,
// mirroring the teacher's Client.writePump.
func writePump(conn *websocket.Conn, send chan []byte, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		_ = conn.Close()
	}()
	for {
		select {
		case msg, ok := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client frames but keeps the read deadline alive via
// pong handling, mirroring the teacher's Client.readPump. It returns
// when the connection closes, at which point the caller tears down the
// subscription.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func ptr[T any](v T) *T { return &v }
