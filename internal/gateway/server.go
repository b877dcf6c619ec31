package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/novaclob/matching-engine/internal/engine"
	"github.com/novaclob/matching-engine/internal/engine/model"
)

// Registry resolves a symbol to its running engine and wire codec. The
// gateway never matches orders itself — every request becomes exactly
// one command against the resolved engine.SymbolEngine.
type Registry struct {
	engines map[string]*engine.SymbolEngine
	codecs  map[string]SymbolCodec
}

// NewRegistry builds an empty registry; call Add per configured symbol.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]*engine.SymbolEngine), codecs: make(map[string]SymbolCodec)}
}

// Add registers a running engine and its decimal codec under symbol.
func (r *Registry) Add(symbol string, eng *engine.SymbolEngine, codec SymbolCodec) {
	r.engines[symbol] = eng
	r.codecs[symbol] = codec
}

func (r *Registry) resolve(symbol string) (*engine.SymbolEngine, SymbolCodec, bool) {
	eng, ok := r.engines[symbol]
	if !ok {
		return nil, SymbolCodec{}, false
	}
	return eng, r.codecs[symbol], true
}

// Server is the REST + WebSocket surface over a Registry of running
// Symbol Engines. Grounded on the teacher's internal/router package
// (router.go, user.go): a *http.ServeMux, a CORS wrapper, and a request
// logging middleware, generalized from order/user/ticker routes to
// order/cancel/orderbook/stream routes over the matching engine domain.
type Server struct {
	mux           *http.ServeMux
	registry      *Registry
	auth          *JWTMaker
	logger        *zap.Logger
	subscriberBuf int
}

// NewServer builds the HTTP handler tree. auth may be nil to disable
// bearer-token checks (e.g. local development).
func NewServer(registry *Registry, auth *JWTMaker, subscriberBuf int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{mux: http.NewServeMux(), registry: registry, auth: auth, logger: logger, subscriberBuf: subscriberBuf}
	s.bind()
	return s
}

// Handler returns the fully wrapped handler (CORS + logging), suitable
// for http.Server.Handler.
func (s *Server) Handler() http.Handler {
	return cors(logging(s.logger, s.mux))
}

func (s *Server) bind() {
	protect := func(h http.HandlerFunc) http.Handler {
		if s.auth == nil {
			return h
		}
		return AuthMiddleware(s.auth)(h)
	}

	s.mux.Handle("POST /api/v1/orders", protect(s.handleNewOrder))
	s.mux.Handle("DELETE /api/v1/orders/{symbol}/{orderID}", protect(s.handleCancel))
	s.mux.Handle("GET /api/v1/orderbook", protect(s.handleOrderbook))
	s.mux.Handle("GET /ws", protect(s.handleStream))
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
}

func (s *Server) handleNewOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReject(w, http.StatusBadRequest, model.ErrMalformedOrder, err.Error())
		return
	}
	eng, codec, ok := s.registry.resolve(req.Symbol)
	if !ok {
		writeReject(w, http.StatusNotFound, model.ErrUnknownSymbol, req.Symbol)
		return
	}

	cmd := model.NewOrderCommand{ClientOrderID: req.ClientOrderID, Symbol: req.Symbol, Tier: req.Tier}
	switch req.Side {
	case "buy":
		cmd.Side = model.Buy
	case "sell":
		cmd.Side = model.Sell
	default:
		writeReject(w, http.StatusBadRequest, model.ErrMalformedOrder, "side must be buy or sell")
		return
	}
	switch req.Type {
	case "market":
		cmd.Type = model.Market
	case "limit":
		cmd.Type = model.Limit
	case "ioc":
		cmd.Type = model.IOC
	case "fok":
		cmd.Type = model.FOK
	default:
		writeReject(w, http.StatusBadRequest, model.ErrMalformedOrder, "type must be market, limit, ioc, or fok")
		return
	}
	if req.Price != "" {
		ticks, err := codec.Codec.ParsePrice(req.Price)
		if err != nil {
			writeReject(w, http.StatusBadRequest, model.ErrMalformedOrder, err.Error())
			return
		}
		cmd.Price, cmd.HasPrice = model.Price(ticks), true
	}
	qty, err := codec.Codec.ParseQuantity(req.Quantity)
	if err != nil {
		writeReject(w, http.StatusBadRequest, model.ErrMalformedOrder, err.Error())
		return
	}
	cmd.Quantity = model.Quantity(qty)

	ack, err := eng.SubmitNewOrder(r.Context(), cmd)
	if err != nil {
		writeRejectErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, codec.ack(ack))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	orderID := r.PathValue("orderID")
	eng, codec, ok := s.registry.resolve(symbol)
	if !ok {
		writeReject(w, http.StatusNotFound, model.ErrUnknownSymbol, symbol)
		return
	}
	ack, err := eng.SubmitCancel(r.Context(), model.CancelCommand{OrderID: model.OrderID(orderID)})
	if err != nil {
		writeRejectErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, codec.ack(ack))
}

func (s *Server) handleOrderbook(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	eng, codec, ok := s.registry.resolve(symbol)
	if !ok {
		writeReject(w, http.StatusNotFound, model.ErrUnknownSymbol, symbol)
		return
	}
	depth := 50
	if d := r.URL.Query().Get("depth"); d != "" {
		if n, err := strconv.Atoi(d); err == nil && n > 0 {
			depth = n
		}
	}
	snap, err := eng.Query(r.Context(), model.QueryCommand{Symbol: symbol, Depth: depth})
	if err != nil {
		writeRejectErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, codec.snapshot(snap))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeReject(w http.ResponseWriter, status int, reason model.ErrorKind, message string) {
	writeJSON(w, status, rejectResponse{Reason: reason.String(), Message: message})
}

func writeRejectErr(w http.ResponseWriter, err error) {
	if re, ok := err.(*engine.RejectError); ok {
		writeReject(w, statusForReject(re.Kind), re.Kind, re.Message)
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, rejectResponse{Reason: "Timeout", Message: err.Error()})
}

func statusForReject(kind model.ErrorKind) int {
	switch kind {
	case model.ErrUnknownSymbol, model.ErrUnknownOrder:
		return http.StatusNotFound
	case model.ErrMalformedOrder:
		return http.StatusBadRequest
	case model.ErrAlreadyTerminal:
		return http.StatusConflict
	case model.ErrBackpressure:
		return http.StatusTooManyRequests
	default:
		return http.StatusUnprocessableEntity
	}
}

// logging mirrors the teacher's router.logging middleware
// (internal/router/router.go): wrap the ResponseWriter to capture the
// status code and log one line per request.
func logging(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(sw, r)
		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// cors mirrors the teacher's router.Cors middleware
// (internal/router/router.go) verbatim in behavior: reflect the
// requesting origin and short-circuit preflight requests.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			reqHdrs := r.Header.Get("Access-Control-Request-Headers")
			if reqHdrs == "" {
				reqHdrs = "Content-Type, Authorization"
			}
			w.Header().Set("Access-Control-Allow-Headers", reqHdrs)
			reqMethod := r.Header.Get("Access-Control-Request-Method")
			if reqMethod == "" {
				reqMethod = "GET, POST, PUT, DELETE, OPTIONS"
			}
			w.Header().Set("Access-Control-Allow-Methods", reqMethod)
			w.Header().Set("Access-Control-Max-Age", "86400")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
