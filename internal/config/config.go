// Package config loads engine and gateway configuration from the
// environment. Grounded on the teacher's cmd/main.go, which loads a
// .env file with joho/godotenv and reads settings with os.Getenv and
// small parse-or-default helpers.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/novaclob/matching-engine/internal/engine"
)

// SymbolConfig is the static admission contract (spec §4.8 Admission)
// and wire decimal precision for one traded symbol; fees are configured
// separately in Config.FeeTiers.
type SymbolConfig struct {
	Symbol           string
	Spec             engine.SymbolSpec
	PriceDecimals    int32
	QuantityDecimals int32
}

// Config is the fully resolved process configuration.
type Config struct {
	ListenAddr    string
	JWTSecret     string
	InboxCap      int
	SubscriberBuf int
	DatabaseDSN   string
	QuoteCurrency string
	Symbols       []SymbolConfig
	FeeTiers      map[string]engine.TierRates
}

// Load reads a .env file if present, then the process environment,
// falling back to defaults tuned for local development. Missing
// DATABASE_DSN disables the journal rather than failing startup, since
// the journal is a supplementary replay collaborator (spec §6), not a
// matching-path dependency.
func Load() (*Config, error) {
	_ = godotenv.Load() // absence of a .env file is not an error

	cfg := &Config{
		ListenAddr:    getenv("LISTEN_ADDR", ":8080"),
		JWTSecret:     getenv("JWT_SECRET", "dev-secret-change-me"),
		InboxCap:      getenvInt("INBOX_CAPACITY", 4096),
		SubscriberBuf: getenvInt("SUBSCRIBER_BUFFER", 1024),
		DatabaseDSN:   os.Getenv("DATABASE_DSN"),
		QuoteCurrency: getenv("QUOTE_CURRENCY", "USD"),
	}

	cfg.FeeTiers = map[string]engine.TierRates{
		"":    {MakerRate: getenvFloat("FEE_DEFAULT_MAKER_BPS", 1.0) / 10000, TakerRate: getenvFloat("FEE_DEFAULT_TAKER_BPS", 5.0) / 10000},
		"vip": {MakerRate: getenvFloat("FEE_VIP_MAKER_BPS", 0.0) / 10000, TakerRate: getenvFloat("FEE_VIP_TAKER_BPS", 2.0) / 10000},
	}

	cfg.Symbols = defaultSymbols()
	if raw := os.Getenv("SYMBOLS"); raw != "" {
		cfg.Symbols = parseSymbols(raw)
	}

	return cfg, nil
}

func defaultSymbols() []SymbolConfig {
	return []SymbolConfig{
		{
			Symbol: "BTC-USD",
			Spec: engine.SymbolSpec{
				Symbol: "BTC-USD", TickSize: 1, LotSize: 1,
				MinPrice: 1, MinQty: 1,
			},
			PriceDecimals: 2, QuantityDecimals: 8,
		},
		{
			Symbol: "ETH-USD",
			Spec: engine.SymbolSpec{
				Symbol: "ETH-USD", TickSize: 1, LotSize: 1,
				MinPrice: 1, MinQty: 1,
			},
			PriceDecimals: 2, QuantityDecimals: 6,
		},
	}
}

// parseSymbols reads a comma-separated SYMBOLS=BTC-USD:2:8,ETH-USD:2:6
// override, where the two trailing fields are price and quantity
// decimal places. Malformed entries fall back to 2/8.
func parseSymbols(raw string) []SymbolConfig {
	var out []SymbolConfig
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		symbol := parts[0]
		priceDecimals, qtyDecimals := int32(2), int32(8)
		if len(parts) == 3 {
			if v, err := strconv.Atoi(parts[1]); err == nil {
				priceDecimals = int32(v)
			}
			if v, err := strconv.Atoi(parts[2]); err == nil {
				qtyDecimals = int32(v)
			}
		}
		out = append(out, SymbolConfig{
			Symbol: symbol,
			Spec: engine.SymbolSpec{
				Symbol: symbol, TickSize: 1, LotSize: 1, MinPrice: 1, MinQty: 1,
			},
			PriceDecimals: priceDecimals, QuantityDecimals: qtyDecimals,
		})
	}
	return out
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
