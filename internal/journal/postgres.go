// Package journal is the external replay log named but left
// unspecified by spec §6: a durable, append-only record of every
// committed EventBatch, keyed by symbol and sequence number, that a
// fresh Symbol Engine can replay to reconstruct book state after a
// restart. Grounded on the teacher's internal/repository packages
// (jmoiron/sqlx + lib/pq, interface-plus-impl, db-tagged structs). An
// entry carries a batch's trades, book deltas and BBO change; the order
// submissions and cancels that produced them are not recorded.
package journal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	_ "github.com/lib/pq"

	"github.com/novaclob/matching-engine/internal/engine"
	"github.com/novaclob/matching-engine/internal/engine/model"
)

// Record is one persisted row: a committed batch plus the symbol and
// sequence number it was published under.
type Record struct {
	Symbol    string `db:"symbol"`
	Seq       uint64 `db:"seq"`
	Payload   []byte `db:"payload"` // JSON-encoded engine.EventBatch
	CreatedAt string `db:"created_at"`
}

// Writer persists committed event batches. It satisfies
// engine.JournalWriter.
type Writer interface {
	Append(symbol string, batch engine.EventBatch) error
}

// Reader replays a symbol's journal in sequence order, for engine
// warm-start (spec §6).
type Reader interface {
	Replay(ctx context.Context, symbol string, fromSeq model.SeqNum) ([]engine.EventBatch, error)
}

// Postgres is the sqlx/lib-pq-backed journal implementation. Grounded
// on the teacher's internal/repository/order and internal/repository/ledger
// packages: a thin struct over *sqlx.DB with one exec/query per method,
// no ORM.
type Postgres struct {
	db *sqlx.DB
}

// Open connects to dsn and ensures the journal table exists.
func Open(dsn string) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: connect: %w", err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		return nil, fmt.Errorf("journal: migrate: %w", err)
	}
	return &Postgres{db: db}, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS engine_journal (
	symbol     TEXT   NOT NULL,
	seq        BIGINT NOT NULL,
	payload    JSONB  NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (symbol, seq)
)`

// Append writes batch under (symbol, batch.Seq). A duplicate seq for a
// symbol (a replayed or retried append) is a no-op, not an error.
func (p *Postgres) Append(symbol string, batch engine.EventBatch) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("journal: encode batch: %w", err)
	}
	_, err = p.db.Exec(
		`INSERT INTO engine_journal (symbol, seq, payload) VALUES ($1, $2, $3)
		 ON CONFLICT (symbol, seq) DO NOTHING`,
		symbol, batch.Seq, payload)
	if err != nil {
		return fmt.Errorf("journal: append: %w", err)
	}
	return nil
}

// Replay returns every batch recorded for symbol with seq > fromSeq, in
// ascending sequence order, for engine warm-start (spec §6).
func (p *Postgres) Replay(ctx context.Context, symbol string, fromSeq model.SeqNum) ([]engine.EventBatch, error) {
	var rows []Record
	err := p.db.SelectContext(ctx, &rows,
		`SELECT symbol, seq, payload::text AS payload, created_at::text AS created_at
		 FROM engine_journal WHERE symbol = $1 AND seq > $2 ORDER BY seq ASC`,
		symbol, fromSeq)
	if err != nil {
		return nil, fmt.Errorf("journal: replay: %w", err)
	}
	batches := make([]engine.EventBatch, 0, len(rows))
	for _, row := range rows {
		var batch engine.EventBatch
		if err := json.Unmarshal(row.Payload, &batch); err != nil {
			return nil, fmt.Errorf("journal: decode batch seq=%d: %w", row.Seq, err)
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error { return p.db.Close() }
