package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2beens/fitboard/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var _ DocumentStore = (*PgStore)(nil)

// PgStore keeps collections in the leaderboard_document table.
type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{
		db: db,
	}
}

func (s *PgStore) ListDocuments(ctx context.Context, collection string) (_ []Document, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.leaderboard.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := s.db.Query(ctx, `
		SELECT doc_key, data FROM leaderboard_document
		WHERE collection = $1
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var key string
		var raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc, err := decodeDocument(raw)
		if err != nil {
			log.Warnf("leaderboard [%s]: document [%s] is not a json object: %s", collection, key, err)
			continue
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	span.SetAttributes(attribute.Int("documents", len(docs)))

	return docs, nil
}

func (s *PgStore) PutDocument(ctx context.Context, collection, key string, doc Document) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.leaderboard.put")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	if _, err := s.db.Exec(ctx, `
		INSERT INTO leaderboard_document (collection, doc_key, data, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (collection, doc_key) DO UPDATE
		SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, collection, key, data); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}

	return nil
}
