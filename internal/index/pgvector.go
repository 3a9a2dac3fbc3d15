package index

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PgvectorIndex is the pgvector-backed similarity index. Records live in a
// single table; the document/conversation partition is expressed through the
// tag columns, one of which is always empty.
type PgvectorIndex struct {
	pool      *pgxpool.Pool
	dimension int
	probes    int
}

func NewPgvectorIndex(pool *pgxpool.Pool, dimension, probes int) *PgvectorIndex {
	if probes <= 0 {
		probes = 10
	}
	return &PgvectorIndex{
		pool:      pool,
		dimension: dimension,
		probes:    probes,
	}
}

// EnsureSchema creates the extension, table, and ANN index if missing.
func (x *PgvectorIndex) EnsureSchema(ctx context.Context) error {
	if x.dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS vector_records (
			id BIGSERIAL PRIMARY KEY,
			embedding VECTOR(%d) NOT NULL,
			text TEXT NOT NULL,
			document_id VARCHAR(64) NOT NULL DEFAULT '',
			document_name VARCHAR(256) NOT NULL DEFAULT '',
			conversation_id VARCHAR(64) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, x.dimension),
		"CREATE INDEX IF NOT EXISTS idx_vector_records_document ON vector_records(document_id)",
		"CREATE INDEX IF NOT EXISTS idx_vector_records_conversation ON vector_records(conversation_id)",
		"CREATE INDEX IF NOT EXISTS idx_vector_records_embedding ON vector_records USING ivfflat (embedding vector_cosine_ops)",
	}

	for _, stmt := range stmts {
		if _, err := x.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: execute schema statement: %v", ErrUnavailable, err)
		}
	}
	return nil
}

// Insert appends records. There is no update-in-place; re-ingesting a document
// goes through Delete first.
func (x *PgvectorIndex) Insert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	for i, rec := range records {
		if len(rec.Vector) != x.dimension {
			return fmt.Errorf("record %d: vector dimension %d, want %d", i, len(rec.Vector), x.dimension)
		}
	}

	tx, err := x.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", ErrUnavailable, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for i, rec := range records {
		docID, docName, convID := tagColumns(rec.Tag)
		if _, err := tx.Exec(ctx, `
			INSERT INTO vector_records (embedding, text, document_id, document_name, conversation_id)
			VALUES ($1, $2, $3, $4, $5)
		`, pgvector.NewVector(rec.Vector), rec.Text, docID, docName, convID); err != nil {
			return fmt.Errorf("%w: insert record %d: %v", ErrUnavailable, i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit insert: %v", ErrUnavailable, err)
	}
	return nil
}

// Search returns the topK nearest records under the filter by cosine distance.
// A filter that matches nothing yields an empty slice.
func (x *PgvectorIndex) Search(ctx context.Context, queryVector []float32, filter Filter, topK int) ([]QueryResult, error) {
	if len(queryVector) != x.dimension {
		return nil, fmt.Errorf("query vector dimension %d, want %d", len(queryVector), x.dimension)
	}
	if topK <= 0 {
		topK = 5
	}

	where, arg, err := filterClause(filter)
	if err != nil {
		return nil, err
	}

	conn, err := x.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire connection: %v", ErrUnavailable, err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, fmt.Sprintf("SET ivfflat.probes = %d", x.probes)); err != nil {
		return nil, fmt.Errorf("%w: set ivfflat probes: %v", ErrUnavailable, err)
	}

	rows, err := conn.Query(ctx, fmt.Sprintf(`
		SELECT text, document_id, document_name, conversation_id,
		       (embedding <=> $1::vector) AS distance
		FROM vector_records
		WHERE %s
		ORDER BY embedding <=> $1::vector
		LIMIT $3
	`, where), pgvector.NewVector(queryVector), arg, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	results := make([]QueryResult, 0, topK)
	for rows.Next() {
		var (
			text, docID, docName, convID string
			distance                     float64
		)
		if err := rows.Scan(&text, &docID, &docName, &convID, &distance); err != nil {
			return nil, fmt.Errorf("%w: scan result: %v", ErrUnavailable, err)
		}
		results = append(results, QueryResult{
			Text:     text,
			Tag:      tagFromColumns(docID, docName, convID),
			Distance: distance,
		})
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%w: iterate results: %v", ErrUnavailable, rows.Err())
	}
	return results, nil
}

// Delete removes every record matching the filter.
func (x *PgvectorIndex) Delete(ctx context.Context, filter Filter) error {
	where, arg, err := filterClause(filter)
	if err != nil {
		return err
	}
	if _, err := x.pool.Exec(ctx, "DELETE FROM vector_records WHERE "+replaceFilterArg(where), arg); err != nil {
		return fmt.Errorf("%w: delete: %v", ErrUnavailable, err)
	}
	return nil
}

// filterClause compiles a filter into a WHERE fragment using placeholder $2
// (searches bind the query vector as $1).
func filterClause(filter Filter) (string, interface{}, error) {
	switch f := filter.(type) {
	case DocumentFilter:
		return "document_id = ANY($2)", f.DocumentIDs, nil
	case ConversationFilter:
		return "conversation_id = $2", f.ConversationID, nil
	default:
		return "", nil, fmt.Errorf("unsupported filter type %T", filter)
	}
}

// replaceFilterArg rewrites the search-positioned placeholder for statements
// that bind the filter value as the only argument.
func replaceFilterArg(where string) string {
	out := make([]byte, 0, len(where))
	for i := 0; i < len(where); i++ {
		if where[i] == '$' && i+1 < len(where) && where[i+1] == '2' {
			out = append(out, '$', '1')
			i++
			continue
		}
		out = append(out, where[i])
	}
	return string(out)
}

func tagColumns(tag Tag) (docID, docName, convID string) {
	switch t := tag.(type) {
	case DocumentTag:
		return t.DocumentID, t.DocumentName, ""
	case ConversationTag:
		return "", "", t.ConversationID
	default:
		return "", "", ""
	}
}

func tagFromColumns(docID, docName, convID string) Tag {
	if docID != "" {
		return DocumentTag{DocumentID: docID, DocumentName: docName}
	}
	return ConversationTag{ConversationID: convID}
}
