package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/castindex/indexer/internal/chunk"
	"github.com/castindex/indexer/internal/errs"
	"github.com/castindex/indexer/internal/store"
)

// DB is the default store.Database, backed by mattn/go-sqlite3 with
// Masterminds/squirrel for query building. A single RWMutex guards every
// operation: readers take RLock, writers take Lock, matching the
// discipline the coordinator expects of its DB handle.
type DB struct {
	mu   sync.RWMutex
	conn *sql.DB
}

// Open opens (or creates) a sqlite database at path and enables foreign
// keys. Call Initialize before using it.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, errs.New(errs.Io, "sqlite.Open", err)
	}
	return &DB{conn: conn}, nil
}

func (d *DB) Initialize(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := createSchema(d.conn); err != nil {
		return errs.New(errs.Io, "sqlite.Initialize", err)
	}
	return nil
}

func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conn.Close()
}

func (d *DB) UpsertFile(ctx context.Context, f store.FileRecord) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now

	_, err := sq.Insert("files").
		Columns("id", "path", "mtime", "language", "size_bytes", "content_hash", "created_at", "updated_at").
		Values(f.ID, f.Path, isoFormat(f.Mtime), f.Language, f.SizeBytes, f.ContentHash, isoFormat(f.CreatedAt), isoFormat(f.UpdatedAt)).
		Suffix(`ON CONFLICT(path) DO UPDATE SET
			mtime = excluded.mtime,
			language = excluded.language,
			size_bytes = excluded.size_bytes,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at`).
		RunWith(d.conn).
		ExecContext(ctx)
	if err != nil {
		return "", errs.New(errs.Io, "sqlite.UpsertFile", err)
	}

	var id string
	err = sq.Select("id").From("files").Where(sq.Eq{"path": f.Path}).RunWith(d.conn).QueryRowContext(ctx).Scan(&id)
	if err != nil {
		return "", errs.New(errs.Io, "sqlite.UpsertFile", err)
	}
	return id, nil
}

func (d *DB) GetFileByPath(ctx context.Context, path string) (*store.FileRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	row := sq.Select("id", "path", "mtime", "language", "size_bytes", "content_hash", "created_at", "updated_at").
		From("files").Where(sq.Eq{"path": path}).RunWith(d.conn).QueryRowContext(ctx)

	var f store.FileRecord
	var mtime, created, updated string
	err := row.Scan(&f.ID, &f.Path, &mtime, &f.Language, &f.SizeBytes, &f.ContentHash, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.New(errs.Io, "sqlite.GetFileByPath", err)
	}
	f.Mtime, _ = time.Parse(time.RFC3339, mtime)
	f.CreatedAt, _ = time.Parse(time.RFC3339, created)
	f.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &f, nil
}

var chunkColumns = []string{
	"id", "file_id", "code", "start_line", "end_line", "chunk_type", "language",
	"symbol", "start_byte", "end_byte", "parent_header", "metadata",
	"embedding", "provider", "model", "embedding_signature", "embedding_status", "created_at",
}

func (d *DB) GetChunksByFilePath(ctx context.Context, path string) ([]chunk.Chunk, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := sq.Select(prefixed("c", chunkColumns)...).
		From("chunks c").
		Join("files f ON f.id = c.file_id").
		Where(sq.Eq{"f.path": path}).
		OrderBy("c.start_line").
		RunWith(d.conn).
		QueryContext(ctx)
	if err != nil {
		return nil, errs.New(errs.Io, "sqlite.GetChunksByFilePath", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

func (d *DB) GetChunksByIDs(ctx context.Context, ids []string) ([]chunk.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := sq.Select(chunkColumns...).
		From("chunks").
		Where(sq.Eq{"id": ids}).
		RunWith(d.conn).
		QueryContext(ctx)
	if err != nil {
		return nil, errs.New(errs.Io, "sqlite.GetChunksByIDs", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

func (d *DB) InsertChunksBatch(ctx context.Context, chunks []chunk.Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, errs.New(errs.Io, "sqlite.InsertChunksBatch", err)
	}
	defer tx.Rollback()

	ids := make([]string, len(chunks))
	now := isoFormat(time.Now().UTC())

	for i, c := range chunks {
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		ids[i] = id

		metaJSON, err := marshalMetadata(c.Metadata)
		if err != nil {
			return nil, errs.New(errs.Validation, "sqlite.InsertChunksBatch", err)
		}

		_, err = sq.Insert("chunks").
			Columns("id", "file_id", "code", "start_line", "end_line", "chunk_type", "language",
				"symbol", "start_byte", "end_byte", "parent_header", "metadata", "created_at").
			Values(id, c.FileID, c.Code, c.StartLine, c.EndLine, string(c.ChunkType), c.Language,
				nullableString(c.Symbol), nullableIntPtr(c.StartByte), nullableIntPtr(c.EndByte),
				nullableString(c.ParentHeader), metaJSON, now).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return nil, errs.New(errs.Io, "sqlite.InsertChunksBatch", fmt.Errorf("chunk %d: %w", i, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errs.New(errs.Io, "sqlite.InsertChunksBatch", err)
	}
	return ids, nil
}

func (d *DB) InsertEmbeddingsBatch(ctx context.Context, rows []store.EmbeddingRow, statuses map[string]chunk.EmbeddingStatus) error {
	if len(rows) == 0 && len(statuses) == 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return errs.New(errs.Io, "sqlite.InsertEmbeddingsBatch", err)
	}
	defer tx.Rollback()

	for _, r := range rows {
		status := statuses[r.ChunkID]
		sig := embeddingSignature(r.Provider, r.Model)
		_, err := sq.Update("chunks").
			Set("embedding", serializeEmbedding(r.Embedding)).
			Set("provider", r.Provider).
			Set("model", r.Model).
			Set("embedding_signature", sig).
			Set("embedding_status", string(status)).
			Where(sq.Eq{"id": r.ChunkID}).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return errs.New(errs.Io, "sqlite.InsertEmbeddingsBatch", fmt.Errorf("chunk %s: %w", r.ChunkID, err))
		}
	}

	// Chunks that failed embedding entirely (no row produced) still need
	// their status recorded so the run summary can count them.
	for chunkID, status := range statuses {
		found := false
		for _, r := range rows {
			if r.ChunkID == chunkID {
				found = true
				break
			}
		}
		if found {
			continue
		}
		_, err := sq.Update("chunks").
			Set("embedding_status", string(status)).
			Where(sq.Eq{"id": chunkID}).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return errs.New(errs.Io, "sqlite.InsertEmbeddingsBatch", fmt.Errorf("chunk %s status: %w", chunkID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.New(errs.Io, "sqlite.InsertEmbeddingsBatch", err)
	}
	return nil
}

func (d *DB) FilterExistingEmbeddings(ctx context.Context, chunkIDs []string, provider, model string) ([]string, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	sig := embeddingSignature(provider, model)
	rows, err := sq.Select("id").From("chunks").
		Where(sq.Eq{"id": chunkIDs, "embedding_signature": sig}).
		RunWith(d.conn).
		QueryContext(ctx)
	if err != nil {
		return nil, errs.New(errs.Io, "sqlite.FilterExistingEmbeddings", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errs.New(errs.Io, "sqlite.FilterExistingEmbeddings", err)
		}
		out = append(out, id)
	}
	return out, nil
}

func (d *DB) DeleteEmbeddingsForChunks(ctx context.Context, chunkIDs []string, provider, model string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	sig := embeddingSignature(provider, model)
	_, err := sq.Update("chunks").
		Set("embedding", nil).
		Set("embedding_signature", nil).
		Set("embedding_status", nil).
		Where(sq.Eq{"id": chunkIDs, "embedding_signature": sig}).
		RunWith(d.conn).
		ExecContext(ctx)
	if err != nil {
		return errs.New(errs.Io, "sqlite.DeleteEmbeddingsForChunks", err)
	}
	return nil
}

func (d *DB) OptimizeTables(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.conn.ExecContext(ctx, "PRAGMA optimize"); err != nil {
		return errs.New(errs.Io, "sqlite.OptimizeTables", err)
	}
	return nil
}

func (d *DB) ClearAllData(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return errs.New(errs.Io, "sqlite.ClearAllData", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"chunks", "files"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errs.New(errs.Io, "sqlite.ClearAllData", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errs.New(errs.Io, "sqlite.ClearAllData", err)
	}
	return nil
}

func embeddingSignature(provider, model string) string {
	return provider + "::" + model
}

func isoFormat(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableIntPtr(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func marshalMetadata(m map[string]any) (interface{}, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func serializeEmbedding(emb []float32) []byte {
	b := make([]byte, len(emb)*4)
	for i, f := range emb {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}

func prefixed(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return out
}

func scanChunks(rows *sql.Rows) ([]chunk.Chunk, error) {
	var out []chunk.Chunk
	for rows.Next() {
		var (
			id, fileID, code, chunkType, language string
			startLine, endLine                    int
			symbol, parentHeader, metaJSON         sql.NullString
			startByte, endByte                     sql.NullInt64
			embBytes                               []byte
			provider, model, sig, status           sql.NullString
			createdAt                              string
		)
		err := rows.Scan(&id, &fileID, &code, &startLine, &endLine, &chunkType, &language,
			&symbol, &startByte, &endByte, &parentHeader, &metaJSON,
			&embBytes, &provider, &model, &sig, &status, &createdAt)
		if err != nil {
			return nil, errs.New(errs.Io, "sqlite.scanChunks", err)
		}

		c := chunk.Chunk{
			ID:           id,
			FileID:       fileID,
			Code:         code,
			StartLine:    startLine,
			EndLine:      endLine,
			ChunkType:    chunk.ParseType(chunkType),
			Language:     language,
			Symbol:       symbol.String,
			ParentHeader: parentHeader.String,
		}
		if startByte.Valid && endByte.Valid {
			sb, eb := int(startByte.Int64), int(endByte.Int64)
			c.StartByte, c.EndByte = &sb, &eb
		}
		if metaJSON.Valid && metaJSON.String != "" {
			var m map[string]any
			if err := json.Unmarshal([]byte(metaJSON.String), &m); err == nil {
				c.Metadata = m
			}
		}
		if created, err := time.Parse(time.RFC3339, createdAt); err == nil {
			c.CreatedAt = &created
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
