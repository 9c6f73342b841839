package pipeline

import (
	"context"
	"log"
	"os"

	"github.com/castindex/indexer/internal/chunk"
	"github.com/castindex/indexer/internal/diffcache"
	"github.com/castindex/indexer/internal/parse"
	"github.com/castindex/indexer/internal/store"
)

// runParseWorker drains files from in until the channel closes. For each
// file it acquires the file's lock, upserts the file row, parses its
// content, diffs the result against whatever chunks the store already has
// for that path, and forwards only the Added chunks downstream; the
// Unchanged side already carries a usable embedding and the add/delete
// only contract needs no action for it.
func (c *Coordinator) runParseWorker(ctx context.Context, in <-chan fileTask, out chan<- chunk.Chunk) {
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-in:
			if !ok {
				return
			}
			if err := c.parseOne(ctx, task, out); err != nil {
				log.Printf("parse %s: %v", task.RelPath, err)
				addInt64(&c.counters.filesFailed, 1)
				c.recordErr(err)
				continue
			}
			addInt64(&c.counters.filesProcessed, 1)
		}
	}
}

func (c *Coordinator) parseOne(ctx context.Context, task fileTask, out chan<- chunk.Chunk) error {
	unlock := c.locks.Lock(task.AbsPath)
	defer unlock()

	content, err := os.ReadFile(task.AbsPath)
	if err != nil {
		return err
	}

	info, err := os.Stat(task.AbsPath)
	if err != nil {
		return err
	}

	hash := chunk.ContentHash(string(content))
	fileID, err := c.db.UpsertFile(ctx, store.FileRecord{
		Path:        task.RelPath,
		Mtime:       info.ModTime(),
		Language:    task.Language,
		SizeBytes:   info.Size(),
		ContentHash: hash,
	})
	if err != nil {
		return err
	}

	f, err := chunk.NewFile(chunk.File{ID: fileID, Path: task.RelPath, Language: task.Language, SizeBytes: info.Size(), ContentHash: hash})
	if err != nil {
		return err
	}

	parser := parserOrFallback(c.parsers, c.fallback, task.Language)

	parsed, err := parser.Parse(ctx, f, string(content))
	if err != nil {
		return err
	}
	for i := range parsed {
		parsed[i].FileID = fileID
	}

	existing, err := c.db.GetChunksByFilePath(ctx, task.RelPath)
	if err != nil {
		return err
	}

	d := diffcache.Compute(parsed, existing)
	for _, ch := range d.Added {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- ch:
		}
	}
	return nil
}

// parserOrFallback returns the parser registered for language, or
// fallback when the registry has none.
func parserOrFallback(reg *parse.Registry, fallback parse.LanguageParser, language string) parse.LanguageParser {
	if p, ok := reg.Get(language); ok {
		return p
	}
	return fallback
}
