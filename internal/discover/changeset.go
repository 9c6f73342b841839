package discover

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"github.com/castindex/indexer/internal/errs"
	"github.com/castindex/indexer/internal/store"
)

// ChangeSet is the result of comparing disk state to the store.
type ChangeSet struct {
	Added     []string
	Modified  []string
	Deleted   []string
	Unchanged []string
}

// FileMeta pairs a discovered absolute path with its relative path and the
// language the coordinator resolved for it.
type FileMeta struct {
	AbsPath  string
	RelPath  string
	Language string
}

// Detect compares the discovered files under root to the store's file
// records: if the stored mtime matches disk mtime, the file is assumed
// Unchanged without hashing; otherwise a SHA-256 comparison decides
// Modified vs. mtime-drift Unchanged. Deletion detection is out of scope:
// the batch-only Database contract exposes no file enumeration, only
// lookup by path, so there is no way to find store rows with no disk
// counterpart. ChangeSet.Deleted is always empty.
func Detect(ctx context.Context, root string, files []string, db store.Database) (*ChangeSet, error) {
	cs := &ChangeSet{}

	for _, abs := range files {
		select {
		case <-ctx.Done():
			return nil, errs.New(errs.Cancelled, "discover.Detect", ctx.Err())
		default:
		}

		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return nil, errs.New(errs.Io, "discover.Detect", err)
		}
		rel = filepath.ToSlash(rel)

		info, err := os.Stat(abs)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errs.New(errs.Io, "discover.Detect", err)
		}

		existing, err := db.GetFileByPath(ctx, rel)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			cs.Added = append(cs.Added, rel)
			continue
		}

		diskMtime := info.ModTime().UTC().Truncate(time.Second)
		dbMtime := existing.Mtime.UTC().Truncate(time.Second)
		if diskMtime.Equal(dbMtime) {
			cs.Unchanged = append(cs.Unchanged, rel)
			continue
		}

		hash, err := hashFile(abs)
		if err != nil {
			return nil, errs.New(errs.Io, "discover.Detect", err)
		}
		if hash == existing.ContentHash {
			cs.Unchanged = append(cs.Unchanged, rel)
		} else {
			cs.Modified = append(cs.Modified, rel)
		}
	}

	return cs, nil
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
