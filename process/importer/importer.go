// Package importer ingests batch deposit files from a drop directory.
//
// A batch file is a JSON array of {user_id, amount, description}. Every
// line is applied through the ledger service, so the usual validation
// (user existence, positive amount) holds for imported deposits exactly
// as it does for API ones. Processed files are moved to done/ or failed/
// next to the drop directory.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"finapi/pkg/ledger"
)

// Entry is one deposit instruction in a batch file.
type Entry struct {
	UserID      string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// ParseBatch decodes and sanity-checks a batch file.
func ParseBatch(r io.Reader) ([]Entry, error) {
	var entries []Entry
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	for i, e := range entries {
		if strings.TrimSpace(e.UserID) == "" {
			return nil, fmt.Errorf("entry %d: user_id required", i)
		}
	}
	return entries, nil
}

type Importer struct {
	svc    *ledger.Service
	logger *zap.Logger
}

func New(svc *ledger.Service, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{svc: svc, logger: logger}
}

// ProcessFile applies one batch file and moves it to done/ or failed/.
// A file counts as failed if any entry was rejected; applied entries stay
// applied (each deposit is its own operation).
func (im *Importer) ProcessFile(ctx context.Context, path string) (applied, rejected int, err error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return 0, 0, err
	}
	entries, err := ParseBatch(f)
	f.Close()
	if err != nil {
		im.moveTo(path, "failed")
		return 0, 0, err
	}
	for i, e := range entries {
		if _, err := im.svc.Deposit(ctx, e.UserID, e.Amount, e.Description); err != nil {
			rejected++
			im.logger.Warn("batch entry rejected",
				zap.String("file", filepath.Base(path)),
				zap.Int("entry", i),
				zap.String("user_id", e.UserID),
				zap.Error(err))
			continue
		}
		applied++
	}
	if rejected > 0 {
		im.moveTo(path, "failed")
	} else {
		im.moveTo(path, "done")
	}
	im.logger.Info("batch processed",
		zap.String("file", filepath.Base(path)),
		zap.Int("applied", applied),
		zap.Int("rejected", rejected))
	return applied, rejected, nil
}

func (im *Importer) moveTo(path, sub string) {
	dir := filepath.Join(filepath.Dir(path), sub)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		im.logger.Warn("cannot create dir", zap.String("dir", dir), zap.Error(err))
		return
	}
	dst := filepath.Join(dir, filepath.Base(path))
	if err := os.Rename(path, dst); err != nil {
		im.logger.Warn("cannot move batch file", zap.String("file", path), zap.Error(err))
	}
}

// Run scans dir once and, when watch is set, keeps watching it for new
// batch files with a debounced fsnotify loop until ctx is cancelled.
func (im *Importer) Run(ctx context.Context, dir string, watch bool) error {
	if err := im.scan(ctx, dir); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	im.logger.Info("watching for batch files", zap.String("dir", dir))

	// debounce so we don't read files that are still being written
	pending := map[string]time.Time{}
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 && isBatchFile(ev.Name) {
				pending[ev.Name] = time.Now()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			im.logger.Warn("watch error", zap.Error(err))
		case <-ticker.C:
			for path, seen := range pending {
				if time.Since(seen) < 500*time.Millisecond {
					continue
				}
				delete(pending, path)
				if _, _, err := im.ProcessFile(ctx, path); err != nil {
					im.logger.Warn("batch file failed", zap.String("file", path), zap.Error(err))
				}
			}
		}
	}
}

func (im *Importer) scan(ctx context.Context, dir string) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	for _, p := range paths {
		if _, _, err := im.ProcessFile(ctx, p); err != nil {
			im.logger.Warn("batch file failed", zap.String("file", p), zap.Error(err))
		}
	}
	return nil
}

func isBatchFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json")
}
