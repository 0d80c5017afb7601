package listener

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"leadprep/internal"
	"leadprep/internal/config"
	"leadprep/internal/crm"
	"leadprep/internal/logging"
	"leadprep/internal/pipeline"
)

const (
	processedDir = "processed"
	failedDir    = "failed"
)

var supportedExt = map[string]bool{".csv": true, ".xlsx": true, ".html": true, ".htm": true, ".eml": true}

// Deliverer submits cleaned records to the CRM.
type Deliverer interface {
	Deliver(ctx context.Context, records []internal.CleanedRecord) (crm.Summary, error)
}

// Service watches a drop folder. Every lead file placed there is cleaned,
// exported to OutputDir and moved aside so it is handled exactly once.
type Service struct {
	cfg       config.Config
	processor *pipeline.ProcessingService
	crm       Deliverer
	log       *zap.Logger
	seen      map[string]string
}

// CycleResult counts what one pass over the drop folder did.
type CycleResult struct {
	Found     int
	Processed int
	Failed    int
	Skipped   int
	Delivered int
}

func NewService(cfg config.Config, processor *pipeline.ProcessingService, deliverer Deliverer, log *zap.Logger) *Service {
	return &Service{
		cfg:       cfg,
		processor: processor,
		crm:       deliverer,
		log:       logging.OrNop(log),
		seen:      make(map[string]string),
	}
}

func (s *Service) Run(ctx context.Context) error {
	s.log.Info("inbox listener started", zap.String("dir", s.cfg.InboxDir), zap.Duration("interval", s.cfg.InboxInterval()))
	for {
		res, err := s.RunCycle(ctx)
		if err != nil && ctx.Err() == nil {
			s.log.Error("listener cycle error", zap.Error(err))
		} else if res.Found > 0 {
			s.log.Info("listener cycle done",
				zap.Int("found", res.Found),
				zap.Int("processed", res.Processed),
				zap.Int("failed", res.Failed),
				zap.Int("skipped", res.Skipped),
				zap.Int("delivered", res.Delivered),
			)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.cfg.InboxInterval()):
		}
	}
}

// RunCycle handles every supported file currently in the drop folder, oldest
// name first. A file that fails is moved to failed/ and never stops the cycle;
// cancellation stops it and leaves the current file where it is.
func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	var res CycleResult
	if err := os.MkdirAll(s.cfg.InboxDir, 0o755); err != nil {
		return res, err
	}
	entries, err := os.ReadDir(s.cfg.InboxDir)
	if err != nil {
		return res, err
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() || !supportedExt[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	res.Found = len(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		path := filepath.Join(s.cfg.InboxDir, name)
		blob, err := os.ReadFile(path)
		if err != nil {
			return res, err
		}

		hash := contentHash(blob)
		if prev, dup := s.seen[hash]; dup {
			s.log.Info("duplicate upload skipped", zap.String("file", name), zap.String("same_as", prev))
			res.Skipped++
			if err := moveTo(path, filepath.Join(s.cfg.InboxDir, processedDir)); err != nil {
				return res, err
			}
			continue
		}

		delivered, err := s.handle(ctx, name, blob)
		if err != nil && ctx.Err() != nil {
			// left in place so the next run delivers it again
			s.log.Warn("inbox file interrupted", zap.String("file", name), zap.Error(err))
			return res, err
		}
		if err != nil {
			s.log.Warn("inbox file rejected", zap.String("file", name), zap.Error(err))
			res.Failed++
			if mvErr := moveTo(path, filepath.Join(s.cfg.InboxDir, failedDir)); mvErr != nil {
				return res, mvErr
			}
			continue
		}
		s.seen[hash] = name
		res.Processed++
		res.Delivered += delivered
		if err := moveTo(path, filepath.Join(s.cfg.InboxDir, processedDir)); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (s *Service) handle(ctx context.Context, name string, blob []byte) (int, error) {
	result, err := s.processor.Run(pipeline.OpClean, []pipeline.Upload{{Name: name, Content: blob}})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", result.Feedback.Message, err)
	}

	outputPath := filepath.Join(s.cfg.OutputDir, "listener", outputName(name, s.cfg.InboxExportFormat))
	if s.cfg.InboxExportFormat == "xlsx" {
		err = pipeline.ExportXLSX(result.Table, outputPath)
	} else {
		err = pipeline.WriteCSV(result.Table, outputPath)
	}
	if err != nil {
		return 0, err
	}

	if !s.cfg.InboxAutoDeliver || s.crm == nil {
		return 0, nil
	}
	records, err := pipeline.Records(result.Table)
	if err != nil {
		return 0, err
	}
	summary, err := s.crm.Deliver(ctx, records)
	s.log.Info(summary.String(), zap.String("file", name))
	if err != nil {
		return summary.Succeeded, fmt.Errorf("deliver %s: %w", name, err)
	}
	return summary.Succeeded, nil
}

func contentHash(blob []byte) string {
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:])
}

func outputName(name, format string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return sanitizeName(base) + "_clean." + format
}

func sanitizeName(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}

func moveTo(path, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	target := filepath.Join(dir, filepath.Base(path))
	if _, err := os.Stat(target); err == nil {
		ext := filepath.Ext(target)
		target = fmt.Sprintf("%s_%d%s", strings.TrimSuffix(target, ext), time.Now().UnixNano(), ext)
	}
	return os.Rename(path, target)
}
