package maintenance

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"btrbk-restore/internal/app"
	"btrbk-restore/internal/logging"
	"btrbk-restore/internal/snapshot"
)

const BrokenMarker = ".BROKEN"

type Service struct {
	runner       app.CommandRunner
	poolDir      string
	snapshotsDir string
	log          *zap.Logger
}

func NewService(r app.CommandRunner, poolDir, snapshotsDir string, log *zap.Logger) Service {
	return Service{runner: r, poolDir: poolDir, snapshotsDir: snapshotsDir, log: logging.OrNop(log)}
}

// PlanPurge lists every snapshot except the newest of each group.
func (s Service) PlanPurge() ([]string, error) {
	l, err := snapshot.Scan(s.snapshotsDir)
	if err != nil {
		return nil, errors.Wrapf(err, "read snapshots dir %s", s.snapshotsDir)
	}
	var names []string
	for _, g := range l.Groups {
		if len(g.Entries) < 2 {
			continue
		}
		for _, e := range g.Entries[1:] {
			names = append(names, e.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Purge keeps only the newest snapshot of every group.
func (s Service) Purge(ctx context.Context) Result {
	names, err := s.PlanPurge()
	if err != nil {
		s.log.Error("purge scan failed", zap.Error(err))
		return Failed(err)
	}
	return s.deleteAll(ctx, "purge", s.snapshotsDir, names)
}

// PlanCleanBroken lists the pool entries whose name contains .BROKEN.
func (s Service) PlanCleanBroken() ([]string, error) {
	ents, err := os.ReadDir(s.poolDir)
	if err != nil {
		return nil, errors.Wrapf(err, "read pool dir %s", s.poolDir)
	}
	var names []string
	for _, ent := range ents {
		if !ent.IsDir() || !strings.Contains(ent.Name(), BrokenMarker) {
			continue
		}
		names = append(names, ent.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s Service) CleanBroken(ctx context.Context) Result {
	names, err := s.PlanCleanBroken()
	if err != nil {
		s.log.Error("clean-broken scan failed", zap.Error(err))
		return Failed(err)
	}
	return s.deleteAll(ctx, "clean-broken", s.poolDir, names)
}

func (s Service) deleteAll(ctx context.Context, op, dir string, names []string) Result {
	if len(names) == 0 {
		return Completed(0, nil)
	}
	if s.runner == nil {
		return Failed(errors.New("maintenance runner is nil"))
	}
	res := Completed(0, nil)
	for _, name := range names {
		p := filepath.Join(dir, name)
		if _, err := s.runner.Run(ctx, "btrfs", "subvolume", "delete", p); err != nil {
			s.log.Warn("delete failed", zap.String("op", op), zap.String("path", p), zap.Error(err))
			res.Errors = append(res.Errors, EntryError{Name: name, Err: err})
			continue
		}
		res.Count++
		res.Names = append(res.Names, name)
	}
	s.log.Info("maintenance finished", zap.String("op", op), zap.Int("count", res.Count), zap.Int("failed", len(res.Errors)))
	return res
}
