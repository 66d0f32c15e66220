package cleanup

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/crumley/taskdeck/internal/metrics"
	"github.com/crumley/taskdeck/internal/repo"
)

// minAge guards files saved between a Save and the task INSERT that records
// them: a fresh file is never treated as orphaned.
const minAge = time.Hour

// Start runs an hourly job that removes files in the upload directory that no
// task row references anymore (e.g. after task deletion). Returns the cron so
// the caller can Stop it on shutdown.
func Start(taskRepo *repo.TaskRepo, dir string) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc("@hourly", func() { sweep(taskRepo, dir) })
	if err != nil {
		log.Printf("cleanup: add cron job: %v", err)
		return c
	}
	c.Start()
	return c
}

func sweep(taskRepo *repo.TaskRepo, dir string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	paths, err := taskRepo.ListImagePaths(ctx)
	if err != nil {
		log.Printf("cleanup: list referenced images: %v", err)
		return
	}
	referenced := make(map[string]bool, len(paths))
	for _, p := range paths {
		referenced[filepath.Base(p)] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("cleanup: read upload dir: %v", err)
		return
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || referenced[e.Name()] {
			continue
		}
		info, err := e.Info()
		if err != nil || time.Since(info.ModTime()) < minAge {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			log.Printf("cleanup: remove %s: %v", e.Name(), err)
			continue
		}
		removed++
	}

	if removed > 0 {
		metrics.IncUploadsCleaned(removed)
		log.Printf("cleanup: removed %d orphaned upload file(s)", removed)
	}
}
