package main

import (
	"log"
	"path/filepath"

	"github.com/recera/jsxlite/cmd/jsxlite/internal/build"
	"github.com/recera/jsxlite/cmd/jsxlite/internal/config"
	"github.com/recera/jsxlite/internal/cache"
)

// project is the loaded configuration plus the resources commands share.
type project struct {
	cfg   *config.Config
	cache *cache.Cache
}

// loadProject reads jsxlite.yaml from projectDir. Relative source and output
// directories are taken relative to it.
func loadProject(useCache bool) (*project, error) {
	cfg, err := config.Load(projectDir)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(cfg.SrcDir) {
		cfg.SrcDir = filepath.Join(projectDir, cfg.SrcDir)
	}
	if !filepath.IsAbs(cfg.OutDir) {
		cfg.OutDir = filepath.Join(projectDir, cfg.OutDir)
	}

	p := &project{cfg: cfg}
	if useCache && cfg.CacheEnabled() {
		c, err := cache.Open(cfg.CacheOptions())
		if err != nil {
			log.Printf("⚠️  Failed to initialize build cache: %v", err)
		} else {
			p.cache = c
		}
	}
	return p, nil
}

func (p *project) builder(targets []string) (*build.Builder, error) {
	return build.New(p.cfg, p.cache, targets...)
}

func (p *project) close() {
	if p.cache == nil {
		return
	}
	if err := p.cache.Close(); err != nil {
		log.Printf("⚠️  Failed to save build cache: %v", err)
	}
}

// sources returns args, or every component below the source directory when
// args is empty.
func (p *project) sources(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	return build.Discover(p.cfg, p.cfg.SrcDir)
}
