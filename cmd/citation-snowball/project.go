// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/citation-snowball/internal/openalex"
	"github.com/pdiddy/citation-snowball/internal/secrets"
	"github.com/pdiddy/citation-snowball/internal/store"
	"github.com/pdiddy/citation-snowball/pkg/types"
)

const (
	projectDirName   = ".snowball"
	downloadsDirName = "downloads"
	reportsDirName   = "reports"
	seedsFileName    = "seeds.txt"

	defaultUserAgent = "citation-snowball/0.1"
)

// resolveDir validates the target directory argument (first positional,
// default current directory) and returns it as an absolute path.
func resolveDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", dir)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", dir)
	}
	return abs, nil
}

// openProjectStore opens the project database under <dir>/.snowball/.
func openProjectStore(dir string) (*store.Store, error) {
	return store.Open(filepath.Join(dir, projectDirName))
}

// getOrCreateProject returns the directory's project, creating it with the
// default configuration on first use. The project is named after the
// directory.
func getOrCreateProject(ctx context.Context, s *store.Store, dir string) (types.Project, error) {
	name := filepath.Base(dir)
	project, err := s.GetProjectByName(ctx, name)
	if err == nil {
		return project, nil
	}
	if !errors.Is(err, store.ErrProjectNotFound) {
		return types.Project{}, err
	}
	fmt.Fprintf(os.Stderr, "Creating new project %q\n", name)
	return s.CreateProject(ctx, name, types.DefaultProjectConfig())
}

// getProject returns the directory's project or a user-facing error when
// none exists yet.
func getProject(ctx context.Context, s *store.Store, dir string) (types.Project, error) {
	name := filepath.Base(dir)
	project, err := s.GetProjectByName(ctx, name)
	if errors.Is(err, store.ErrProjectNotFound) {
		return types.Project{}, fmt.Errorf("no project in %s: run `citation-snowball run` first", dir)
	}
	return project, err
}

// openalexConfig assembles the client configuration from the config file,
// environment, and the secrets directory.
func openalexConfig() types.OpenAlexConfig {
	cfg := types.OpenAlexConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("openalex.timeout"),
			UserAgent: defaultUserAgent,
		},
		Email:             secrets.Get(loadedSecrets, "openalex-email", viper.GetString("openalex.email")),
		APIKey:            secrets.Get(loadedSecrets, "openalex-api-key", viper.GetString("openalex.api_key")),
		RequestsPerSecond: viper.GetFloat64("openalex.requests_per_second"),
		MaxRetries:        viper.GetInt("openalex.max_retries"),
		CacheTTLDays:      viper.GetInt("openalex.cache_ttl_days"),
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	if cfg.CacheTTLDays == 0 {
		cfg.CacheTTLDays = 7
	}
	return cfg
}

// newWorkSource builds the OpenAlex client backed by the store's response
// cache.
func newWorkSource(s *store.Store) *openalex.Client {
	return openalex.NewClient(openalexConfig(), s)
}
