/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/dpx/cache/strategy"
	"dirpx.dev/dpx/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, config.DefaultMatchCacheCapacity, cfg.MatchCacheCapacity)
	assert.Equal(t, config.DefaultResolvedCacheCapacity, cfg.ResolvedCacheCapacity)
	assert.Equal(t, strategy.LRU, cfg.Strategy)
}

func TestNewConfigOptions(t *testing.T) {
	cfg := config.NewConfig(
		config.WithMatchCacheCapacity(64),
		config.WithResolvedCacheCapacity(128),
		config.WithStrategy(strategy.None),
	)
	assert.Equal(t, 64, cfg.MatchCacheCapacity)
	assert.Equal(t, 128, cfg.ResolvedCacheCapacity)
	assert.Equal(t, strategy.None, cfg.Strategy)
}

func TestNewConfigInvalidCapacitiesReset(t *testing.T) {
	cfg := config.NewConfig(
		config.WithMatchCacheCapacity(-1),
		config.WithResolvedCacheCapacity(0),
	)
	assert.Equal(t, config.DefaultMatchCacheCapacity, cfg.MatchCacheCapacity)
	assert.Equal(t, config.DefaultResolvedCacheCapacity, cfg.ResolvedCacheCapacity)
}

func TestFromYAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
match_cache_capacity: 5
resolved_cache_capacity: 9
strategy: none
`))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MatchCacheCapacity)
	assert.Equal(t, 9, cfg.ResolvedCacheCapacity)
	assert.Equal(t, strategy.None, cfg.Strategy)
}

func TestFromYAMLPartial(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`match_cache_capacity: 7`))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MatchCacheCapacity)
	assert.Equal(t, config.DefaultResolvedCacheCapacity, cfg.ResolvedCacheCapacity)
	assert.Equal(t, strategy.LRU, cfg.Strategy, "omitted strategy keeps the default")

	cfg, err = config.FromYAML([]byte(``))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestFromYAMLErrors(t *testing.T) {
	_, err := config.FromYAML([]byte(`strategy: bogus`))
	assert.Error(t, err)

	_, err = config.FromYAML([]byte(`{not yaml`))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dispatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy: LRU\nmatch_cache_capacity: 3\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MatchCacheCapacity)
	assert.Equal(t, strategy.LRU, cfg.Strategy)

	_, err = config.Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
