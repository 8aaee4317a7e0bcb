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

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"dirpx.dev/dpx/apis"
	"dirpx.dev/dpx/cache/strategy"
)

// fileConfig is the YAML shape of a dispatch configuration. Omitted
// fields keep their defaults; the strategy token round-trips through
// strategy.Strategy's text (un)marshaling.
type fileConfig struct {
	// MatchCacheCapacity bounds the structural match cache (tier 1).
	MatchCacheCapacity int `yaml:"match_cache_capacity,omitempty"`
	// ResolvedCacheCapacity bounds the priority-resolved cache (tier 2).
	ResolvedCacheCapacity int `yaml:"resolved_cache_capacity,omitempty"`
	// Strategy is the eviction policy token ("LRU", "None", ...).
	Strategy string `yaml:"strategy,omitempty"`
}

// FromYAML parses a YAML document into an apis.Config. Missing fields
// keep their defaults; non-positive capacities reset to the defaults.
func FromYAML(data []byte) (apis.Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return apis.Config{}, fmt.Errorf("config: parse yaml: %w", err)
	}

	opts := []Option{
		WithMatchCacheCapacity(fc.MatchCacheCapacity),
		WithResolvedCacheCapacity(fc.ResolvedCacheCapacity),
	}
	if fc.Strategy != "" {
		s, err := strategy.Parse(fc.Strategy)
		if err != nil {
			return apis.Config{}, err
		}
		opts = append(opts, WithStrategy(s))
	}
	return NewConfig(opts...), nil
}

// Load reads a YAML configuration file from path.
func Load(path string) (apis.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return apis.Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return FromYAML(data)
}
