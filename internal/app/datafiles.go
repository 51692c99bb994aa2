// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"log"
	"sort"

	"github.com/relabs-tech/post_flight/internal/config"
	"github.com/relabs-tech/post_flight/internal/datafile"
)

// RunSplit splits every large_ file in dir into parts of at most
// SPLIT_CHUNK_BYTES.
func RunSplit(cfg *config.Config, dir string) error {
	if dir == "" {
		dir = cfg.DataDir
	}
	out, err := datafile.SplitDir(dir, cfg.SplitChunkBytes)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(out))
	for name := range out {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		log.Printf("split: %s -> %d parts", name, len(out[name]))
	}
	if len(names) == 0 {
		log.Printf("split: no large_ files in %s", dir)
	}
	return nil
}

// RunJoin rebuilds every split file found in dir.
func RunJoin(cfg *config.Config, dir string) error {
	if dir == "" {
		dir = cfg.DataDir
	}
	rebuilt, err := datafile.Join(dir)
	for _, path := range rebuilt {
		log.Printf("join: rebuilt %s", path)
	}
	return err
}
