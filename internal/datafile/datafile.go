// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package datafile splits oversized flight logs into parts small enough for
// the repository host and joins them back.
package datafile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// DefaultChunkBytes keeps each part under a 100 MB upload limit.
const DefaultChunkBytes = 99 * 1024 * 1024

// LargePrefix marks files that should be split.
const LargePrefix = "large_"

var partName = regexp.MustCompile(`^part_(\d+)_(` + LargePrefix + `.*)$`)

// PartPath returns the name of part n of the file at path.
func PartPath(path string, n int) string {
	return filepath.Join(filepath.Dir(path), fmt.Sprintf("part_%d_%s", n, filepath.Base(path)))
}

// Split writes path as part_1_<name>, part_2_<name>, ... next to it. Every
// part starts with the header line and holds whole rows only; a part is
// closed before a row would take it past chunkBytes, so only a single row
// larger than the ceiling can produce an oversized part. It returns the
// part paths in order.
func Split(path string, chunkBytes int64) ([]string, error) {
	if chunkBytes <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkBytes)
	}
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer in.Close()

	r := bufio.NewReader(in)
	header, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var (
		parts   []string
		out     *os.File
		w       *bufio.Writer
		written int64
	)
	closePart := func() error {
		if out == nil {
			return nil
		}
		if err := w.Flush(); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	}
	openPart := func() error {
		if err := closePart(); err != nil {
			return err
		}
		name := PartPath(path, len(parts)+1)
		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("create part: %w", err)
		}
		out, w = f, bufio.NewWriter(f)
		parts = append(parts, name)
		n, err := w.WriteString(header)
		written = int64(n)
		return err
	}

	if err := openPart(); err != nil {
		closePart()
		return nil, err
	}
	rows := 0
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			size := int64(len(line))
			if rows > 0 && written+size > chunkBytes {
				if err := openPart(); err != nil {
					closePart()
					return nil, err
				}
				rows = 0
			}
			n, werr := w.WriteString(line)
			if werr != nil {
				closePart()
				return nil, fmt.Errorf("write part: %w", werr)
			}
			written += int64(n)
			rows++
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			closePart()
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	if err := closePart(); err != nil {
		return nil, err
	}
	return parts, nil
}

// JoinParts concatenates parts into out, keeping only the first header.
func JoinParts(parts []string, out string) error {
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	w := bufio.NewWriter(f)

	for i, part := range parts {
		if err := appendPart(w, part, i > 0); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func appendPart(w io.Writer, part string, skipHeader bool) error {
	in, err := os.Open(part)
	if err != nil {
		return fmt.Errorf("open part: %w", err)
	}
	defer in.Close()

	r := bufio.NewReader(in)
	if skipHeader {
		if _, err := r.ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read %s header: %w", part, err)
		}
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copy %s: %w", part, err)
	}
	return nil
}

// Groups finds part files in dir and returns them keyed by the original
// file name, each list ordered by the part number embedded in the name.
func Groups(dir string) (map[string][]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type numbered struct {
		n    int
		path string
	}
	found := map[string][]numbered{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := partName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("part number in %q: %w", e.Name(), err)
		}
		found[m[2]] = append(found[m[2]], numbered{n: n, path: filepath.Join(dir, e.Name())})
	}

	groups := make(map[string][]string, len(found))
	for orig, parts := range found {
		sort.Slice(parts, func(i, j int) bool { return parts[i].n < parts[j].n })
		for _, p := range parts {
			groups[orig] = append(groups[orig], p.path)
		}
	}
	return groups, nil
}

// Join rebuilds every split file found in dir and returns the rebuilt paths.
func Join(dir string) ([]string, error) {
	groups, err := Groups(dir)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("no part_ files found in %s", dir)
	}

	names := make([]string, 0, len(groups))
	for orig := range groups {
		names = append(names, orig)
	}
	sort.Strings(names)

	var out []string
	for _, orig := range names {
		target := filepath.Join(dir, orig)
		if err := JoinParts(groups[orig], target); err != nil {
			return out, err
		}
		out = append(out, target)
	}
	return out, nil
}

// SplitDir splits every large_ file in dir.
func SplitDir(dir string, chunkBytes int64) (map[string][]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := map[string][]string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), LargePrefix) {
			continue
		}
		parts, err := Split(filepath.Join(dir, e.Name()), chunkBytes)
		if err != nil {
			return out, err
		}
		out[e.Name()] = parts
	}
	return out, nil
}
