package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"path/filepath"
)

// maxLineBytes bounds a single JSON line; abstracts are a few KB at most.
const maxLineBytes = 1 << 20

// ReadFile opens path eagerly (a missing file is a hard error, reported with
// the path) and returns a lazy sequence over its JSON lines. Lines that fail
// to decode are skipped.
func ReadFile[T any](path string) (iter.Seq[*T], error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return func(yield func(*T) bool) {
		f, err := os.Open(path)
		if err != nil {
			return
		}
		defer f.Close()
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			v := new(T)
			if err := json.Unmarshal(line, v); err != nil {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}, nil
}

// ReadFiles chains the JSON lines of paths lazily in the given order. Each
// file is opened only when the sequence reaches it. A file that cannot be
// opened aborts the sequence through onErr (which may be nil).
func ReadFiles[T any](paths []string, onErr func(error)) iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for _, path := range paths {
			seq, err := ReadFile[T](path)
			if err != nil {
				if onErr != nil {
					onErr(err)
				}
				return
			}
			for v := range seq {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// WriteFile writes each element of seq as one JSON line to path, creating
// parent directories as needed. The file is replaced wholesale; writing the
// same sequence twice yields byte-identical content.
func WriteFile[T any](path string, seq iter.Seq[*T]) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for v := range seq {
		if err := enc.Encode(v); err != nil {
			_ = f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// AppendLine appends a single JSON line to path, creating the file and parent
// directories if needed. Used by the annotation endpoint.
func AppendLine[T any](path string, v *T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append %s: %w", path, err)
	}
	return nil
}
