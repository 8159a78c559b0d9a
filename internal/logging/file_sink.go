package logging

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"sync"
)

// fileSink appends log lines to path and rolls the file before a write would
// take it past maxBytes. With keep > 0 the full file becomes path.1 and older
// segments shift up to path.<keep>; with keep == 0 the file is truncated.
type fileSink struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
	keep     int
	f        *os.File
	written  int64
}

func openFileSink(path string, maxBytes int64, keep int) (*fileSink, error) {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	s := &fileSink{path: path, maxBytes: maxBytes, keep: max(keep, 0)}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *fileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		if err := s.open(); err != nil {
			return 0, err
		}
	}
	// a single oversized line still lands in a fresh file
	if s.written > 0 && s.written+int64(len(p)) > s.maxBytes {
		if err := s.roll(); err != nil {
			return 0, err
		}
	}
	n, err := s.f.Write(p)
	s.written += int64(n)
	return n, err
}

func (s *fileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

func (s *fileSink) open() error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	s.f = f
	s.written = info.Size()
	return nil
}

func (s *fileSink) roll() error {
	_ = s.f.Close()
	s.f = nil
	if s.keep == 0 {
		if err := os.Truncate(s.path, 0); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return s.open()
	}
	for i := s.keep - 1; i >= 1; i-- {
		if err := os.Rename(segmentPath(s.path, i), segmentPath(s.path, i+1)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if err := os.Rename(s.path, segmentPath(s.path, 1)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return s.open()
}

func segmentPath(path string, i int) string {
	return path + "." + strconv.Itoa(i)
}
