// Package storage provides helpers shared by the file-based snapshot
// backends.
package storage

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/electrostore/internal/domain/storeerr"
)

// GzipSuffix marks snapshot files stored gzip-compressed.
const GzipSuffix = ".gz"

// ReadFile returns the decoded contents of a snapshot file. A missing file
// yields ok=false and no error. Unreadable files yield a SerializationError.
func ReadFile(path string) (data []byte, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, &storeerr.SerializationError{Source: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, GzipSuffix) {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, false, &storeerr.SerializationError{Source: path, Err: errors.Wrap(err, "gzip reader")}
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	data, err = io.ReadAll(r)
	if err != nil {
		return nil, false, &storeerr.SerializationError{Source: path, Err: err}
	}
	return data, true, nil
}

// WriteFile replaces the snapshot file atomically: data is written to a
// temporary file in the same directory which is then renamed over path.
func WriteFile(path string, data []byte) (rerr error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrapf(err, "create temp file in %s", dir)
	}
	defer func() {
		if rerr != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if strings.HasSuffix(path, GzipSuffix) {
		gz := pgzip.NewWriter(tmp)
		if _, err := io.Copy(gz, bytes.NewReader(data)); err != nil {
			return errors.Wrap(err, "write gzip")
		}
		if err := gz.Close(); err != nil {
			return errors.Wrap(err, "close gzip")
		}
	} else if _, err := tmp.Write(data); err != nil {
		return errors.Wrap(err, "write")
	}

	if err := tmp.Sync(); err != nil {
		return errors.Wrap(err, "sync")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "rename to %s", path)
	}
	return nil
}
