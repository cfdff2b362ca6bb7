// Package textfile opens text inputs as UTF-8, tolerating a leading byte-order
// mark. Exports from spreadsheet and GIS tools often prepend one.
package textfile

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Open returns a reader over path decoded as UTF-8. A UTF-8 BOM is stripped;
// a UTF-16 BOM switches decoding to UTF-16 of that byte order.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &readCloser{
		Reader: transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder())),
		file:   f,
	}, nil
}

// ReadAll loads the whole file at path as UTF-8.
func ReadAll(path string) ([]byte, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return data, nil
}

type readCloser struct {
	io.Reader
	file *os.File
}

func (r *readCloser) Close() error {
	return r.file.Close()
}
