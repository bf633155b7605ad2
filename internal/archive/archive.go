// Package archive extracts the tachyon executable from a release archive.
// Release artifacts contain a single binary, packaged as a zip for the
// Windows target and a gzip-compressed tar everywhere else.
package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"

	"github.com/tachyon-css/tachyon-go/internal/platform"
)

// ErrCorrupt indicates the archive could not be decoded or did not contain
// exactly one executable payload.
var ErrCorrupt = errors.New("corrupt archive")

// Extract returns the raw content of the single executable inside data.
// The container format is chosen by the target's archive extension.
func Extract(data []byte, target platform.Target) ([]byte, error) {
	if target.Ext() == "zip" {
		return extractZip(data)
	}
	return extractTarGz(data)
}

func extractTarGz(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: not a gzip stream: %v", ErrCorrupt, err)
	}
	defer gz.Close()

	var payload []byte
	found := false
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading tar entry: %v", ErrCorrupt, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if found {
			return nil, fmt.Errorf("%w: multiple file entries, expected a single binary", ErrCorrupt)
		}
		payload, err = io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrCorrupt, hdr.Name, err)
		}
		found = true
	}
	if !found {
		return nil, fmt.Errorf("%w: no file entry found", ErrCorrupt)
	}
	return payload, nil
}

func extractZip(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a zip container: %v", ErrCorrupt, err)
	}

	var payload []byte
	found := false
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if found {
			return nil, fmt.Errorf("%w: multiple file entries, expected a single binary", ErrCorrupt)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: opening %s: %v", ErrCorrupt, f.Name, err)
		}
		payload, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrCorrupt, f.Name, err)
		}
		found = true
	}
	if !found {
		return nil, fmt.Errorf("%w: no file entry found", ErrCorrupt)
	}
	return payload, nil
}
