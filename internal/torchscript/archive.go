// Package torchscript validates serialized TorchScript model archives.
//
// The on-disk format is a ZIP container holding every entry under a
// single record directory: <record>/data.pkl carries the pickled module
// graph, <record>/version the decimal serialization format version, and
// tensor payloads live under <record>/data/. Validation here is
// structural only; the pickled graph itself is opaque to this package.
package torchscript

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	ErrNotArchive   = errors.New("not a TorchScript archive")
	ErrMissingEntry = errors.New("missing archive entry")
	ErrCorruptEntry = errors.New("corrupt archive entry")
	ErrBadVersion   = errors.New("unsupported serialization format version")
)

// maxFormatVersion is the newest serialization format this toolchain is
// known to handle. Archives written by newer framework releases are
// rejected instead of failing later inside the export bridge.
const maxFormatVersion = 10

// pickleProto is the PROTO opcode every binary pickle stream opens with.
const pickleProto = 0x80

// Info describes a validated archive.
type Info struct {
	Path          string
	RecordName    string // root directory inside the archive
	FormatVersion int
	Entries       int   // file entries, directories excluded
	PayloadBytes  int64 // uncompressed size of all file entries
	HasConstants  bool  // constants.pkl present
}

// Open validates the archive at path and reports its layout. The file
// is closed before returning.
func Open(path string) (*Info, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return nil, fmt.Errorf("torchscript %s: %w: %v", path, ErrNotArchive, err)
		}
		return nil, fmt.Errorf("torchscript: open %s: %w", path, err)
	}
	defer r.Close()

	if len(r.File) == 0 {
		return nil, fmt.Errorf("torchscript %s: %w: empty archive", path, ErrNotArchive)
	}

	info := &Info{Path: path}
	var dataEntry, versionEntry *zip.File
	for _, f := range r.File {
		name := f.Name
		if strings.HasPrefix(name, "/") || strings.Contains(name, "..") {
			return nil, fmt.Errorf("torchscript %s: %w: unsafe entry name %q", path, ErrNotArchive, name)
		}
		idx := strings.IndexByte(name, '/')
		if idx <= 0 {
			return nil, fmt.Errorf("torchscript %s: %w: entry %q outside record directory", path, ErrNotArchive, name)
		}
		root := name[:idx]
		if info.RecordName == "" {
			info.RecordName = root
		} else if root != info.RecordName {
			return nil, fmt.Errorf("torchscript %s: %w: multiple record directories %q and %q", path, ErrNotArchive, info.RecordName, root)
		}
		if f.FileInfo().IsDir() {
			continue
		}
		info.Entries++
		info.PayloadBytes += int64(f.UncompressedSize64)

		switch strings.TrimPrefix(name, root+"/") {
		case "data.pkl":
			dataEntry = f
		case "version":
			versionEntry = f
		case "constants.pkl":
			info.HasConstants = true
		}
	}

	if dataEntry == nil {
		return nil, fmt.Errorf("torchscript %s: %w: %s/data.pkl", path, ErrMissingEntry, info.RecordName)
	}
	if versionEntry == nil {
		return nil, fmt.Errorf("torchscript %s: %w: %s/version", path, ErrMissingEntry, info.RecordName)
	}

	if err := checkPickle(dataEntry); err != nil {
		return nil, fmt.Errorf("torchscript %s: %w", path, err)
	}
	version, err := readVersion(versionEntry)
	if err != nil {
		return nil, fmt.Errorf("torchscript %s: %w", path, err)
	}
	info.FormatVersion = version
	return info, nil
}

func checkPickle(f *zip.File) error {
	if f.UncompressedSize64 == 0 {
		return fmt.Errorf("%w: %s is empty", ErrCorruptEntry, f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptEntry, f.Name, err)
	}
	defer rc.Close()

	var magic [1]byte
	if _, err := io.ReadFull(rc, magic[:]); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptEntry, f.Name, err)
	}
	if magic[0] != pickleProto {
		return fmt.Errorf("%w: %s does not start with a pickle PROTO opcode", ErrCorruptEntry, f.Name)
	}
	return nil
}

func readVersion(f *zip.File) (int, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrCorruptEntry, f.Name, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(io.LimitReader(rc, 64))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrCorruptEntry, f.Name, err)
	}
	version, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadVersion, strings.TrimSpace(string(raw)))
	}
	if version < 1 || version > maxFormatVersion {
		return 0, fmt.Errorf("%w: %d (supported 1..%d)", ErrBadVersion, version, maxFormatVersion)
	}
	return version, nil
}
