package pack

import (
	"archive/tar"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"

	"intentforge/internal/canon"
)

// archiveDir tars and zstd-compresses the named files under dir into
// "<dir>.tar.zst" (SPEC_FULL.md "Pack Archiving"), returning the archive's
// own sha256. The archive sits alongside the exported directory rather
// than inside it, so it is never itself a pack member the Pack Verifier's
// manifest check (PK2) has to know about.
func archiveDir(dir string, names []string) (string, error) {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	archivePath := dir + ".tar.zst"
	f, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("pack: cannot create archive: %w", err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return "", fmt.Errorf("pack: cannot open zstd writer: %w", err)
	}
	tw := tar.NewWriter(zw)

	for _, name := range sorted {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			tw.Close()
			zw.Close()
			return "", fmt.Errorf("pack: cannot stat %s: %w", name, err)
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			tw.Close()
			zw.Close()
			return "", fmt.Errorf("pack: cannot build tar header for %s: %w", name, err)
		}
		hdr.Name = name
		if err := tw.WriteHeader(hdr); err != nil {
			tw.Close()
			zw.Close()
			return "", fmt.Errorf("pack: cannot write tar header for %s: %w", name, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			tw.Close()
			zw.Close()
			return "", fmt.Errorf("pack: cannot read %s: %w", name, err)
		}
		if _, err := tw.Write(data); err != nil {
			tw.Close()
			zw.Close()
			return "", fmt.Errorf("pack: cannot write %s into archive: %w", name, err)
		}
	}

	if err := tw.Close(); err != nil {
		zw.Close()
		return "", fmt.Errorf("pack: cannot finalize tar stream: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("pack: cannot finalize zstd stream: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("pack: cannot close archive file: %w", err)
	}

	archived, err := os.ReadFile(archivePath)
	if err != nil {
		return "", fmt.Errorf("pack: cannot re-read archive for hashing: %w", err)
	}
	return canon.HashBytes(archived), nil
}
