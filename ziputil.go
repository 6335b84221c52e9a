package kepub

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxDecompressSize is the maximum allowed decompressed size for a single
// ZIP entry. This guards against zip bomb attacks. Defaults to 256 MB.
const maxDecompressSize int64 = 256 * 1024 * 1024

// isSafePath checks whether p is a safe ZIP-internal path that does not
// escape the archive root via path traversal (e.g., "../../../etc/passwd").
func isSafePath(p string) bool {
	cleaned := filepath.ToSlash(filepath.Clean(filepath.FromSlash(p)))
	if strings.HasPrefix(cleaned, "/") {
		return false
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return false
	}
	return true
}

// stripBOM removes a leading UTF-8 BOM (0xEF 0xBB 0xBF) from data, if present.
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

// extractArchive unpacks the ePub at src into the dest directory.
// Entry paths are validated against traversal and each entry's
// decompressed size is limited to maxDecompressSize.
func extractArchive(src, dest string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("kepub: open %s: %v: %w", src, err, ErrArchive)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if !isSafePath(f.Name) {
			return fmt.Errorf("kepub: unsafe zip entry path %q: %w", f.Name, ErrArchive)
		}

		target := filepath.Join(dest, filepath.FromSlash(f.Name))
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("kepub: extract %s: %w", f.Name, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("kepub: extract %s: %w", f.Name, err)
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

// extractFile writes one ZIP entry to target, enforcing the decompression
// limit even when the declared size is forged.
func extractFile(f *zip.File, target string) error {
	if f.UncompressedSize64 > uint64(maxDecompressSize) {
		return fmt.Errorf("kepub: zip entry %s too large: %d bytes: %w",
			f.Name, f.UncompressedSize64, ErrArchive)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("kepub: open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("kepub: extract %s: %w", f.Name, err)
	}
	defer out.Close()

	n, err := io.Copy(out, io.LimitReader(rc, maxDecompressSize+1))
	if err != nil {
		return fmt.Errorf("kepub: extract %s: %w", f.Name, err)
	}
	if n > maxDecompressSize {
		return fmt.Errorf("kepub: zip entry %s decompressed size exceeds limit: %w", f.Name, ErrArchive)
	}
	return nil
}

// packArchive zips the tree rooted at src into a new archive at dest.
// The mimetype entry is written first and stored uncompressed, as the ePub
// container format requires; everything else is deflated, with explicit
// directory entries. An entry that cannot be read is logged via logf and
// skipped rather than aborting the pack; this mirrors long-standing
// behavior and is intentionally more forgiving than the rest of the
// pipeline.
func packArchive(src, dest string, logf func(format string, args ...any)) error {
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("kepub: create %s: %w", dest, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	if data, err := os.ReadFile(filepath.Join(src, "mimetype")); err == nil {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
		if err != nil {
			return fmt.Errorf("kepub: write mimetype entry: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("kepub: write mimetype entry: %w", err)
		}
	}

	walkErr := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			logf("cannot zip entry %s: %v", p, err)
			return nil
		}

		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if name == "." || name == "mimetype" {
			return nil
		}

		if d.IsDir() {
			if _, err := zw.Create(name + "/"); err != nil {
				return fmt.Errorf("kepub: add directory %s: %w", name, err)
			}
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			logf("cannot zip entry %s: %v", name, err)
			return nil
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("kepub: add entry %s: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("kepub: write entry %s: %w", name, err)
		}
		return nil
	})
	if walkErr != nil {
		return walkErr
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("kepub: finalize %s: %w", dest, err)
	}
	return out.Close()
}
