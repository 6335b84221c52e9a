package kepub

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestIsSafePath(t *testing.T) {
	safe := []string{
		"mimetype",
		"OEBPS/content.opf",
		"OEBPS/images/cover.jpg",
		"a/b/../c", // cleans to a/c
	}
	for _, p := range safe {
		if !isSafePath(p) {
			t.Errorf("isSafePath(%q) = false, want true", p)
		}
	}

	unsafe := []string{
		"../evil",
		"../../etc/passwd",
		"/etc/passwd",
		"a/../../evil",
	}
	for _, p := range unsafe {
		if isSafePath(p) {
			t.Errorf("isSafePath(%q) = true, want false", p)
		}
	}
}

func TestStripBOM(t *testing.T) {
	withBOM := []byte{0xEF, 0xBB, 0xBF, 'h', 'i'}
	if got := string(stripBOM(withBOM)); got != "hi" {
		t.Errorf("stripBOM() = %q, want %q", got, "hi")
	}
	without := []byte("hi")
	if got := string(stripBOM(without)); got != "hi" {
		t.Errorf("stripBOM() changed BOM-less data: %q", got)
	}
}

func TestExtractArchive_RoundTrip(t *testing.T) {
	files := testEPubFiles()
	src := buildTestEPubFile(t, files)

	dest := t.TempDir()
	if err := extractArchive(src, dest); err != nil {
		t.Fatalf("extractArchive() error: %v", err)
	}

	for name, want := range files {
		data, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(name)))
		if err != nil {
			t.Errorf("extracted file %s missing: %v", name, err)
			continue
		}
		if string(data) != want {
			t.Errorf("extracted %s content mismatch", name)
		}
	}
}

func TestExtractArchive_RejectsTraversal(t *testing.T) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	fw, err := zw.Create("../evil.txt")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	fw.Write([]byte("pwned"))
	zw.Close()

	src := filepath.Join(t.TempDir(), "evil.zip")
	if err := os.WriteFile(src, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write zip: %v", err)
	}

	if err := extractArchive(src, t.TempDir()); !errors.Is(err, ErrArchive) {
		t.Errorf("extractArchive() error = %v, want ErrArchive", err)
	}
}

func TestExtractArchive_NotAZip(t *testing.T) {
	src := filepath.Join(t.TempDir(), "not.zip")
	if err := os.WriteFile(src, []byte("plain text"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := extractArchive(src, t.TempDir()); !errors.Is(err, ErrArchive) {
		t.Errorf("extractArchive() error = %v, want ErrArchive", err)
	}
}

func TestPackArchive_MimetypeFirstAndStored(t *testing.T) {
	root := writeTestTree(t, map[string]string{
		"mimetype":        "application/epub+zip",
		"OEBPS/ch1.xhtml": "<html/>",
	})

	dest := filepath.Join(t.TempDir(), "out.epub")
	if err := packArchive(root, dest, func(string, ...any) {}); err != nil {
		t.Fatalf("packArchive() error: %v", err)
	}

	zr, err := zip.OpenReader(dest)
	if err != nil {
		t.Fatalf("open packed archive: %v", err)
	}
	defer zr.Close()

	if len(zr.File) == 0 {
		t.Fatal("packed archive is empty")
	}
	if zr.File[0].Name != "mimetype" {
		t.Fatalf("first entry = %v, want mimetype", zr.File[0].Name)
	}
	if zr.File[0].Method != zip.Store {
		t.Errorf("mimetype method = %d, want Store", zr.File[0].Method)
	}

	var foundDoc bool
	for _, f := range zr.File[1:] {
		if f.Name == "OEBPS/ch1.xhtml" {
			foundDoc = true
			if f.Method != zip.Deflate {
				t.Errorf("%s method = %d, want Deflate", f.Name, f.Method)
			}
		}
	}
	if !foundDoc {
		t.Error("packed archive missing OEBPS/ch1.xhtml")
	}
}

func TestPackArchive_ExplicitDirectoryEntries(t *testing.T) {
	root := writeTestTree(t, map[string]string{
		"OEBPS/images/cover.jpg": "jpeg",
	})

	dest := filepath.Join(t.TempDir(), "out.epub")
	if err := packArchive(root, dest, func(string, ...any) {}); err != nil {
		t.Fatalf("packArchive() error: %v", err)
	}

	_, names := readZipEntries(t, dest)
	hasDir := false
	for _, n := range names {
		if n == "OEBPS/" || n == "OEBPS/images/" {
			hasDir = true
		}
	}
	if !hasDir {
		t.Errorf("no explicit directory entries in %v", names)
	}
}

func TestPackExtract_RoundTrip(t *testing.T) {
	files := map[string]string{
		"mimetype":   "application/epub+zip",
		"a/one.txt":  "one",
		"a/b/two.tx": "two",
	}
	root := writeTestTree(t, files)

	dest := filepath.Join(t.TempDir(), "rt.zip")
	if err := packArchive(root, dest, func(string, ...any) {}); err != nil {
		t.Fatalf("packArchive() error: %v", err)
	}

	entries, _ := readZipEntries(t, dest)
	for name, want := range files {
		if entries[name] != want {
			t.Errorf("entry %s = %q, want %q", name, entries[name], want)
		}
	}
}
