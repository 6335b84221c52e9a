package kepub

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// Standard fixture content shared by opf, convert, and ziputil tests.

const testContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml" />
  </rootfiles>
</container>`

const testOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Test Book</dc:title>
    <meta name="cover" content="cover-img" />
  </metadata>
  <manifest>
    <item id="cover-img" href="cover.jpg" media-type="image/jpeg" />
    <item id="ch1" href="chapter1.xhtml" media-type="application/xhtml+xml" />
    <item id="ch2" href="chapter2.xhtml" media-type="application/xhtml+xml" />
    <item id="css" href="style.css" media-type="text/css" />
  </manifest>
  <spine>
    <itemref idref="ch1" />
    <itemref idref="ch2" />
  </spine>
</package>`

const testChapter1 = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
  <head>
    <title>Chapter 1</title>
  </head>
  <body>
    <p>First sentence. Second sentence.</p>
    <p>Another paragraph.</p>
  </body>
</html>`

const testChapter2 = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
  <head>
    <title>Chapter 2</title>
  </head>
  <body>
    <h1>Heading</h1>
    <p>Body text here.</p>
  </body>
</html>`

// testEPubFiles returns the file map for a minimal but complete ePub.
func testEPubFiles() map[string]string {
	return map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": testContainerXML,
		"OEBPS/content.opf":      testOPF,
		"OEBPS/chapter1.xhtml":   testChapter1,
		"OEBPS/chapter2.xhtml":   testChapter2,
		"OEBPS/cover.jpg":        "\xff\xd8fakejpeg",
		"OEBPS/style.css":        "p { margin: 0 }",
	}
}

// buildTestEPubFile writes an ePub (ZIP) archive to a temporary file and
// returns the file path. The mimetype entry is written first, as the ePub
// spec requires.
func buildTestEPubFile(t *testing.T, files map[string]string) string {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	if mt, ok := files["mimetype"]; ok {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
		if err != nil {
			t.Fatalf("buildTestEPubFile: create mimetype: %v", err)
		}
		if _, err := io.WriteString(fw, mt); err != nil {
			t.Fatalf("buildTestEPubFile: write mimetype: %v", err)
		}
	}
	for name, content := range files {
		if name == "mimetype" {
			continue
		}
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("buildTestEPubFile: create %s: %v", name, err)
		}
		if _, err := io.WriteString(fw, content); err != nil {
			t.Fatalf("buildTestEPubFile: write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("buildTestEPubFile: close writer: %v", err)
	}

	fp := filepath.Join(t.TempDir(), "test.epub")
	if err := os.WriteFile(fp, buf.Bytes(), 0644); err != nil {
		t.Fatalf("buildTestEPubFile: write file: %v", err)
	}
	return fp
}

// writeTestTree writes the file map under a fresh temp directory and
// returns its path. Keys are slash-separated relative paths.
func writeTestTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("writeTestTree: mkdir for %s: %v", name, err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("writeTestTree: write %s: %v", name, err)
		}
	}
	return root
}

// mustParseXML parses data as strict XML or fails the test.
func mustParseXML(t *testing.T, data string) *Document {
	t.Helper()
	doc, err := parseXML([]byte(data), "test.xml")
	if err != nil {
		t.Fatalf("parseXML() error: %v", err)
	}
	return doc
}

// readZipEntries opens the archive at path and returns its entries
// (name → content) plus the ordered entry names.
func readZipEntries(t *testing.T, path string) (map[string]string, []string) {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("readZipEntries: open %s: %v", path, err)
	}
	defer zr.Close()

	entries := make(map[string]string)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("readZipEntries: open entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("readZipEntries: read entry %s: %v", f.Name, err)
		}
		entries[f.Name] = string(data)
	}
	return entries, names
}
