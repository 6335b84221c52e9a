package kepub

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// Converter drives a single ePub → KEPUB conversion through a scratch
// directory: extract, patch the package manifest, rewrite every content
// document, repackage. A Converter is single-use; its scratch directory is
// removed when Convert returns, whether or not the conversion succeeded.
//
// A Converter is not safe for concurrent use by multiple goroutines.
type Converter struct {
	workDir string
	logf    func(format string, args ...any)
}

// NewConverter creates a Converter with a fresh scratch directory.
func NewConverter() (*Converter, error) {
	dir, err := os.MkdirTemp("", "kepub-*")
	if err != nil {
		return nil, fmt.Errorf("kepub: create scratch directory: %w", err)
	}
	return &Converter{
		workDir: dir,
		logf:    func(string, ...any) {},
	}, nil
}

// SetLogger installs a progress logger. By default progress is discarded.
func (c *Converter) SetLogger(logf func(format string, args ...any)) {
	if logf != nil {
		c.logf = logf
	}
}

// Convert reads the ePub at inputPath and writes the converted KEPUB to
// outputPath. The output file only appears once the whole conversion has
// succeeded; on any failure the destination is left untouched and the
// scratch directory is discarded.
func (c *Converter) Convert(inputPath, outputPath string) error {
	defer os.RemoveAll(c.workDir)

	info, err := os.Stat(inputPath)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("kepub: %s: %w", inputPath, ErrInputMissing)
	}

	if err := extractArchive(inputPath, c.workDir); err != nil {
		return err
	}

	fontObfuscation, err := checkDRM(c.workDir)
	if err != nil {
		return fmt.Errorf("kepub: %s: %w", inputPath, err)
	}
	if fontObfuscation {
		c.logf("font obfuscation detected; obfuscated fonts may not render correctly")
	}

	opfPath, err := c.patchManifest()
	if err != nil {
		return err
	}

	if err := c.convertDocuments(opfPath); err != nil {
		return err
	}

	return c.pack(outputPath)
}

// patchManifest locates the OPF, flags the cover image item, and writes
// the manifest back. It returns the OPF path relative to the scratch root.
func (c *Converter) patchManifest() (string, error) {
	opfPath, err := findOPF(c.workDir)
	if err != nil {
		return "", err
	}

	fsPath := filepath.Join(c.workDir, filepath.FromSlash(opfPath))
	data, err := os.ReadFile(fsPath)
	if err != nil {
		return "", fmt.Errorf("kepub: read %s: %w", opfPath, err)
	}

	doc, err := parseXML(data, opfPath)
	if err != nil {
		return "", fmt.Errorf("kepub: %s: %v: %w", opfPath, err, ErrManifestMalformed)
	}

	if err := patchCoverImage(doc.Root); err != nil {
		return "", err
	}

	if err := os.WriteFile(fsPath, serializeDocument(doc), 0o644); err != nil {
		return "", fmt.Errorf("kepub: write %s: %w", opfPath, err)
	}
	return opfPath, nil
}

// convertDocuments re-reads the patched manifest, enumerates the XHTML
// content documents, and rewrites each one in document order. Documents
// are independent; any failure aborts the conversion.
func (c *Converter) convertDocuments(opfPath string) error {
	data, err := os.ReadFile(filepath.Join(c.workDir, filepath.FromSlash(opfPath)))
	if err != nil {
		return fmt.Errorf("kepub: read %s: %w", opfPath, err)
	}
	doc, err := parseXML(data, opfPath)
	if err != nil {
		return fmt.Errorf("kepub: %s: %v: %w", opfPath, err, ErrManifestMalformed)
	}

	opfDir := path.Dir(opfPath)
	for _, href := range contentDocuments(doc.Root) {
		rel := href
		if opfDir != "." {
			rel = path.Join(opfDir, href)
		}
		c.logf("converting %s", rel)
		if err := c.convertDocument(rel); err != nil {
			return err
		}
	}
	return nil
}

// convertDocument restructures and span-converts one content document,
// writing the result back over the original file. A document that already
// carries kobospan markers is left byte-for-byte unchanged.
func (c *Converter) convertDocument(rel string) error {
	fsPath := filepath.Join(c.workDir, filepath.FromSlash(rel))
	data, err := os.ReadFile(fsPath)
	if err != nil {
		return fmt.Errorf("kepub: read %s: %w", rel, err)
	}

	doc, err := parseDocument(data, rel)
	if err != nil {
		return err
	}

	body, err := restructureBody(doc)
	if err != nil {
		return err
	}

	if !convertSpans(body) {
		c.logf("kobo spans found in %s, skipping", rel)
		return nil
	}

	if err := os.WriteFile(fsPath, serializeDocument(doc), 0o644); err != nil {
		return fmt.Errorf("kepub: write %s: %w", rel, err)
	}
	return nil
}

// pack repackages the scratch tree and moves the archive into place.
// The archive is built in a temporary file next to the destination so a
// failed pack never leaves a partial KEPUB behind.
func (c *Converter) pack(outputPath string) error {
	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("kepub: create output directory: %w", err)
		}
	}

	tmp := outputPath + ".partial"
	if err := packArchive(c.workDir, tmp, c.logf); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, outputPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("kepub: move archive into place: %w", err)
	}
	return nil
}
