package kepub

import (
	"encoding/xml"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// containerPath is the well-known location of container.xml in an ePub.
const containerPath = "META-INF/container.xml"

// containerXML models the META-INF/container.xml file used to locate the OPF.
type containerXML struct {
	XMLName   xml.Name   `xml:"container"`
	RootFiles []rootFile `xml:"rootfiles>rootfile"`
}

// rootFile represents a single <rootfile> element inside container.xml.
type rootFile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

// findOPF locates the OPF package manifest inside the extracted container
// root and returns its path relative to root.
//
// It first tries META-INF/container.xml. If the file is missing or yields
// no usable rootfile, it falls back to scanning the tree for the first
// ".opf" file. Returns a wrapped ErrManifestMissing if no OPF path can be
// determined.
func findOPF(root string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(containerPath)))
	if err == nil {
		if p, err := parseContainerXML(data); err == nil {
			if _, statErr := os.Stat(filepath.Join(root, filepath.FromSlash(p))); statErr == nil {
				return p, nil
			}
		}
	}
	return fallbackFindOPF(root)
}

// parseContainerXML decodes container.xml and returns the full-path of the
// package rootfile, preferring the entry with the OPF media type.
func parseContainerXML(data []byte) (string, error) {
	data = stripBOM(data)

	var c containerXML
	if err := xml.Unmarshal(preprocessHTMLEntities(data), &c); err != nil {
		return "", fmt.Errorf("kepub: parse container.xml: %w", err)
	}

	var fallback string
	for _, rf := range c.RootFiles {
		fullPath := strings.TrimSpace(rf.FullPath)
		if fullPath == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(rf.MediaType), "application/oebps-package+xml") {
			return fullPath, nil
		}
		if fallback == "" {
			fallback = fullPath
		}
	}

	if fallback == "" {
		return "", fmt.Errorf("kepub: container.xml has no rootfile entries: %w", ErrManifestMissing)
	}
	return fallback, nil
}

// fallbackFindOPF walks the extracted tree for the first file ending in
// ".opf" (case-insensitive). Returns ErrManifestMissing if none is found.
func fallbackFindOPF(root string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries don't end the search
		}
		if found == "" && !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".opf") {
			rel, relErr := filepath.Rel(root, p)
			if relErr != nil {
				return relErr
			}
			found = filepath.ToSlash(rel)
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("kepub: scan for OPF: %w", err)
	}
	if found == "" {
		return "", fmt.Errorf("kepub: no OPF file found: %w", ErrManifestMissing)
	}
	return found, nil
}

// patchCoverImage annotates the cover image entry of the manifest tree so
// that Kobo firmware recognises it: the first <meta name="cover"> element's
// content attribute names the cover item's id, and that <item> gains
// properties="cover-image". The tree is mutated in place.
//
// Returns a wrapped ErrManifestMalformed when the cover meta is absent,
// lacks a content attribute, or references a missing item.
func patchCoverImage(pkg *Node) error {
	meta := pkg.firstDescendant(func(n *Node) bool {
		name, _ := n.GetAttr("name")
		return n.Name == "meta" && name == "cover"
	})
	if meta == nil {
		return fmt.Errorf(`kepub: no <meta name="cover"> element: %w`, ErrManifestMalformed)
	}

	coverID, ok := meta.GetAttr("content")
	if !ok {
		return fmt.Errorf(`kepub: <meta name="cover"> has no content attribute: %w`, ErrManifestMalformed)
	}

	item := pkg.firstDescendant(func(n *Node) bool {
		id, _ := n.GetAttr("id")
		return n.Name == "item" && id == coverID
	})
	if item == nil {
		return fmt.Errorf("kepub: no <item> with id %q: %w", coverID, ErrManifestMalformed)
	}

	item.SetAttr("properties", "cover-image")
	return nil
}

// contentDocuments returns the hrefs of all XHTML content documents listed
// in the manifest, in document order. Hrefs are relative to the OPF's
// directory.
func contentDocuments(pkg *Node) []string {
	var hrefs []string
	pkg.anyDescendant(func(n *Node) bool {
		if n.Name != "item" {
			return false
		}
		if mt, _ := n.GetAttr("media-type"); mt != "application/xhtml+xml" {
			return false
		}
		if href, ok := n.GetAttr("href"); ok {
			hrefs = append(hrefs, href)
		}
		return false // keep scanning
	})
	return hrefs
}
