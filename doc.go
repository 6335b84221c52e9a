// Package kepub converts ePub files into Kobo's KEPUB variant.
//
// A KEPUB is an ordinary ePub whose package manifest flags the cover image
// (properties="cover-image") and whose XHTML content documents wrap every
// sentence (and every image) in a uniquely numbered marker span:
//
//	<span class="kobospan" id="kobo.3.2">A second sentence. </span>
//
// These markers are what enable sentence-level features (highlighting,
// annotations, precise reading position) on Kobo devices. Body content is
// additionally wrapped in the book-columns/book-inner scaffold the Kobo
// renderer expects.
//
// # Converting a book
//
// Use [NewConverter] followed by [Converter.Convert]:
//
//	conv, err := kepub.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := conv.Convert("book.epub", "book.kepub.epub"); err != nil {
//	    log.Fatal(err)
//	}
//
// Conversion is idempotent: a document that already contains kobospan
// markers is left untouched. The output file only appears after the whole
// conversion has succeeded; intermediate state lives in a scratch
// directory that is always discarded.
//
// # Error Handling
//
// The package defines sentinel errors for common failure cases:
//   - [ErrInputMissing] – the source file is absent or not a regular file
//   - [ErrArchive] – the container is malformed or cannot be (re)packed
//   - [ErrManifestMissing] – no OPF package manifest was found
//   - [ErrManifestMalformed] – the manifest violates the cover contract
//   - [ErrDocumentMalformed] – a content document has no <body>
//   - [ErrDRMProtected] – the file is DRM encrypted
package kepub
