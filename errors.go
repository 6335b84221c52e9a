package kepub

import "errors"

// Sentinel errors returned by the kepub package.
var (
	// ErrInputMissing indicates the source ePub file does not exist
	// or is not a regular file.
	ErrInputMissing = errors.New("kepub: input file missing or not a regular file")

	// ErrArchive indicates the ePub container could not be opened,
	// extracted, or repackaged.
	ErrArchive = errors.New("kepub: invalid or unreadable archive")

	// ErrManifestMissing indicates no OPF package manifest could be
	// located inside the extracted container.
	ErrManifestMissing = errors.New("kepub: no package manifest found")

	// ErrManifestMalformed indicates the OPF manifest could not be parsed,
	// or violates the cover contract (missing cover meta, missing content
	// attribute, or no matching manifest item).
	ErrManifestMalformed = errors.New("kepub: malformed package manifest")

	// ErrDocumentMalformed indicates a content document is missing
	// its <body> element.
	ErrDocumentMalformed = errors.New("kepub: malformed content document")

	// ErrDRMProtected indicates the ePub is protected by DRM
	// (e.g., Adobe ADEPT, Apple FairPlay, Readium LCP); converting it
	// would only produce a broken book.
	ErrDRMProtected = errors.New("kepub: file is DRM protected")
)
