package extract

import "errors"

var (
	// ErrFileTooLarge indicates the input exceeds the maximum allowed size.
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")

	// ErrEmptyExtraction indicates no text could be recovered from the file.
	ErrEmptyExtraction = errors.New("no text could be extracted from file")

	// ErrUnsupportedFormat indicates the file extension has no registered
	// extractor.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrInvalidPDF indicates the input could not be parsed as a PDF.
	ErrInvalidPDF = errors.New("invalid or corrupted PDF")
)
