package domain

// RawDocument is a downloaded document staged on local disk.
// It is the fetcher's output before normalisation. The fetcher owns
// the staged file and removes it once normalisation returns.
type RawDocument struct {
	// URI is the original location the bytes were downloaded from.
	URI string

	// Format selects the normaliser.
	Format Format

	// MIMEType is the content type reported by the server, if any.
	MIMEType string

	// Path is the staged file on local disk.
	Path string

	// Size is the number of bytes staged.
	Size int64

	// Metadata contains response-specific key-value pairs.
	Metadata map[string]any
}
