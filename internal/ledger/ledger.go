package ledger

import "time"

// DocumentRow records the last successful write of a source for a target.
type DocumentRow struct {
	Source    string
	Target    string
	Slug      string
	Filename  string
	Checksum  string
	UpdatedAt time.Time
}

// UploadRow maps an uploaded file's content checksum to its public URL.
type UploadRow struct {
	Checksum   string
	Source     string
	URL        string
	UploadedAt time.Time
}

// Ledger defines the ledger operations. Consumers should depend on this
// interface rather than the concrete *DB type.
type Ledger interface {
	UpsertDocument(row DocumentRow) error
	GetDocument(source, target string) (*DocumentRow, error)
	DeleteDocument(source, target string) error
	UpsertUpload(row UploadRow) error
	GetUpload(checksum string) (*UploadRow, error)
	Close() error
}

// Verify *DB satisfies Ledger at compile time.
var _ Ledger = (*DB)(nil)
