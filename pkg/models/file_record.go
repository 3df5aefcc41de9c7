package models

import (
	"time"

	"github.com/google/uuid"
)

// File record types.
const (
	FileTypeFile   = "file"
	FileTypeFolder = "folder"
)

// IsValidFileType checks if the given type is a known record type.
func IsValidFileType(t string) bool {
	return t == FileTypeFile || t == FileTypeFolder
}

// FileRecord is a node of a project's virtual file tree.
// Path is the normalized parent path; "" is the project root.
type FileRecord struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Path      string    `json:"path"`
	FullPath  string    `json:"full_path"`
	Content   string    `json:"content,omitempty"`
	Changes   string    `json:"changes,omitempty"` // last modifier
	Time      string    `json:"time,omitempty"`    // display label, e.g. "Just now"
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsFolder reports whether the record is a folder.
func (f *FileRecord) IsFolder() bool {
	return f.Type == FileTypeFolder
}
