package storage

import (
	"io"
	"mime/multipart"
)

type FileInfo struct {
	Filename    string
	ContentType string
	Size        int64
}

type Storage interface {
	SaveFile(file multipart.File, info FileInfo) (string, error)
	OpenFile(path string) (io.ReadSeekCloser, error)
	// FilePath resolves a stored name to a local filesystem path for tools
	// that need direct file access (ffmpeg).
	FilePath(path string) (string, error)
	DeleteFile(path string) error
}
