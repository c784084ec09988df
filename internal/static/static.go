package static

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
)

//go:embed static/*
var StaticFS embed.FS

// FileSystem returns the embedded assets rooted at the static directory.
func FileSystem() (http.FileSystem, error) {
	sub, err := fs.Sub(StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded static files: %w", err)
	}
	return http.FS(sub), nil
}
