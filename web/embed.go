package web

import (
	"embed"
	"io/fs"
	"log"
)

//go:embed templates
var content embed.FS

// TemplatesFS returns the document templates file system.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(content, "templates")
	if err != nil {
		log.Fatalf("failed to create templates sub-filesystem: %v", err)
	}
	return sub
}
