package visurena

import (
	"embed"
	"io/fs"
)

// EmbeddedAssets contains the default stylesheet and favicon, served under
// /public/ unless the static dir has a file of the same name.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

func embeddedPublic() fs.FS {
	sub, err := fs.Sub(EmbeddedAssets, "embedded")
	if err != nil {
		panic(err)
	}
	return sub
}
