// Package web embeds the page templates and static assets served by the
// presentation layer.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static templates
var content embed.FS

// Static holds stylesheets and other files served under /static/.
var Static = mustSub("static")

// Templates holds the html/template page sources.
var Templates = mustSub("templates")

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(content, dir)
	if err != nil {
		panic("web: embedded directory " + dir + ": " + err.Error())
	}
	return sub
}
