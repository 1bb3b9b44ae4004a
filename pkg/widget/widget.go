// Package widget serves the embeddable feedback widget's bootstrap
// script. The script's own client-side behavior is out of scope (spec
// §1's Non-goals exclude UI rendering); only the wire contract it speaks
// against the public feedback API (spec §6.4) is ours to serve.
package widget

import (
	_ "embed"
	"net/http"
)

//go:embed widget.js
var script []byte

// Handler serves GET /widget.js with the caching policy spec §6 requires.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.Write(script)
	}
}
