// Package snapshot renders a live tree to HTML and persists the result.
//
// Snapshots let a headless render target show what a browser holding the
// same transactions would display:
//
//	body, err := snapshot.Render(doc, doc.Root(), true)
//	loc, err := store.Put(ctx, snapshot.Name(time.Now()), body)
package snapshot

import (
	"strings"
	"sync"
	"time"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"

	"github.com/vango-dev/domsync/internal/errors"
	"github.com/vango-dev/domsync/pkg/dom"
)

// Renderer serializes the children of a node.
type Renderer interface {
	InnerHTML(n dom.Node) string
}

var (
	minifier *minify.M
	once     sync.Once
)

func getMinifier() *minify.M {
	once.Do(func() {
		minifier = minify.New()
		minifier.Add("text/html", &html.Minifier{
			KeepDocumentTags: true,
			KeepEndTags:      true,
			KeepQuotes:       true,
		})
	})
	return minifier
}

// Render returns the markup under root, minified when requested.
func Render(r Renderer, root dom.Node, minified bool) ([]byte, error) {
	markup := r.InnerHTML(root)
	if !minified {
		return []byte(markup), nil
	}
	out, err := Minify(markup)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// Minify minifies an HTML fragment.
func Minify(markup string) (string, error) {
	if !strings.Contains(markup, "<") {
		return strings.Join(strings.Fields(markup), " "), nil
	}
	out, err := getMinifier().String("text/html", markup)
	if err != nil {
		return "", errors.Newf(errors.CategoryNative, "minify snapshot").Wrap(err)
	}
	return out, nil
}

// Name returns a sortable snapshot file name for t.
func Name(t time.Time) string {
	return "snapshot-" + t.UTC().Format("20060102T150405.000000000Z") + ".html"
}
