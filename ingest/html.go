package ingest

import (
	"bytes"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var htmlPolicy = bluemonday.UGCPolicy()

// extractHTML sanitizes the page and converts it to markdown so the
// structure analyzer can reuse its heading logic. The page <title> is
// read from the unsanitized tree (the policy strips <head>).
func extractHTML(raw []byte) (text, title string, err error) {
	if node, perr := html.Parse(bytes.NewReader(raw)); perr == nil {
		title = findHTMLTitle(node)
	}

	clean := htmlPolicy.SanitizeBytes(raw)
	md, err := htmltomarkdown.ConvertString(string(clean))
	if err != nil {
		return "", "", err
	}
	return normalizeNewlines(md), title, nil
}

func findHTMLTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		if n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findHTMLTitle(c); t != "" {
			return t
		}
	}
	return ""
}
