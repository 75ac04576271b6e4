// Package render turns a journey into a standalone HTML page
package render

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pbaille/wanderword/internal/domain"
	"github.com/pbaille/wanderword/internal/stats"
)

const pageStyle = `body{font-family:Georgia,serif;max-width:46rem;margin:2rem auto;padding:0 1rem;color:#2b2118;background:#f7f1e3}
h1{font-size:2.6rem;margin-bottom:0}
.meaning{font-style:italic;color:#6b5a45}
.stats{display:flex;gap:2rem;padding:0;list-style:none}
.stats li span{display:block;font-size:.75rem;text-transform:uppercase;color:#8a7760}
ol.journey li{margin:1rem 0}
.sea{border-left:3px solid #2f6f8f;padding-left:.6rem}
.land{border-left:3px solid #8f6a2f;padding-left:.6rem}
.funfact{background:#efe4cc;padding:.8rem;border-radius:.4rem}`

// Options tunes the rendered page
type Options struct {
	// ShareURL, when set, is linked in the footer
	ShareURL string
}

// ShareURL is the public link for word under base, or "" without a base
func ShareURL(base, word string) string {
	base = strings.TrimSuffix(base, "/")
	if base == "" {
		return ""
	}
	return base + "?word=" + url.QueryEscape(word)
}

// Page writes the HTML document for j
func Page(w io.Writer, j domain.Journey, opts Options) error {
	doc := Document(j, opts)
	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// PageBytes is Page into a buffer
func PageBytes(j domain.Journey, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Page(&buf, j, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Document builds the node tree for j
func Document(j domain.Journey, opts Options) *html.Node {
	sum := stats.Summarize(j)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := elem(atom.Html, attr("lang", "en"))
	doc.AppendChild(root)

	head := elem(atom.Head)
	head.AppendChild(elem(atom.Meta, attr("charset", "utf-8")))
	head.AppendChild(textElem(atom.Title, fmt.Sprintf("%s · WanderWord", j.Word)))
	head.AppendChild(textElem(atom.Style, pageStyle))
	root.AppendChild(head)

	body := elem(atom.Body)
	root.AppendChild(body)

	body.AppendChild(textElem(atom.H1, j.Word))
	body.AppendChild(textElem(atom.P, j.CurrentMeaning, attr("class", "meaning")))
	body.AppendChild(statsList(sum))

	origin := elem(atom.Section, attr("class", "origin"))
	origin.AppendChild(textElem(atom.H2, "Origin"))
	origin.AppendChild(textElem(atom.P, fmt.Sprintf("%s (%s), “%s”", j.Origin.Word, j.Origin.Language, j.Origin.Meaning)))
	origin.AppendChild(textElem(atom.P, fmt.Sprintf("%s, %s", j.Origin.Location.Name, j.Origin.Century)))
	body.AppendChild(origin)

	list := elem(atom.Ol, attr("class", "journey"))
	for _, wp := range j.Waypoints {
		list.AppendChild(waypointItem(wp))
	}
	body.AppendChild(textElem(atom.H2, "Journey"))
	body.AppendChild(list)

	if j.Narrative != "" {
		body.AppendChild(textElem(atom.P, j.Narrative, attr("class", "narrative")))
	}
	if j.FunFact != "" {
		body.AppendChild(textElem(atom.P, j.FunFact, attr("class", "funfact")))
	}

	footer := elem(atom.Footer)
	if opts.ShareURL != "" {
		link := textElem(atom.A, opts.ShareURL, attr("href", opts.ShareURL))
		footer.AppendChild(link)
	}
	body.AppendChild(footer)

	return doc
}

func statsList(s stats.Summary) *html.Node {
	ul := elem(atom.Ul, attr("class", "stats"))
	items := []struct{ label, value string }{
		{"Languages", fmt.Sprint(s.Languages)},
		{"Centuries", s.CenturySpan},
		{"Route", routeLabel(s.Route)},
		{"Distance", fmt.Sprintf("%.0f km", s.DistanceKm)},
	}
	for _, it := range items {
		li := elem(atom.Li)
		li.AppendChild(textElem(atom.Span, it.label))
		li.AppendChild(text(it.value))
		ul.AppendChild(li)
	}
	return ul
}

func waypointItem(wp domain.Waypoint) *html.Node {
	li := elem(atom.Li, attr("class", string(wp.RouteType)))
	head := elem(atom.Strong)
	head.AppendChild(text(wp.Word))
	li.AppendChild(head)
	li.AppendChild(text(fmt.Sprintf(" %s, %s, %s", wp.Language, wp.Century, wp.Location.Name)))
	if wp.Notes != "" {
		li.AppendChild(textElem(atom.Em, " "+wp.Notes))
	}
	if wp.Narrative != "" {
		li.AppendChild(textElem(atom.P, wp.Narrative))
	}
	return li
}

func routeLabel(r domain.RouteSummary) string {
	words := strings.Split(string(r), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Text extracts the readable text of an HTML document, skipping
// script and style content. Whitespace is collapsed.
func Text(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Head:
				return
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(strings.Fields(sb.String()), " "), nil
}

func elem(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func textElem(a atom.Atom, s string, attrs ...html.Attribute) *html.Node {
	n := elem(a, attrs...)
	n.AppendChild(text(s))
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}
