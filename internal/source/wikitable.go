package source

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/adurocher/mandat/internal/model"
)

// ParseTable lifts the index-th wikitable of the HTML document into an
// ordered sequence of raw rows: header text (verbatim, footnote markup
// included) mapped to raw cell text. The header row is the table's
// first row; everything after it is data, including the header-repeat
// and separator artifacts the reshaper excludes positionally.
func ParseTable(html []byte, index int) ([]model.RawRow, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	tables := doc.Find("table.wikitable")
	if index < 0 || index >= tables.Length() {
		return nil, fmt.Errorf("table index %d out of range: document has %d wikitables", index, tables.Length())
	}
	table := tables.Eq(index)

	trs := table.Find("tr")
	if trs.Length() == 0 {
		return nil, fmt.Errorf("wikitable %d has no rows", index)
	}

	var headers []string
	trs.Eq(0).Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		headers = append(headers, cellText(cell))
	})
	if len(headers) == 0 {
		return nil, fmt.Errorf("wikitable %d has no header cells", index)
	}

	var rows []model.RawRow
	trs.Slice(1, trs.Length()).Each(func(i int, tr *goquery.Selection) {
		cells := make(map[string]string, len(headers))
		tr.Find("th, td").Each(func(j int, cell *goquery.Selection) {
			if j < len(headers) {
				cells[headers[j]] = cellText(cell)
			}
		})
		rows = append(rows, model.RawRow{Index: i, Cells: cells})
	})

	return rows, nil
}

// cellText extracts a cell's text the way the rename map expects it:
// newlines collapsed away (wiki headers break lines mid-word with
// <br>), surrounding whitespace trimmed. Footnote markers like [a]
// stay in the text.
func cellText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, node := range sel.Nodes {
		collectText(node, &b)
	}
	return strings.TrimSpace(b.String())
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(strings.ReplaceAll(n.Data, "\n", ""))
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
