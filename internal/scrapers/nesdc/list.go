package nesdc

import (
	"nesdc-backend/lib/htmlutil"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

const minListColumns = 7

// listShape is one markup layout a listing page may use.
type listShape struct {
	// rows selects one element per entry.
	rows cascadia.Selector
	// columns selects the cells of a row.
	columns cascadia.Selector
	// link returns the href of the row's detail link.
	link func(row *goquery.Selection) string
}

var anchorSelector = cascadia.MustCompile("a")

// listShapes are tried in order, the first shape that yields entries wins.
var listShapes = []listShape{
	{
		rows:    cascadia.MustCompile("div.board a"),
		columns: cascadia.MustCompile("span.col"),
		link: func(row *goquery.Selection) string {
			return row.AttrOr("href", "")
		},
	},
	{
		rows:    cascadia.MustCompile("table tbody tr"),
		columns: cascadia.MustCompile("td"),
		link: func(row *goquery.Selection) string {
			return row.FindMatcher(anchorSelector).First().AttrOr("href", "")
		},
	},
}

// ParseList returns the entries on a listing page, an empty result means the
// page has no entries in any known layout.
func ParseList(doc *goquery.Document, base *url.URL) []ListEntry {
	for _, shape := range listShapes {
		var entries []ListEntry
		doc.FindMatcher(shape.rows).Each(func(_ int, row *goquery.Selection) {
			cols := htmlutil.Texts(row.FindMatcher(shape.columns))
			entry, ok := BuildEntry(cols, shape.link(row), base)
			if ok {
				entries = append(entries, entry)
			}
		})
		if len(entries) > 0 {
			return entries
		}
	}
	return nil
}

// BuildEntry maps non-empty column texts onto a ListEntry, the column order is
// registration no, agency, client, method, sample frame, poll name,
// registered date, then the optional region and status.
func BuildEntry(cols []string, href string, base *url.URL) (ListEntry, bool) {
	if len(cols) < minListColumns {
		return ListEntry{}, false
	}

	entry := ListEntry{
		RegistrationNo: cols[0],
		Agency:         cols[1],
		Client:         cols[2],
		Method:         cols[3],
		SampleFrame:    cols[4],
		PollName:       cols[5],
		RegisteredDate: cols[6],
		SourceUrl:      base.String(),
	}
	if len(cols) >= 8 {
		entry.Region = cols[7]
	}
	if len(cols) >= 9 {
		status := cols[8]
		entry.Status = &status
	}
	if href != "" {
		if resolved, ok := htmlutil.Resolve(base, href); ok {
			entry.SourceUrl = resolved
		}
	}
	return entry, true
}
