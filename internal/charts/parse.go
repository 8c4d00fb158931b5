package charts

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/rohmanhakim/chartstats/pkg/urlutil"
)

func parseDocument(htmlByte []byte) (*goquery.Document, error) {
	node, err := html.Parse(bytes.NewReader(htmlByte))
	if err != nil {
		return nil, &ExtractionError{
			Message: err.Error(),
			Cause:   ErrCauseParseFailure,
		}
	}
	return goquery.NewDocumentFromNode(node), nil
}

// ParseChartIndex lists the charts linked from the popular charts panel.
// Links are resolved against baseURL.
func ParseChartIndex(baseURL url.URL, htmlByte []byte) ([]Chart, error) {
	doc, err := parseDocument(htmlByte)
	if err != nil {
		return nil, err
	}

	links := doc.Find(selectorChartPanelLink)
	if links.Length() == 0 {
		return nil, &ExtractionError{
			Message: fmt.Sprintf("no element matches %q", selectorChartPanelLink),
			Cause:   ErrCauseNoChartPanel,
		}
	}

	charts := make([]Chart, 0, links.Length())
	var extractErr error
	links.EachWithBreak(func(i int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		resolved, resolveErr := urlutil.Resolve(baseURL, href)
		if resolveErr != nil {
			extractErr = &ExtractionError{
				Message: resolveErr.Error(),
				Cause:   ErrCauseInvalidChartURL,
				Field:   "href",
			}
			return false
		}

		charts = append(charts, Chart{
			Name: normalizeText(link.Find(selectorChartPanelText).First().Text()),
			URL:  resolved.String(),
		})
		return true
	})
	if extractErr != nil {
		return nil, extractErr
	}
	return charts, nil
}

// ParseRanking returns the first limit rows of a chart page. Only direct
// li children of the ranking list count as rows. A non-positive limit
// returns every row.
func ParseRanking(htmlByte []byte, limit int) ([]Item, error) {
	doc, err := parseDocument(htmlByte)
	if err != nil {
		return nil, err
	}

	list := doc.Find(selectorRankingList).First()
	if list.Length() == 0 {
		return nil, &ExtractionError{
			Message: fmt.Sprintf("no element matches %q", selectorRankingList),
			Cause:   ErrCauseNoRankingList,
		}
	}

	rows := list.ChildrenFiltered("li")
	if limit > 0 && rows.Length() > limit {
		rows = rows.Slice(0, limit)
	}

	items := make([]Item, 0, rows.Length())
	var extractErr error
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		item, rowErr := parseItem(row)
		if rowErr != nil {
			extractErr = rowErr
			return false
		}
		items = append(items, item)
		return true
	})
	if extractErr != nil {
		return nil, extractErr
	}
	return items, nil
}

func parseItem(row *goquery.Selection) (Item, error) {
	rank, err := requiredText(row, selectorRankNumber)
	if err != nil {
		return Item{}, err
	}
	name, err := requiredText(row, selectorSongName)
	if err != nil {
		return Item{}, err
	}
	info, err := requiredText(row, selectorArtistInfo)
	if err != nil {
		return Item{}, err
	}
	return Item{Rank: rank, Name: name, Info: info}, nil
}

func requiredText(row *goquery.Selection, selector string) (string, error) {
	sel := row.Find(selector).First()
	if sel.Length() == 0 {
		return "", &ExtractionError{
			Message: "ranking row lacks element",
			Cause:   ErrCauseMissingField,
			Field:   selector,
		}
	}
	return normalizeText(sel.Text()), nil
}

// normalizeText collapses runs of whitespace and trims the result.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
