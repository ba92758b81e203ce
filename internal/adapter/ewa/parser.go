package ewa

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/couchcryptid/well-data-etl/internal/domain"
)

// Operator is one operator entry scraped from a results page.
type Operator struct {
	Number string
	Name   string
}

// PageResult classifies one EWA results page. Exactly one of three shapes:
// Overflow (the query matched more records than the server will enumerate,
// TotalCount carries the reported match count), a non-empty pair list, or
// empty.
type PageResult struct {
	// Pairs are the (API number, operator name) pairs extracted by position
	// index, truncated to the shorter of the two underlying lists.
	Pairs []domain.OperatorPair
	// Operators are the raw operator anchors in document order, including
	// their RRC operator numbers.
	Operators  []Operator
	Overflow   bool
	TotalCount int
}

// Empty reports whether the page carried no matches and no overflow signal.
func (r PageResult) Empty() bool {
	return !r.Overflow && len(r.Operators) == 0
}

var (
	// operatorTitleRe extracts the operator number from an anchor title,
	// e.g. `Operator # 123456`.
	operatorTitleRe = regexp.MustCompile(`^Operator # (\d+)$`)

	// apiNoRe extracts the 8-digit API number from a wellbore detail link,
	// e.g. `wellboreQueryAction.do?...&apiNo=32940123`.
	apiNoRe = regexp.MustCompile(`apiNo=(\d{8})`)

	// recordsFoundRe extracts the total match count from the overflow
	// message, e.g. `Your query returned 30124 records found ...`.
	recordsFoundRe = regexp.MustCompile(`(\d+) records found`)
)

// overflowPhrase is the human-readable marker the server embeds when a query
// matches more records than its internal cap.
const overflowPhrase = "exceeds the maximum"

// ParseResultsPage extracts operator entries and API numbers from a wellbore
// query results page. The two appear as parallel, positionally corresponding
// anchor lists in the results table; pairing never extends past the shorter
// list. The extraction strategy lives behind this one function so it can be
// replaced without touching the resolver.
func ParseResultsPage(body []byte) (PageResult, error) {
	if bytes.Contains(body, []byte(overflowPhrase)) {
		result := PageResult{Overflow: true}
		if m := recordsFoundRe.FindSubmatch(body); m != nil {
			result.TotalCount, _ = strconv.Atoi(string(m[1]))
		}
		return result, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return PageResult{}, fmt.Errorf("parse results page: %w", err)
	}

	var result PageResult
	doc.Find("a[title]").Each(func(_ int, sel *goquery.Selection) {
		m := operatorTitleRe.FindStringSubmatch(sel.AttrOr("title", ""))
		if m == nil {
			return
		}
		result.Operators = append(result.Operators, Operator{
			Number: m[1],
			Name:   strings.TrimSpace(sel.Text()),
		})
	})

	var apis []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		m := apiNoRe.FindStringSubmatch(sel.AttrOr("href", ""))
		if m == nil {
			return
		}
		apis = append(apis, m[1])
	})

	for i, op := range result.Operators {
		if i >= len(apis) {
			break
		}
		result.Pairs = append(result.Pairs, domain.OperatorPair{API: apis[i], Name: op.Name})
	}
	return result, nil
}
