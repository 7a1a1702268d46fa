package monitor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Counts is the signal extracted from one page. Either field may be
// nil when no pattern matched; that is not an error.
type Counts struct {
	Online *int
	Member *int
}

// Extractor turns raw page text into Counts. Implementations must be
// pure and total: no I/O, no panics, nils on a miss.
type Extractor interface {
	Extract(body string) Counts
}

// PageExtractor scrapes the online/member numbers out of a subreddit
// listing page. Reddit has shipped several generations of markup, so
// each number is tried against attribute patterns first, then loose
// text patterns, then CSS selectors.
type PageExtractor struct {
	onlineAttr []*regexp.Regexp
	onlineText []*regexp.Regexp
	memberAttr []*regexp.Regexp
	memberText []*regexp.Regexp
	selectors  []string
}

var _ Extractor = (*PageExtractor)(nil)

func NewPageExtractor() *PageExtractor {
	compile := func(pats ...string) []*regexp.Regexp {
		out := make([]*regexp.Regexp, 0, len(pats))
		for _, p := range pats {
			out = append(out, regexp.MustCompile(`(?i)`+p))
		}
		return out
	}
	return &PageExtractor{
		onlineAttr: compile(
			`active="(\d+)"`,
			`activeUsers["']:\s*(\d+)`,
			`activeUserCount["']:\s*(\d+)`,
			`data-active["']="(\d+)"`,
			`data-online["']="(\d+)"`,
		),
		onlineText: compile(
			`(\d{1,3}(?:,\d{3})*)\s+(?:users?\s+)?online`,
			`(\d{1,3}(?:,\d{3})*)\s+(?:members?\s+)?online`,
			`(\d{1,3}(?:,\d{3})*)\s+currently\s+viewing`,
			`(\d{1,3}(?:,\d{3})*)\s+active\s+users?`,
			`(\d{1,3}(?:,\d{3})*)\s+here\s+now`,
			`"activeUserCount"[^:]*:\s*(\d+)`,
			`"activeUsers"[^:]*:\s*(\d+)`,
		),
		memberAttr: compile(
			`subscribers="(\d+)"`,
			`subscriberCount["']:\s*(\d+)`,
			`memberCount["']:\s*(\d+)`,
			`data-subscribers["']="(\d+)"`,
		),
		memberText: compile(
			`(\d{1,3}(?:,\d{3})*(?:\.\d+)?[kKmM]?)\s+(?:members?|subscribers?)`,
			`(\d{1,3}(?:,\d{3})*(?:\.\d+)?[kKmM]?)\s+joined`,
			`"subscriberCount"[^:]*:\s*(\d+)`,
			`"subscribers"[^:]*:\s*(\d+)`,
		),
		selectors: []string{
			`[data-testid="online-count"]`,
			".online-count",
			".active-users",
			".subscribers-online",
		},
	}
}

func (e *PageExtractor) Extract(body string) Counts {
	return Counts{
		Online: e.extractOnline(body),
		Member: e.extractMember(body),
	}
}

func (e *PageExtractor) extractOnline(body string) *int {
	for _, re := range e.onlineAttr {
		if m := re.FindStringSubmatch(body); m != nil {
			if n, ok := parseCount(m[1]); ok {
				return &n
			}
		}
	}
	for _, re := range e.onlineText {
		if m := re.FindStringSubmatch(body); m != nil {
			if n, ok := parseCount(m[1]); ok {
				return &n
			}
		}
	}
	return e.selectorFallback(body)
}

var firstNumber = regexp.MustCompile(`(\d{1,3}(?:,\d{3})*)`)

func (e *PageExtractor) selectorFallback(body string) *int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}
	for _, sel := range e.selectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if m := firstNumber.FindStringSubmatch(node.Text()); m != nil {
			if n, ok := parseCount(m[1]); ok {
				return &n
			}
		}
	}
	return nil
}

func (e *PageExtractor) extractMember(body string) *int {
	for _, re := range e.memberAttr {
		if m := re.FindStringSubmatch(body); m != nil {
			if n, ok := parseCount(m[1]); ok {
				return &n
			}
		}
	}
	for _, re := range e.memberText {
		if m := re.FindStringSubmatch(body); m != nil {
			if n, ok := parseMagnitude(m[1]); ok {
				return &n
			}
		}
	}
	return nil
}

// parseCount handles plain integers with optional thousands separators.
func parseCount(s string) (int, bool) {
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseMagnitude additionally understands "89.5k" / "1.2m" style
// shorthand used for member totals.
func parseMagnitude(s string) (int, bool) {
	s = strings.ReplaceAll(s, ",", "")
	mult := 1.0
	switch {
	case strings.HasSuffix(strings.ToLower(s), "k"):
		mult = 1_000
		s = s[:len(s)-1]
	case strings.HasSuffix(strings.ToLower(s), "m"):
		mult = 1_000_000
		s = s[:len(s)-1]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(f * mult), true
}

var subredditRe = regexp.MustCompile(`/r/([^/]+)`)

// SubredditFromURL pulls the community name out of a listing URL,
// "unknown" when the URL has no /r/ segment.
func SubredditFromURL(url string) string {
	if m := subredditRe.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return "unknown"
}
