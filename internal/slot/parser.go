package slot

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Available slots are anchors wired to the site's booking trigger:
//
//	<a href="javascript:;" onclick="get_order('2025-12-30', 2, '09:00', 20, false)">09:00</a>
//
// Reserved slots render as <span class="reserved"> and carry no onclick,
// so they never match. The first quoted token is the date, the second
// quoted token (after the integer column index) is the time.
var orderCallRe = regexp.MustCompile(`get_order\('([^']+)',\s*\d+,\s*'([^']+)'`)

// ParseAvailable extracts available appointment slots from one week of
// schedule markup. Empty or unparseable markup yields nil; anchors whose
// onclick payload does not match the expected shape are skipped.
func ParseAvailable(markup string) []Slot {
	if strings.TrimSpace(markup) == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	var slots []Slot
	doc.Find("div.day-col").Each(func(_ int, col *goquery.Selection) {
		col.Find(`a[href="javascript:;"]`).Each(func(_ int, a *goquery.Selection) {
			onclick, _ := a.Attr("onclick")
			if !strings.Contains(onclick, "get_order") {
				return
			}
			m := orderCallRe.FindStringSubmatch(onclick)
			if m == nil {
				return
			}
			slots = append(slots, Slot{Date: m[1], Time: m[2]})
		})
	})
	return slots
}
