package providery

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sawpanic/keirin-ingest/internal/model"
)

// ticketTypeLabels maps the Japanese payout-table headers to the keirin bet
// kinds of spec.md §3. Grounded on original_source/scripts/yenjoy_api.py's
// payout-row handling, which keys off these same labels.
var ticketTypeLabels = map[string]model.OddsKind{
	"3連単": model.OddsTrifecta,
	"3連複": model.OddsTrio,
	"2車単": model.OddsExacta,
	"2車複": model.OddsQuinella,
	"拡連複": model.OddsQuinellaPlace,
	"枠連":  model.OddsBracketQuinella,
	"枠単":  model.OddsBracketExacta,
	"単勝":  model.OddsWin,
}

var amountDigits = regexp.MustCompile(`[\d,]+`)

// imgTagPattern matches an <img> tag, open or self-closing, case-insensitive.
var imgTagPattern = regexp.MustCompile(`(?is)<img\b[^>]*>`)

// stripImgTags removes <img> tags before the DOM is built. Result pages
// embed dozens of bike/helmet icon images that parsing never inspects;
// dropping them pre-parse keeps the built DOM smaller (spec.md §6).
func stripImgTags(html []byte) []byte {
	return imgTagPattern.ReplaceAll(html, nil)
}

// Parse extracts a ResultDetail from one Provider-Y result page. It never
// returns an error for partial or reordered markup; missing sections are
// reported via Issues and the rest of the page is still parsed, per the
// parser tolerance guarantee (spec.md §4.C).
func Parse(raceID int64, html []byte) ResultDetail {
	var out ResultDetail

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(stripImgTags(html)))
	if err != nil {
		out.Issues = append(out.Issues, fmt.Sprintf("document: %v", err))
		return out
	}

	var issues []string
	out.Results, issues = parseResults(doc, raceID)
	out.Issues = append(out.Issues, issues...)
	out.Payouts, issues = parsePayouts(doc, raceID)
	out.Issues = append(out.Issues, issues...)
	out.LapPositions, issues = parseLapPositions(doc, raceID)
	out.Issues = append(out.Issues, issues...)
	return out
}

// headerIndex returns the column index of the first header cell whose text
// contains one of candidates, tolerating column reordering (spec.md §4.C).
func headerIndex(headers []string, candidates ...string) (int, bool) {
	for i, h := range headers {
		h = strings.TrimSpace(h)
		for _, c := range candidates {
			if strings.Contains(h, c) {
				return i, true
			}
		}
	}
	return 0, false
}

func cellText(cells *goquery.Selection, idx int) (string, bool) {
	if idx < 0 || idx >= cells.Length() {
		return "", false
	}
	return strings.TrimSpace(cells.Eq(idx).Text()), true
}

func parseResults(doc *goquery.Document, raceID int64) ([]model.Result, []string) {
	var results []model.Result
	var issues []string

	table := doc.Find("table.result-table-detail").First()
	if table.Length() == 0 {
		return nil, []string{"result table not found"}
	}

	var headers []string
	table.Find("thead th").Each(func(_ int, s *goquery.Selection) {
		headers = append(headers, s.Text())
	})
	rankIdx, rankOK := headerIndex(headers, "着", "順位", "rank")
	frameIdx, frameOK := headerIndex(headers, "車番", "枠番", "frame")
	playerIdx, playerOK := headerIndex(headers, "選手", "player")

	table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		entry := model.Result{RaceID: raceID}

		if rankOK {
			if txt, ok := cellText(cells, rankIdx); ok {
				rank, err := strconv.Atoi(onlyDigits(txt))
				if err != nil {
					issues = append(issues, fmt.Sprintf("result row %d: unparseable rank %q", i, txt))
					return
				}
				entry.Rank = rank
			}
		}
		if frameOK {
			if txt, ok := cellText(cells, frameIdx); ok {
				if frame, err := strconv.Atoi(onlyDigits(txt)); err == nil {
					entry.Frame = frame
				}
			}
		}
		if playerOK {
			if txt, ok := cellText(cells, playerIdx); ok {
				entry.PlayerID = txt
			}
		}
		results = append(results, entry)
	})

	if !rankOK || !playerOK {
		issues = append(issues, "result table missing rank or player column")
	}
	return results, issues
}

func parsePayouts(doc *goquery.Document, raceID int64) ([]model.Payout, []string) {
	var payouts []model.Payout
	var issues []string

	table := doc.Find("table.result-pay").First()
	if table.Length() == 0 {
		issues = append(issues, "payout table not found, marking all bet kinds absent")
		for _, kind := range ticketTypeLabels {
			payouts = append(payouts, model.Payout{RaceID: raceID, TicketType: kind})
		}
		return payouts, issues
	}

	table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		label := strings.TrimSpace(row.Find("th").First().Text())
		kind, ok := ticketTypeLabels[label]
		if !ok {
			issues = append(issues, fmt.Sprintf("payout row %d: unrecognized ticket type %q", i, label))
			return
		}

		combo, _ := cellText(cells, 0)
		amountTxt, _ := cellText(cells, 1)
		popTxt, _ := cellText(cells, 2)

		if combo == "" || amountTxt == "" {
			payouts = append(payouts, model.Payout{RaceID: raceID, TicketType: kind})
			issues = append(issues, fmt.Sprintf("payout row for %q absent, recorded with zero amount", label))
			return
		}

		amount, err := strconv.ParseInt(strings.ReplaceAll(amountDigits.FindString(amountTxt), ",", ""), 10, 64)
		if err != nil {
			issues = append(issues, fmt.Sprintf("payout row for %q: unparseable amount %q", label, amountTxt))
		}
		popularity, _ := strconv.Atoi(onlyDigits(popTxt))

		payouts = append(payouts, model.Payout{
			RaceID:      raceID,
			TicketType:  kind,
			Combination: combo,
			AmountYen:   amount,
			Popularity:  popularity,
		})
	})

	return payouts, issues
}

var bikeClassPattern = regexp.MustCompile(`(?:bikeno|x|y)-(\d+)`)

func parseLapPositions(doc *goquery.Document, raceID int64) ([]model.LapPosition, []string) {
	var positions []model.LapPosition
	var issues []string

	doc.Find("div.result-b-hyo-lap-wrapper div.b-hyo").Each(func(_ int, section *goquery.Selection) {
		sectionName := strings.TrimSpace(section.Find("th.bg-base-color").First().Text())
		if sectionName == "" {
			issues = append(issues, "lap section with no name, skipping")
			return
		}

		section.Find("span.bike-icon-wrapper").Each(func(_ int, icon *goquery.Selection) {
			classAttr, _ := icon.Attr("class")
			values := extractClassValues(classAttr)

			frame, hasFrame := values["bikeno"]
			x, hasX := values["x"]
			y, hasY := values["y"]
			if !hasFrame || !hasX || !hasY {
				issues = append(issues, fmt.Sprintf("lap section %q: bike icon missing position classes %q", sectionName, classAttr))
				return
			}

			positions = append(positions, model.LapPosition{
				RaceID:     raceID,
				Section:    sectionName,
				Frame:      frame,
				PlayerName: strings.TrimSpace(icon.Find("span.racer-nm").First().Text()),
				X:          x,
				Y:          y,
			})
		})
	})

	return positions, issues
}

// extractClassValues pulls the numeric suffixes off "bikeno-N", "x-N" and
// "y-N" CSS classes, the encoding Provider-Y uses to place each rider icon
// on the lap diagram.
func extractClassValues(classAttr string) map[string]int {
	out := make(map[string]int, 3)
	for _, class := range strings.Fields(classAttr) {
		m := bikeClassPattern.FindStringSubmatch(class)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		switch {
		case strings.HasPrefix(class, "bikeno-"):
			out["bikeno"] = n
		case strings.HasPrefix(class, "x-"):
			out["x"] = n
		case strings.HasPrefix(class, "y-"):
			out["y"] = n
		}
	}
	return out
}

func onlyDigits(s string) string {
	return amountDigits.FindString(s)
}
