package regions

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/wetwoodland/webmap/internal/units"
)

// Properties set from the regional summary report.
const (
	PropTotalArea  = "total_area_ha"
	PropRegionArea = "region_area_ha"
	IDProperty     = "LNRS_ID"
)

var reportRow = regexp.MustCompile(`^LNRS\s+(\d+)\s+([\d,]+\.?\d*)\s+([\d,]+\.?\d*)\s+([\d.]+)`)

// ReportRow is one line of the LNRS regional summary table.
type ReportRow struct {
	LNRS       int
	WetHa      float64
	RegionHa   float64
	Proportion float64
}

// ParseReport extracts the LNRS regional summary rows keyed by LNRS number.
// Lines that do not look like table rows are ignored.
func ParseReport(r io.Reader) (map[int]ReportRow, error) {
	out := make(map[int]ReportRow)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		m := reportRow.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("lnrs number %q: %w", m[1], err)
		}
		row := ReportRow{LNRS: n}
		for dst, raw := range map[*float64]string{&row.WetHa: m[2], &row.RegionHa: m[3], &row.Proportion: m[4]} {
			v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
			if err != nil {
				return nil, fmt.Errorf("lnrs %d: parse %q: %w", n, raw, err)
			}
			*dst = v
		}
		out[n] = row
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	return out, nil
}

// LNRSNumber interprets an LNRS_ID property, which may be a zero-padded
// string such as "05" or a number.
func LNRSNumber(v interface{}) (int, bool) {
	switch id := v.(type) {
	case string:
		s := strings.TrimSpace(id)
		if s == "" {
			return 0, false
		}
		for _, r := range s {
			if r < '0' || r > '9' {
				return 0, false
			}
		}
		s = strings.TrimLeft(s, "0")
		if s == "" {
			return 0, true
		}
		n, err := strconv.Atoi(s)
		return n, err == nil
	case float64:
		if id < 0 || id != math.Trunc(id) {
			return 0, false
		}
		return int(id), true
	case int:
		return id, id >= 0
	}
	return 0, false
}

// ApplyReport sets total_area_ha and region_area_ha on every feature whose
// LNRS_ID matches a report row. It returns the number of features updated.
func ApplyReport(fc *geojson.FeatureCollection, rows map[int]ReportRow) int {
	updated := 0
	for _, f := range fc.Features {
		if f.Properties == nil {
			continue
		}
		n, ok := LNRSNumber(f.Properties[IDProperty])
		if !ok {
			continue
		}
		row, ok := rows[n]
		if !ok {
			continue
		}
		f.Properties[PropTotalArea] = units.Round(row.WetHa, 2)
		f.Properties[PropRegionArea] = units.Round(row.RegionHa, 2)
		updated++
	}
	return updated
}
