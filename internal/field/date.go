package field

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar date on the time axis of a field. It is kept separate
// from time.Time because model calendars such as 360_day contain dates
// (e.g. 30 February) that the Gregorian calendar cannot represent.
type Date struct {
	Year  int
	Month int
	Day   int
	// Sec is the time of day in seconds since midnight.
	Sec int
}

// Seasons lists the meteorological seasons in plotting order.
var Seasons = []string{"DJF", "MAM", "JJA", "SON"}

// Annual selects every time step in SelectSeason.
const Annual = "Annual"

var monthSeason = [13]string{"", "DJF", "DJF", "MAM", "MAM", "MAM", "JJA", "JJA", "JJA", "SON", "SON", "SON", "DJF"}

// Season returns the meteorological season the date falls in.
func (d Date) Season() string {
	if d.Month < 1 || d.Month > 12 {
		return ""
	}
	return monthSeason[d.Month]
}

// Before reports whether d is earlier than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	if d.Day != o.Day {
		return d.Day < o.Day
	}
	return d.Sec < o.Sec
}

// DecimalYear returns the date as a fractional year, suitable for a time axis.
func (d Date) DecimalYear() float64 {
	day := float64(d.Day-1) + float64(d.Sec)/86400
	return float64(d.Year) + (float64(d.Month-1)+day/31)/12
}

// Time returns the date as a UTC time. Out-of-range days (30 February in a
// 360-day calendar) are normalised by time.Date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, d.Sec, 0, time.UTC)
}

func (d Date) String() string {
	if d.Sec == 0 {
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	}
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", d.Year, d.Month, d.Day, d.Sec/3600, d.Sec/60%60, d.Sec%60)
}

var (
	days360  = [12]int{30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30}
	days365  = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	days366  = [12]int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	unitSecs = map[string]float64{
		"second": 1, "seconds": 1, "sec": 1, "secs": 1, "s": 1,
		"minute": 60, "minutes": 60, "min": 60, "mins": 60,
		"hour": 3600, "hours": 3600, "hr": 3600, "hrs": 3600, "h": 3600,
		"day": 86400, "days": 86400, "d": 86400,
	}
)

// DecodeTimes converts CF time coordinate values ("<unit> since <date>")
// into calendar dates for the named calendar. The time of day is kept to the
// nearest second.
func DecodeTimes(values []float64, units, calendar string) ([]Date, error) {
	unit, ref, refSecs, err := parseTimeUnits(units)
	if err != nil {
		return nil, err
	}
	cal := strings.ToLower(strings.TrimSpace(calendar))

	var lengths *[12]int
	switch cal {
	case "", "standard", "gregorian", "proleptic_gregorian":
	case "360_day":
		lengths = &days360
	case "noleap", "365_day":
		lengths = &days365
	case "all_leap", "366_day":
		lengths = &days366
	default:
		return nil, fmt.Errorf("unsupported calendar %q", calendar)
	}

	out := make([]Date, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("time value %d is NaN", i)
		}
		if unit == "month" || unit == "months" {
			out[i] = addMonths(ref, int(math.Floor(v)))
			out[i].Sec = int(math.Round(refSecs))
			continue
		}
		secs := math.Round(refSecs + v*unitSecs[unit])
		days := int(math.Floor(secs / 86400))
		sod := int(secs - float64(days)*86400)
		if lengths == nil {
			t := time.Date(ref.Year, time.Month(ref.Month), ref.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
			out[i] = Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day(), Sec: sod}
			continue
		}
		out[i] = fromOrdinal(toOrdinal(ref, lengths)+days, lengths)
		out[i].Sec = sod
	}
	return out, nil
}

func parseTimeUnits(units string) (unit string, ref Date, refSecs float64, err error) {
	parts := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(parts) != 2 {
		return "", Date{}, 0, fmt.Errorf("time units %q: expected \"<unit> since <date>\"", units)
	}
	unit = strings.ToLower(strings.TrimSpace(parts[0]))
	if _, ok := unitSecs[unit]; !ok && unit != "month" && unit != "months" {
		return "", Date{}, 0, fmt.Errorf("time units %q: unknown unit %q", units, unit)
	}

	stamp := strings.TrimSpace(parts[1])
	stamp = strings.TrimSuffix(stamp, "Z")
	stamp = strings.Replace(stamp, "T", " ", 1)
	fields := strings.Fields(stamp)
	if len(fields) == 0 {
		return "", Date{}, 0, fmt.Errorf("time units %q: missing reference date", units)
	}
	ymd := strings.Split(fields[0], "-")
	if len(ymd) != 3 {
		return "", Date{}, 0, fmt.Errorf("time units %q: bad reference date", units)
	}
	n := [3]int{}
	for i, s := range ymd {
		if n[i], err = strconv.Atoi(s); err != nil {
			return "", Date{}, 0, fmt.Errorf("time units %q: %w", units, err)
		}
	}
	ref = Date{Year: n[0], Month: n[1], Day: n[2]}

	if len(fields) > 1 {
		hms := strings.Split(fields[1], ":")
		mult := []float64{3600, 60, 1}
		for i := 0; i < len(hms) && i < 3; i++ {
			x, perr := strconv.ParseFloat(hms[i], 64)
			if perr != nil {
				return "", Date{}, 0, fmt.Errorf("time units %q: %w", units, perr)
			}
			refSecs += x * mult[i]
		}
	}
	return unit, ref, refSecs, nil
}

func addMonths(d Date, n int) Date {
	m := d.Year*12 + (d.Month - 1) + n
	return Date{Year: floorDiv(m, 12), Month: m - floorDiv(m, 12)*12 + 1, Day: d.Day}
}

func yearLen(lengths *[12]int) int {
	n := 0
	for _, l := range lengths {
		n += l
	}
	return n
}

func toOrdinal(d Date, lengths *[12]int) int {
	ord := d.Year * yearLen(lengths)
	for m := 0; m < d.Month-1; m++ {
		ord += lengths[m]
	}
	return ord + d.Day - 1
}

func fromOrdinal(ord int, lengths *[12]int) Date {
	yl := yearLen(lengths)
	y := floorDiv(ord, yl)
	rem := ord - y*yl
	m := 0
	for rem >= lengths[m] {
		rem -= lengths[m]
		m++
	}
	return Date{Year: y, Month: m + 1, Day: rem + 1}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
