package trellis

// Calendar column names added by DeriveCalendar.
const (
	ColYear  = "Year"
	ColMonth = "Month"
	ColDay   = "Day"
	ColWeek  = "Week"
)

// DeriveCalendar returns a new table with Year, Month, Day and Week columns
// expanded from the named date column. It is a pure per-row function with no
// group or order dependency.
//
// Week is the 1-indexed week of year from the calendar-day offset since
// Jan 1, integer-divided by 7 plus one; week 53 is clamped to 52 so every
// year has a fixed 52-week span.
func DeriveCalendar(t *Table, dateColumn string) (*Table, error) {
	dates, err := t.Column(dateColumn)
	if err != nil {
		return nil, err
	}

	n := t.NumRows()
	years := make([]Value, n)
	months := make([]Value, n)
	days := make([]Value, n)
	weeks := make([]Value, n)
	for i, d := range dates {
		if d.IsNull() {
			years[i], months[i], days[i], weeks[i] = Null(), Null(), Null(), Null()
			continue
		}
		dt := d.Time()
		years[i] = Int(int64(dt.Year()))
		months[i] = Int(int64(dt.Month()))
		days[i] = Int(int64(dt.Day()))
		week := (dt.YearDay()-1)/7 + 1
		if week == 53 {
			week = 52
		}
		weeks[i] = Int(int64(week))
	}

	out := t
	for _, col := range []struct {
		name   string
		values []Value
	}{
		{ColYear, years},
		{ColMonth, months},
		{ColDay, days},
		{ColWeek, weeks},
	} {
		out, err = out.WithColumn(col.name, col.values)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
