package starschema

import (
	"fmt"
	"time"

	"datalake/internal/table"
	"datalake/internal/transformer"
	"datalake/internal/transformer/builtin"
)

// timeColumns are appended to every play event by Plays.
var timeColumns = []table.Column{
	{Name: "start_time", Type: table.Int},
	{Name: "hour", Type: table.Int},
	{Name: "day", Type: table.Int},
	{Name: "week", Type: table.Int},
	{Name: "month", Type: table.Int},
	{Name: "year", Type: table.Int},
	{Name: "weekday", Type: table.Int},
}

// Plays keeps the NextSong events, drops exact duplicates and appends the
// calendar columns derived from ts (milliseconds since the epoch) in loc.
// Events without a ts get null calendar columns.
func Plays(raw *table.Table, loc *time.Location) (*table.Table, error) {
	if loc == nil {
		loc = time.UTC
	}
	chain := transformer.Chain{
		builtin.Equals{Field: "page", Value: "NextSong"},
		builtin.Distinct{},
	}
	out, err := chain.Apply(raw)
	if err != nil {
		return nil, err
	}

	tsIdx := out.Schema.Index("ts")
	if tsIdx < 0 {
		return nil, &table.UnknownColumnError{Name: "ts"}
	}
	for _, c := range timeColumns {
		if out.Schema.Index(c.Name) >= 0 {
			return nil, fmt.Errorf("plays: column %q already exists", c.Name)
		}
	}

	schema := append(append(table.Schema{}, out.Schema...), timeColumns...)
	derived := &table.Table{Schema: schema, Rows: make([]table.Row, len(out.Rows))}
	for i, r := range out.Rows {
		nr := make(table.Row, len(r), len(schema))
		copy(nr, r)
		if ts, ok := r[tsIdx].(int64); ok {
			for _, v := range calendar(ts, loc) {
				nr = append(nr, v)
			}
		} else {
			nr = append(nr, make(table.Row, len(timeColumns))...)
		}
		derived.Rows[i] = nr
	}
	return derived, nil
}

// calendar decomposes ts into the timeColumns values. start_time is the
// floor of ts/1000. week and weekday are ISO 8601 (Monday=1..Sunday=7).
func calendar(ts int64, loc *time.Location) [7]int64 {
	sec := ts / 1000
	if ts%1000 < 0 {
		sec--
	}
	t := time.UnixMilli(ts).In(loc)
	_, week := t.ISOWeek()
	wd := int64(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return [7]int64{sec, int64(t.Hour()), int64(t.Day()), int64(week), int64(t.Month()), int64(t.Year()), wd}
}

// Events derives users and time from the output of Plays.
func Events(plays *table.Table) (users, times Output, err error) {
	uchain := transformer.Chain{
		builtin.Require{Fields: []string{"userId"}},
		builtin.DeDup{Keys: []string{"userId"}, Policy: "keep-last", OrderBy: "ts"},
	}
	ut, err := uchain.Apply(plays)
	if err != nil {
		return Output{}, Output{}, fmt.Errorf("users: %w", err)
	}
	if ut, err = ut.Select(
		table.Col("userId"),
		table.Col("firstName"),
		table.Col("lastName"),
		table.Col("gender"),
		table.Col("level"),
	); err != nil {
		return Output{}, Output{}, fmt.Errorf("users: %w", err)
	}

	tt, err := builtin.Require{Fields: []string{"start_time"}}.Apply(plays)
	if err != nil {
		return Output{}, Output{}, fmt.Errorf("time: %w", err)
	}
	proj := make([]table.Projection, len(timeColumns))
	for i, c := range timeColumns {
		proj[i] = table.Col(c.Name)
	}
	if tt, err = tt.Select(proj...); err != nil {
		return Output{}, Output{}, fmt.Errorf("time: %w", err)
	}

	users = Output{Name: Users, Table: ut}
	times = Output{Name: Time, Table: tt.Distinct(), PartitionBy: []string{"year", "month"}}
	return users, times, nil
}
