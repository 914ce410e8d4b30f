package starschema

import (
	"fmt"

	"datalake/internal/idgen"
	"datalake/internal/table"
)

// SongplaysFrom joins plays (output of Plays) with the deduplicated catalog
// on artist name and song title, exact and case-sensitive, then assigns
// songplay_id in row order. No match yields an empty table.
func SongplaysFrom(plays, catalog *table.Table, ids idgen.Generator) (Output, error) {
	left, err := plays.Select(
		table.Col("start_time"),
		table.Alias("userId", "user_id"),
		table.Col("level"),
		table.Alias("sessionId", "session_id"),
		table.Alias("userAgent", "user_agent"),
		table.Col("artist"),
		table.Col("song"),
		table.Col("year"),
		table.Col("month"),
	)
	if err != nil {
		return Output{}, fmt.Errorf("songplays: %w", err)
	}
	right, err := catalog.Select(
		table.Col("song_id"),
		table.Col("artist_id"),
		table.Col("artist_name"),
		table.Col("title"),
		table.Alias("artist_location", "location"),
	)
	if err != nil {
		return Output{}, fmt.Errorf("songplays: %w", err)
	}

	joined, err := table.InnerJoin(left, right,
		table.JoinKey{Left: "artist", Right: "artist_name"},
		table.JoinKey{Left: "song", Right: "title"},
	)
	if err != nil {
		return Output{}, fmt.Errorf("songplays: %w", err)
	}

	joined, err = joined.WithColumn(table.Column{Name: "songplay_id", Type: ids.Type()}, func(table.Row) (any, error) {
		return ids.Next()
	})
	if err != nil {
		return Output{}, fmt.Errorf("songplays: %w", err)
	}

	out, err := joined.Select(
		table.Col("songplay_id"),
		table.Col("start_time"),
		table.Col("user_id"),
		table.Col("level"),
		table.Col("song_id"),
		table.Col("artist_id"),
		table.Col("session_id"),
		table.Col("location"),
		table.Col("user_agent"),
		table.Col("year"),
		table.Col("month"),
	)
	if err != nil {
		return Output{}, fmt.Errorf("songplays: %w", err)
	}
	return Output{Name: Songplays, Table: out, PartitionBy: []string{"year", "month"}}, nil
}
