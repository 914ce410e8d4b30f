package starschema

import (
	"fmt"

	"datalake/internal/table"
)

// Catalog derives songs and artists from raw catalog rows. It also returns
// the deduplicated catalog, which is the right side of the songplays join.
func Catalog(raw *table.Table) (songs, artists Output, deduped *table.Table, err error) {
	deduped = raw.Distinct()

	st, err := deduped.Select(
		table.Col("song_id"),
		table.Col("title"),
		table.Col("artist_id"),
		table.Col("year"),
		table.Col("duration"),
	)
	if err != nil {
		return Output{}, Output{}, nil, fmt.Errorf("songs: %w", err)
	}

	at, err := deduped.Select(
		table.Col("artist_id"),
		table.Alias("artist_name", "name"),
		table.Alias("artist_location", "location"),
		table.Alias("artist_latitude", "latitude"),
		table.Alias("artist_longitude", "longitude"),
	)
	if err != nil {
		return Output{}, Output{}, nil, fmt.Errorf("artists: %w", err)
	}

	songs = Output{Name: Songs, Table: st, PartitionBy: []string{"year", "artist_id"}}
	artists = Output{Name: Artists, Table: at.Distinct()}
	return songs, artists, deduped, nil
}
