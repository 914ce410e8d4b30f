// Package starschema derives the songs, artists, users, time and songplays
// tables from the raw catalog and usage-log datasets.
package starschema

import "datalake/internal/table"

// Output table names, in the order the pipeline writes them.
const (
	Songs     = "songs"
	Artists   = "artists"
	Users     = "users"
	Time      = "time"
	Songplays = "songplays"
)

// Order is the fixed write order.
var Order = []string{Songs, Artists, Users, Time, Songplays}

// CatalogSchema is the raw song catalog record.
var CatalogSchema = table.Schema{
	{Name: "song_id", Type: table.Text},
	{Name: "title", Type: table.Text},
	{Name: "artist_id", Type: table.Text},
	{Name: "artist_name", Type: table.Text},
	{Name: "artist_location", Type: table.Text},
	{Name: "artist_latitude", Type: table.Float},
	{Name: "artist_longitude", Type: table.Float},
	{Name: "year", Type: table.Int},
	{Name: "duration", Type: table.Float},
	{Name: "num_songs", Type: table.Int},
}

// LogSchema is the raw usage-log event. The trailing columns are not used by
// any output table but take part in exact-row deduplication.
var LogSchema = table.Schema{
	{Name: "userId", Type: table.Int},
	{Name: "firstName", Type: table.Text},
	{Name: "lastName", Type: table.Text},
	{Name: "gender", Type: table.Text},
	{Name: "level", Type: table.Text},
	{Name: "page", Type: table.Text},
	{Name: "ts", Type: table.Int},
	{Name: "sessionId", Type: table.Int},
	{Name: "userAgent", Type: table.Text},
	{Name: "artist", Type: table.Text},
	{Name: "song", Type: table.Text},
	{Name: "length", Type: table.Float},
	{Name: "auth", Type: table.Text},
	{Name: "itemInSession", Type: table.Int},
	{Name: "location", Type: table.Text},
	{Name: "method", Type: table.Text},
	{Name: "registration", Type: table.Float},
	{Name: "status", Type: table.Int},
}

// CatalogRequired and LogRequired are the raw columns the derivations read.
var (
	CatalogRequired = []string{"song_id", "title", "artist_id", "artist_name"}
	LogRequired     = []string{"userId", "page", "ts", "artist", "song"}
)

// Output is one derived table plus the columns it is partitioned by.
type Output struct {
	Name        string
	Table       *table.Table
	PartitionBy []string
}
