// Package datagen writes a synthetic song catalog and usage log in the raw
// layout the job reads: one JSON object per track under
// song_data/<A>/<B>/<C>/TR*.json and one newline-delimited file of events per
// day under log_data/<yyyy>/<mm>/<yyyy-mm-dd>-events.json.
package datagen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"datalake/internal/blob"
)

// Config sizes the generated datasets.
type Config struct {
	Songs   int
	Artists int
	Users   int
	// EventsPerDay is the number of log events written per day file.
	EventsPerDay int
	Start        time.Time
	Days         int
	// PlayRatio is the fraction of events that are NextSong plays.
	PlayRatio float64
	// MissRatio is the fraction of plays naming a track absent from the catalog.
	MissRatio float64
	// Seed makes output reproducible. Zero picks a random seed.
	Seed uint64
}

// DefaultConfig is a small dataset spanning the first week of November 2018.
func DefaultConfig() Config {
	return Config{
		Songs:        200,
		Artists:      60,
		Users:        25,
		EventsPerDay: 150,
		Start:        time.Date(2018, time.November, 1, 0, 0, 0, 0, time.UTC),
		Days:         7,
		PlayRatio:    0.8,
		MissRatio:    0.3,
		Seed:         42,
	}
}

// Summary counts what Generate wrote.
type Summary struct {
	SongFiles int
	LogFiles  int
	Events    int
	// Plays counts NextSong events by a known user.
	Plays int
	// MatchedPlays counts plays whose artist and title exist in the catalog.
	MatchedPlays int
}

type song struct {
	ID         string
	Title      string
	ArtistID   string
	ArtistName string
	Location   string
	Latitude   *float64
	Longitude  *float64
	Year       int
	Duration   float64
}

type user struct {
	ID           int
	First        string
	Last         string
	Gender       string
	Location     string
	Agent        string
	Registration float64
	Level        string
}

// Generator produces one dataset.
type Generator struct {
	cfg   Config
	f     *gofakeit.Faker
	songs []song
	users []user
}

// New validates cfg and seeds the faker.
func New(cfg Config) (*Generator, error) {
	switch {
	case cfg.Songs < 1 || cfg.Artists < 1 || cfg.Users < 1:
		return nil, fmt.Errorf("datagen: songs, artists and users must be positive")
	case cfg.Days < 1 || cfg.EventsPerDay < 0:
		return nil, fmt.Errorf("datagen: days must be positive and events per day non-negative")
	case cfg.PlayRatio < 0 || cfg.PlayRatio > 1 || cfg.MissRatio < 0 || cfg.MissRatio > 1:
		return nil, fmt.Errorf("datagen: ratios must be within [0, 1]")
	}
	if cfg.Start.IsZero() {
		cfg.Start = DefaultConfig().Start
	}
	return &Generator{cfg: cfg, f: gofakeit.New(cfg.Seed)}, nil
}

// Generate writes both datasets into b.
func (g *Generator) Generate(ctx context.Context, b blob.Bucket) (Summary, error) {
	var sum Summary
	g.buildCatalog()
	g.buildUsers()

	for _, s := range g.songs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		body, err := json.Marshal(songRecord(s))
		if err != nil {
			return sum, err
		}
		if err := b.Put(ctx, songKey(s.ID), body); err != nil {
			return sum, fmt.Errorf("datagen: put song %s: %w", s.ID, err)
		}
		sum.SongFiles++
	}

	for d := 0; d < g.cfg.Days; d++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		day := g.cfg.Start.AddDate(0, 0, d)
		body, st := g.dayEvents(day)
		if err := b.Put(ctx, logKey(day), body); err != nil {
			return sum, fmt.Errorf("datagen: put log %s: %w", logKey(day), err)
		}
		sum.LogFiles++
		sum.Events += st.Events
		sum.Plays += st.Plays
		sum.MatchedPlays += st.MatchedPlays
	}
	return sum, nil
}

// Generate is a convenience for New(cfg) followed by Generate.
func Generate(ctx context.Context, b blob.Bucket, cfg Config) (Summary, error) {
	g, err := New(cfg)
	if err != nil {
		return Summary{}, err
	}
	return g.Generate(ctx, b)
}

func (g *Generator) id(prefix string) string {
	return prefix + strings.ToUpper(g.f.LetterN(16))
}

func (g *Generator) buildCatalog() {
	type artist struct {
		id, name, location string
		lat, lon           *float64
	}
	artists := make([]artist, g.cfg.Artists)
	for i := range artists {
		a := artist{id: g.id("AR"), name: g.f.FirstName() + " " + g.f.LastName()}
		if g.f.Bool() {
			a.location = g.f.City() + ", " + g.f.StateAbr()
			lat, lon := g.f.Latitude(), g.f.Longitude()
			a.lat, a.lon = &lat, &lon
		}
		artists[i] = a
	}

	seen := make(map[[2]string]bool, g.cfg.Songs)
	g.songs = make([]song, g.cfg.Songs)
	for i := range g.songs {
		a := artists[g.f.IntN(len(artists))]
		t := title(g.f.Adjective() + " " + g.f.Noun())
		for seen[[2]string{a.name, t}] {
			t = title(g.f.Adjective() + " " + g.f.Noun())
		}
		seen[[2]string{a.name, t}] = true
		year := 0
		if g.f.Float64() < 0.6 {
			year = g.f.IntRange(1960, 2018)
		}
		g.songs[i] = song{
			ID:         g.id("SO"),
			Title:      t,
			ArtistID:   a.id,
			ArtistName: a.name,
			Location:   a.location,
			Latitude:   a.lat,
			Longitude:  a.lon,
			Year:       year,
			Duration:   g.f.Float64Range(60, 600),
		}
	}
}

func (g *Generator) buildUsers() {
	g.users = make([]user, g.cfg.Users)
	for i := range g.users {
		gender := "F"
		if g.f.Gender() == "male" {
			gender = "M"
		}
		level := "free"
		if g.f.Bool() {
			level = "paid"
		}
		g.users[i] = user{
			ID:           i + 1,
			First:        g.f.FirstName(),
			Last:         g.f.LastName(),
			Gender:       gender,
			Location:     g.f.City() + ", " + g.f.StateAbr(),
			Agent:        g.f.UserAgent(),
			Registration: float64(g.cfg.Start.AddDate(0, -g.f.IntRange(1, 24), 0).UnixMilli()),
			Level:        level,
		}
	}
}

type dayStats struct {
	Events, Plays, MatchedPlays int
}

var otherPages = []string{"Home", "Logout", "Settings", "About", "Help", "Upgrade"}

func (g *Generator) dayEvents(day time.Time) ([]byte, dayStats) {
	var st dayStats
	ms := day.UnixMilli()
	stamps := make([]int64, g.cfg.EventsPerDay)
	for i := range stamps {
		stamps[i] = ms + int64(g.f.IntN(24*60*60*1000))
	}
	sort.Slice(stamps, func(a, b int) bool { return stamps[a] < stamps[b] })

	var buf bytes.Buffer
	for i, ts := range stamps {
		ev := map[string]any{
			"ts":            ts,
			"sessionId":     g.f.IntRange(1, 1200),
			"itemInSession": i % 40,
			"method":        "GET",
			"status":        200,
			"artist":        nil,
			"song":          nil,
			"length":        nil,
		}

		if g.f.Float64() < 0.05 {
			// Anonymous visitors carry an empty userId.
			ev["auth"] = "Logged Out"
			ev["page"] = "Home"
			ev["userId"] = ""
			ev["level"] = "free"
			ev["firstName"], ev["lastName"], ev["gender"] = nil, nil, nil
			ev["location"], ev["userAgent"], ev["registration"] = nil, nil, nil
			st.Events++
			writeLine(&buf, ev)
			continue
		}

		u := &g.users[g.f.IntN(len(g.users))]
		if g.f.Float64() < 0.02 {
			u.Level = map[string]string{"free": "paid", "paid": "free"}[u.Level]
		}
		ev["auth"] = "Logged In"
		ev["userId"] = strconv.Itoa(u.ID)
		ev["firstName"], ev["lastName"], ev["gender"] = u.First, u.Last, u.Gender
		ev["level"], ev["location"], ev["userAgent"] = u.Level, u.Location, u.Agent
		ev["registration"] = u.Registration

		if g.f.Float64() < g.cfg.PlayRatio {
			ev["page"] = "NextSong"
			ev["method"] = "PUT"
			st.Plays++
			if g.f.Float64() >= g.cfg.MissRatio {
				s := g.songs[g.f.IntN(len(g.songs))]
				ev["artist"], ev["song"], ev["length"] = s.ArtistName, s.Title, s.Duration
				st.MatchedPlays++
			} else {
				// Three-word titles never collide with the two-word catalog.
				ev["artist"] = g.f.Company()
				ev["song"] = title(g.f.Verb() + " " + g.f.Noun() + " " + g.f.Noun())
				ev["length"] = g.f.Float64Range(60, 600)
			}
		} else {
			ev["page"] = otherPages[g.f.IntN(len(otherPages))]
		}
		st.Events++
		writeLine(&buf, ev)
	}
	return buf.Bytes(), st
}

func writeLine(buf *bytes.Buffer, v any) {
	b, _ := json.Marshal(v)
	buf.Write(b)
	buf.WriteByte('\n')
}

func songRecord(s song) map[string]any {
	rec := map[string]any{
		"num_songs":        1,
		"song_id":          s.ID,
		"title":            s.Title,
		"artist_id":        s.ArtistID,
		"artist_name":      s.ArtistName,
		"artist_location":  s.Location,
		"artist_latitude":  nil,
		"artist_longitude": nil,
		"year":             s.Year,
		"duration":         s.Duration,
	}
	if s.Latitude != nil {
		rec["artist_latitude"], rec["artist_longitude"] = *s.Latitude, *s.Longitude
	}
	return rec
}

// songKey nests a track under three levels taken from its id, e.g.
// song_data/A/B/C/TRABCXXXXXXXXXXXX.json.
func songKey(songID string) string {
	tr := "TR" + songID[2:]
	return fmt.Sprintf("song_data/%c/%c/%c/%s.json", tr[2], tr[3], tr[4], tr)
}

func logKey(day time.Time) string {
	return fmt.Sprintf("log_data/%04d/%02d/%s-events.json", day.Year(), int(day.Month()), day.Format("2006-01-02"))
}

func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
