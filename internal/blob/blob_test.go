package blob

import "testing"

func TestParseLocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Location
		wantErr bool
	}{
		{in: "s3a://udacity-dend/", want: Location{Scheme: "s3", Bucket: "udacity-dend"}},
		{in: "s3://lake/out/tables", want: Location{Scheme: "s3", Bucket: "lake", Path: "out/tables"}},
		{in: "S3N://b/p/", want: Location{Scheme: "s3", Bucket: "b", Path: "p"}},
		{in: "./data", want: Location{Scheme: "file", Path: "./data"}},
		{in: "file:///var/lake", want: Location{Scheme: "file", Path: "/var/lake"}},
		{in: "", wantErr: true},
		{in: "s3:///nobucket", wantErr: true},
		{in: "gs://bucket/x", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseLocation(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseLocation(%q) error = nil", tt.in)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseLocation(%q) = %+v, %v; want %+v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestMatcher(t *testing.T) {
	t.Parallel()

	m, err := Compile("song_data/*/*/*/*.json")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if m.Prefix() != "song_data/" {
		t.Fatalf("Prefix() = %q", m.Prefix())
	}
	for key, want := range map[string]bool{
		"song_data/A/A/A/TRAAAAW128F429D538.json": true,
		"song_data/A/A/TRAAAAW128F429D538.json":   false,
		"song_data/A/A/A/B/x.json":                false,
		"song_data/A/A/A/notes.txt":               false,
		"log_data/2018/11/2018-11-12-events.json": false,
	} {
		if got := m.Match(key); got != want {
			t.Errorf("Match(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestStaticPrefixAndJoin(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"log_data/*/*/*.json":  "log_data/",
		"log_data/2018/11/*":   "log_data/2018/11/",
		"*.json":               "",
		"exact/file.json":      "exact/",
		"a/b{c,d}/e":           "a/",
	} {
		if got := StaticPrefix(in); got != want {
			t.Errorf("StaticPrefix(%q) = %q, want %q", in, got, want)
		}
	}
	if got := Join("/base/", "", "songs", "year=2018/"); got != "base/songs/year=2018" {
		t.Fatalf("Join() = %q", got)
	}
}
