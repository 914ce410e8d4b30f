package config

import "testing"

func validConfig() *Config {
	c := DefaultConfig()
	c.Input.Base = "testdata/input"
	c.Output.Base = "/tmp/lake"
	return c
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantPath  string
		wantSev   IssueSeverity
		wantClean bool
	}{
		{name: "valid lake config", mutate: func(*Config) {}, wantClean: true},
		{name: "empty job", mutate: func(c *Config) { c.Job = " " }, wantPath: "job", wantSev: SeverityError},
		{name: "missing input base", mutate: func(c *Config) { c.Input.Base = "" }, wantPath: "input.base", wantSev: SeverityError},
		{name: "unsupported input scheme", mutate: func(c *Config) { c.Input.Base = "gs://bucket/x" }, wantPath: "input.base", wantSev: SeverityError},
		{name: "empty log pattern", mutate: func(c *Config) { c.Input.LogPattern = "" }, wantPath: "input.log_pattern", wantSev: SeverityError},
		{name: "lake without base", mutate: func(c *Config) { c.Output.Base = "" }, wantPath: "output.base", wantSev: SeverityError},
		{name: "bad compression", mutate: func(c *Config) { c.Output.Options = Options{"compression": "lz4"} }, wantPath: "output.options.compression", wantSev: SeverityError},
		{name: "uncompressed alias", mutate: func(c *Config) { c.Output.Options = Options{"compression": "uncompressed"} }, wantClean: true},
		{name: "codec name is case-insensitive", mutate: func(c *Config) { c.Output.Options = Options{"compression": " ZSTD "} }, wantClean: true},
		{name: "sql without dsn", mutate: func(c *Config) { c.Output.Kind = "postgres" }, wantPath: "output.dsn", wantSev: SeverityError},
		{name: "sql with base warns", mutate: func(c *Config) { c.Output.Kind = "sqlite"; c.Output.DSN = "x.db" }, wantPath: "output.base", wantSev: SeverityWarning},
		{name: "unknown output kind", mutate: func(c *Config) { c.Output.Kind = "redshift" }, wantPath: "output.kind", wantSev: SeverityError},
		{name: "s3 without region", mutate: func(c *Config) { c.Input.Base = "s3a://udacity-dend/" }, wantPath: "aws.region", wantSev: SeverityWarning},
		{name: "half credentials", mutate: func(c *Config) { c.AWS.AccessKeyID = "AKIA" }, wantPath: "aws.access_key_id", wantSev: SeverityError},
		{name: "bad timezone", mutate: func(c *Config) { c.Transform.Timezone = "Mars/Olympus" }, wantPath: "transform.timezone", wantSev: SeverityError},
		{name: "bad id kind", mutate: func(c *Config) { c.Transform.SongplayID = "snowflake" }, wantPath: "transform.songplay_id", wantSev: SeverityError},
		{name: "require disabled", mutate: func(c *Config) { c.Transform.RequireColumns = false }, wantPath: "transform.require_columns", wantSev: SeverityWarning},
		{name: "prometheus without url", mutate: func(c *Config) { c.Metrics.Backend = "prometheus" }, wantPath: "metrics.pushgateway_url", wantSev: SeverityError},
		{name: "datadog without addr", mutate: func(c *Config) { c.Metrics.Backend = "datadog" }, wantPath: "metrics.datadog_addr", wantSev: SeverityError},
		{name: "unknown metrics backend", mutate: func(c *Config) { c.Metrics.Backend = "graphite" }, wantPath: "metrics.backend", wantSev: SeverityError},
		{name: "negative workers", mutate: func(c *Config) { c.Runtime.ReadWorkers = -1 }, wantPath: "runtime.read_workers", wantSev: SeverityError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := validConfig()
			tt.mutate(c)
			issues := Validate(c)

			if tt.wantClean {
				if len(issues) != 0 {
					t.Fatalf("Validate() = %v, want no issues", issues)
				}
				return
			}
			for _, iss := range issues {
				if iss.Path == tt.wantPath && iss.Severity == tt.wantSev {
					return
				}
			}
			t.Fatalf("Validate() = %v, want %s at %s", issues, tt.wantSev, tt.wantPath)
		})
	}
}

func TestHasErrors(t *testing.T) {
	t.Parallel()

	if HasErrors([]Issue{{Severity: SeverityWarning}}) {
		t.Fatalf("HasErrors(warnings) = true")
	}
	if !HasErrors([]Issue{{Severity: SeverityWarning}, {Severity: SeverityError}}) {
		t.Fatalf("HasErrors(error) = false")
	}
	if got := (Issue{SeverityError, "job", "empty"}).Error(); got != "error at job: empty" {
		t.Fatalf("Issue.Error() = %q", got)
	}
}
