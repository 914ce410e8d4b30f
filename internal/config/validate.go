package config

import (
	"fmt"
	"strings"
	"time"

	"datalake/internal/blob"
	"datalake/internal/idgen"
	"datalake/internal/storage/parquet"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding. Path is the dotted config key.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

var (
	sqlKinds     = map[string]bool{"postgres": true, "sqlite": true, "mysql": true, "mssql": true}
	metricsKinds = map[string]bool{"": true, "none": true, "prometheus": true, "datadog": true}
)

// Validate lints c without mutating it.
func Validate(c *Config) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(c.Job) == "" {
		add(SeverityError, "job", "job must not be empty; it labels logs and metrics")
	}

	// Input.
	usesS3 := false
	if strings.TrimSpace(c.Input.Base) == "" {
		add(SeverityError, "input.base", "input base location is required")
	} else if loc, err := blob.ParseLocation(c.Input.Base); err != nil {
		add(SeverityError, "input.base", "%v", err)
	} else if loc.Scheme == "s3" {
		usesS3 = true
	}
	if c.Input.SongPattern == "" {
		add(SeverityError, "input.song_pattern", "song pattern must not be empty")
	}
	if c.Input.LogPattern == "" {
		add(SeverityError, "input.log_pattern", "log pattern must not be empty")
	}

	// Output.
	switch kind := c.Output.Kind; {
	case kind == "":
		add(SeverityError, "output.kind", "output kind must not be empty")
	case kind == "lake":
		if strings.TrimSpace(c.Output.Base) == "" {
			add(SeverityError, "output.base", "lake output requires a base location")
		} else if loc, err := blob.ParseLocation(c.Output.Base); err != nil {
			add(SeverityError, "output.base", "%v", err)
		} else if loc.Scheme == "s3" {
			usesS3 = true
		}
		if comp := c.Output.Options.String("compression", ""); !validCodec(comp) {
			add(SeverityError, "output.options.compression", "unknown compression %q (snappy, zstd, gzip, none)", comp)
		}
	case sqlKinds[kind]:
		if strings.TrimSpace(c.Output.DSN) == "" {
			add(SeverityError, "output.dsn", "%s output requires a DSN", kind)
		}
		if c.Output.Base != "" {
			add(SeverityWarning, "output.base", "ignored for %s output", kind)
		}
	default:
		add(SeverityError, "output.kind", "unknown output kind %q", kind)
	}

	// AWS.
	if usesS3 {
		if c.AWS.Region == "" && c.AWS.Endpoint == "" {
			add(SeverityWarning, "aws.region", "no region or endpoint set; the SDK default chain decides")
		}
	}
	if (c.AWS.AccessKeyID == "") != (c.AWS.SecretAccessKey == "") {
		add(SeverityError, "aws.access_key_id", "access key id and secret access key must be set together")
	}

	// Transform.
	if _, err := time.LoadLocation(c.Transform.Timezone); err != nil {
		add(SeverityError, "transform.timezone", "%v", err)
	}
	if _, err := idgen.New(c.Transform.SongplayID); err != nil {
		add(SeverityError, "transform.songplay_id", "%v", err)
	}
	if !c.Transform.RequireColumns {
		add(SeverityWarning, "transform.require_columns", "disabled; a wrong input pattern yields empty tables instead of an error")
	}

	// Metrics.
	switch b := strings.ToLower(c.Metrics.Backend); {
	case !metricsKinds[b]:
		add(SeverityError, "metrics.backend", "unknown metrics backend %q (none, prometheus, datadog)", c.Metrics.Backend)
	case b == "prometheus" && c.Metrics.PushgatewayURL == "":
		add(SeverityError, "metrics.pushgateway_url", "prometheus backend requires a Pushgateway URL")
	case b == "datadog" && c.Metrics.DatadogAddr == "":
		add(SeverityError, "metrics.datadog_addr", "datadog backend requires a DogStatsD address")
	}

	// Runtime.
	if c.Runtime.ReadWorkers < 0 {
		add(SeverityError, "runtime.read_workers", "must be >= 0 (0 means GOMAXPROCS)")
	}

	return issues
}

func validCodec(name string) bool {
	_, err := parquet.Codec(name)
	return err == nil
}
