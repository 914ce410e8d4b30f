package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"datalake/internal/blob/store"
	"datalake/internal/config"
	jsonparser "datalake/internal/parser/json"
	"datalake/internal/storage"
	_ "datalake/internal/storage/all"
)

// FromConfig opens the input store and the sink described by cfg. The
// caller owns the returned Pipeline and must Close it.
func FromConfig(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	if issues := config.Validate(cfg); config.HasErrors(issues) {
		var msgs []string
		for _, iss := range issues {
			if iss.Severity == config.SeverityError {
				msgs = append(msgs, iss.Error())
			}
		}
		return nil, &StageError{Stage: StageOpen, Err: fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))}
	}

	loc, err := time.LoadLocation(cfg.Transform.Timezone)
	if err != nil {
		return nil, &StageError{Stage: StageOpen, Err: err}
	}
	input, err := store.Open(cfg.Input.Base, cfg.S3())
	if err != nil {
		return nil, &StageError{Stage: StageOpen, Table: "input", Err: err}
	}
	sink, err := storage.New(ctx, storage.Config{
		Kind:    cfg.Output.Kind,
		Base:    cfg.Output.Base,
		DSN:     cfg.Output.DSN,
		S3:      cfg.S3(),
		Options: cfg.Output.Options,
	})
	if err != nil {
		return nil, &StageError{Stage: StageOpen, Table: "output", Err: err}
	}

	return &Pipeline{
		Job:            cfg.Job,
		Input:          input,
		Sink:           sink,
		SongPattern:    cfg.Input.SongPattern,
		LogPattern:     cfg.Input.LogPattern,
		Location:       loc,
		IDKind:         cfg.Transform.SongplayID,
		RequireColumns: cfg.Transform.RequireColumns,
		ReadWorkers:    cfg.Runtime.ReadWorkers,
		Parser:         jsonparser.FromConfigOptions(cfg.Input.Options),
	}, nil
}

// Close releases the sink.
func (p *Pipeline) Close() error {
	if p.Sink == nil {
		return nil
	}
	return p.Sink.Close()
}
