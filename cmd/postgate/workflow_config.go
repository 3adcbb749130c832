package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/postgatehq/postgate/approval"
	"github.com/postgatehq/postgate/audit"
	"github.com/postgatehq/postgate/db"
	"github.com/postgatehq/postgate/drafter"
	"github.com/postgatehq/postgate/internal/pathutil"
	"github.com/postgatehq/postgate/persona"
	"github.com/postgatehq/postgate/platform"
	"github.com/postgatehq/postgate/roles"
	"github.com/postgatehq/postgate/workflow"
)

// serviceFromViper assembles the workflow service and its dependencies from
// config. The returned closer flushes the audit sink.
func serviceFromViper(log *slog.Logger) (*workflow.Service, func(), error) {
	if log == nil {
		log = slog.Default()
	}

	registry, err := registryFromViper(log)
	if err != nil {
		return nil, nil, err
	}

	p, err := persona.Load(pathutil.ExpandHomePath(viper.GetString("persona.path")))
	if err != nil {
		return nil, nil, err
	}
	if !p.Empty() {
		log.Info("persona_loaded", "name", p.Name, "topics", len(p.Topics))
	}

	d := drafter.New(llmClientFromViper(), llmModelFromViper(), p, log)
	if n := viper.GetInt("drafter.max_length"); n > 0 {
		d.MaxLength = n
	}

	sink, err := auditSinkFromViper(log)
	if err != nil {
		return nil, nil, err
	}

	svc, err := workflow.New(workflow.Config{
		Registry: registry,
		Roles:    rolesFromViper(),
		Drafter:  d,
		Poster:   posterFromViper(),
		Audit:    sink,
		Logger:   log,
		TaskName: viper.GetString("workflow.task_name"),
		Tags:     viper.GetStringSlice("workflow.tags"),
	})
	if err != nil {
		return nil, nil, err
	}
	closer := func() { _ = sink.Close() }
	return svc, closer, nil
}

func registryFromViper(log *slog.Logger) (approval.Registry, error) {
	driver := strings.ToLower(strings.TrimSpace(viper.GetString("registry.driver")))
	switch driver {
	case "", "sqlite":
		dsn, err := db.ResolveSQLiteDSN(viper.GetString("db.dsn"))
		if err != nil {
			return nil, err
		}
		r, err := approval.NewSQLiteRegistry(dsn)
		if err != nil {
			return nil, err
		}
		log.Info("registry_opened", "driver", "sqlite", "dsn", dsn)
		return r, nil
	case "memory":
		return approval.NewMemoryRegistry(), nil
	default:
		return nil, fmt.Errorf("unsupported registry.driver: %s", driver)
	}
}

func rolesFromViper() roles.Resolver {
	var contexts map[string]roles.Membership
	_ = viper.UnmarshalKey("roles.contexts", &contexts)
	return roles.NewStaticResolver(contexts)
}

func posterFromViper() platform.Poster {
	c := platform.NewTwitterClient(
		viper.GetString("platform.twitter.base_url"),
		viper.GetString("platform.twitter.bearer_token"),
		viper.GetString("platform.twitter.username"),
		viper.GetDuration("platform.twitter.timeout"),
	)
	c.DryRun = viper.GetBool("platform.twitter.dry_run")
	return c
}

func auditSinkFromViper(log *slog.Logger) (audit.Sink, error) {
	if viper.IsSet("audit.enabled") && !viper.GetBool("audit.enabled") {
		return audit.NopSink{}, nil
	}

	path := strings.TrimSpace(viper.GetString("audit.jsonl_path"))
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil || strings.TrimSpace(home) == "" {
			return audit.NopSink{}, nil
		}
		path = filepath.Join(home, ".postgate", "audit.jsonl")
	}
	path = pathutil.ExpandHomePath(path)

	s, err := audit.NewJSONLSink(path, viper.GetInt64("audit.rotate_max_bytes"))
	if err != nil {
		log.Warn("audit_sink_error", "path", path, "error", err.Error())
		return audit.NopSink{}, nil
	}
	return s, nil
}
