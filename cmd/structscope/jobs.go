package main

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"

	"structscope/internal/analyzer"
	"structscope/internal/analyzer/api"
	"structscope/internal/analyzer/dependency"
	"structscope/internal/analyzer/localization"
	"structscope/internal/analyzer/messaging"
	"structscope/internal/analyzer/schema"
	"structscope/internal/extract/protodef"
	"structscope/internal/extract/yamldoc"
)

// job is one analyzer bound to its output handling.
type job struct {
	name       string
	run        func(ctx context.Context, files []string) (result any, report string, err error)
	invalidate func(paths ...string)
	close      func() error
}

// analyzerFor is the surface every analyzer shares through analyzer.Base.
type analyzerFor[R any] interface {
	Analyze(ctx context.Context, paths []string) (R, error)
	Invalidate(paths ...string)
	Close() error
}

func bind[R any](name string, a analyzerFor[R], report func(R) string) *job {
	return &job{
		name: name,
		run: func(ctx context.Context, files []string) (any, string, error) {
			res, err := a.Analyze(ctx, files)
			if err != nil {
				return nil, "", err
			}
			var md string
			if report != nil {
				md = report(res)
			}
			return res, md, nil
		},
		invalidate: a.Invalidate,
		close:      a.Close,
	}
}

type jobSpec struct {
	use   string
	short string
	build func(c *cli, opts []analyzer.Option) (*job, error)
}

var jobOrder = []string{"deps", "api", "schema", "events", "i18n", "proto", "yaml"}

var jobSpecs = map[string]jobSpec{
	"deps": {"deps", "Module graph, circular imports and load order", func(_ *cli, opts []analyzer.Option) (*job, error) {
		a, err := dependency.New(opts...)
		if err != nil {
			return nil, err
		}
		return bind[*dependency.Result]("deps", a, nil), nil
	}},
	"api": {"api", "HTTP endpoints, client calls and how they match", func(_ *cli, opts []analyzer.Option) (*job, error) {
		a, err := api.New(opts...)
		if err != nil {
			return nil, err
		}
		return bind[*api.Result]("api", a, api.Documentation), nil
	}},
	"schema": {"schema", "GraphQL types, resolvers and operations", func(_ *cli, opts []analyzer.Option) (*job, error) {
		a, err := schema.New(opts...)
		if err != nil {
			return nil, err
		}
		return bind[*schema.Result]("schema", a, nil), nil
	}},
	"events": {"events", "WebSocket and Socket.IO emitters and listeners", func(_ *cli, opts []analyzer.Option) (*job, error) {
		a, err := messaging.New(opts...)
		if err != nil {
			return nil, err
		}
		return bind[*messaging.Result]("events", a, nil), nil
	}},
	"i18n": {"i18n", "Translation coverage and key usage", func(_ *cli, opts []analyzer.Option) (*job, error) {
		a, err := localization.New(opts...)
		if err != nil {
			return nil, err
		}
		return bind[*localization.Result]("i18n", a, localization.Report), nil
	}},
	"proto": {"proto", "Protobuf services, messages and dependencies", func(c *cli, opts []analyzer.Option) (*job, error) {
		a, err := protodef.NewAnalyzer(opts...)
		if err != nil {
			return nil, err
		}
		j := bind[*protodef.Result]("proto", a, protodef.Documentation)
		if c.descriptor {
			j.run = descriptorRun(a)
		}
		return j, nil
	}},
	"yaml": {"yaml", "YAML documents, compose services and lint issues", func(_ *cli, opts []analyzer.Option) (*job, error) {
		a, err := yamldoc.NewAnalyzer(opts...)
		if err != nil {
			return nil, err
		}
		return bind[*yamldoc.Result]("yaml", a, nil), nil
	}},
}

// descriptorRun replaces the summary with the FileDescriptorSet in protojson form.
func descriptorRun(a *protodef.Analyzer) func(context.Context, []string) (any, string, error) {
	return func(ctx context.Context, files []string) (any, string, error) {
		res, err := a.Analyze(ctx, files)
		if err != nil {
			return nil, "", err
		}
		b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(protodef.DescriptorSet(res.Files))
		if err != nil {
			return nil, "", fmt.Errorf("proto: descriptor: %w", err)
		}
		return json.RawMessage(b), protodef.Documentation(res), nil
	}
}
