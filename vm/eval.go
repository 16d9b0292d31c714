// Package vm is the host runtime: it validates compiled modules,
// instantiates them with their own linear memory, and interprets their
// code. Eval ties the whole pipeline together, from source text to the
// result of the program's main function.
package vm

import (
	"context"

	"github.com/lumalang/luma/checker"
	"github.com/lumalang/luma/compiler"
	"github.com/lumalang/luma/optimizer"
	"github.com/lumalang/luma/parser"
	"github.com/lumalang/luma/wasm"
	"github.com/rs/zerolog"
)

// EvalOption is a configuration function for Eval.
type EvalOption func(*evalConfig)

type evalConfig struct {
	cache    *Cache
	filename string
	logger   zerolog.Logger
	maxPages uint32
}

// WithCache reuses previously compiled modules for identical source text.
func WithCache(cache *Cache) EvalOption {
	return func(cfg *evalConfig) {
		cfg.cache = cache
	}
}

// WithFilename sets the file name used in diagnostics.
func WithFilename(filename string) EvalOption {
	return func(cfg *evalConfig) {
		cfg.filename = filename
	}
}

// WithEvalLogger attaches a logger to the instances Eval creates.
func WithEvalLogger(logger zerolog.Logger) EvalOption {
	return func(cfg *evalConfig) {
		cfg.logger = logger
	}
}

// WithMaxPages caps the memory of the compiled module.
func WithMaxPages(pages uint32) EvalOption {
	return func(cfg *evalConfig) {
		cfg.maxPages = pages
	}
}

// Eval compiles the source, instantiates it, and invokes its main function.
// With a cache configured, identical source skips compilation.
func Eval(ctx context.Context, source string, options ...EvalOption) (Value, error) {
	cfg := &evalConfig{logger: zerolog.Nop()}
	for _, opt := range options {
		opt(cfg)
	}

	var module *wasm.Module
	if cfg.cache != nil {
		module, _ = cfg.cache.Get(source)
	}
	if module == nil {
		var err error
		module, err = compile(ctx, source, cfg)
		if err != nil {
			return Void, err
		}
		if cfg.cache != nil {
			cfg.cache.Put(source, module)
		}
	}

	instance, err := NewInstance(module, WithLogger(cfg.logger))
	if err != nil {
		return Void, err
	}
	return instance.Invoke(ctx, "main")
}

func compile(ctx context.Context, source string, cfg *evalConfig) (*wasm.Module, error) {
	program, err := parser.Parse(ctx, source, parser.WithFilename(cfg.filename))
	if err != nil {
		return nil, err
	}
	if err := checker.Check(program,
		checker.WithSource(source), checker.WithFilename(cfg.filename)); err != nil {
		return nil, err
	}
	program, err = optimizer.Optimize(program,
		optimizer.WithSource(source), optimizer.WithFilename(cfg.filename))
	if err != nil {
		return nil, err
	}
	opts := []compiler.Option{
		compiler.WithSource(source), compiler.WithFilename(cfg.filename),
	}
	if cfg.maxPages > 0 {
		opts = append(opts, compiler.WithMaxPages(cfg.maxPages))
	}
	return compiler.Compile(program, opts...)
}
