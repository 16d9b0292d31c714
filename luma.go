package luma

import (
	"context"

	"github.com/lumalang/luma/checker"
	"github.com/lumalang/luma/compiler"
	"github.com/lumalang/luma/optimizer"
	"github.com/lumalang/luma/parser"
	"github.com/lumalang/luma/vm"
	"github.com/lumalang/luma/wasm"
	"github.com/rs/zerolog"
)

// Option configures a Luma compilation or execution.
type Option func(*options)

type options struct {
	filename    string
	entrypoint  string
	maxPages    uint32
	noOptimize  bool
	cache       *vm.Cache
	logger      zerolog.Logger
	loggerIsSet bool
}

func collectOptions(opts ...Option) *options {
	o := &options{entrypoint: "main"}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithFilename sets the filename for the source code being compiled.
// This is used in diagnostics.
func WithFilename(filename string) Option {
	return func(o *options) {
		o.filename = filename
	}
}

// WithEntrypoint names the exported function that Run and Eval invoke.
// The default is "main".
func WithEntrypoint(name string) Option {
	return func(o *options) {
		o.entrypoint = name
	}
}

// WithMaxPages caps the linear memory of compiled modules, in 64 KiB
// pages.
func WithMaxPages(pages uint32) Option {
	return func(o *options) {
		o.maxPages = pages
	}
}

// WithoutOptimization skips the optimizer, compiling the checked program
// as written.
func WithoutOptimization() Option {
	return func(o *options) {
		o.noOptimize = true
	}
}

// WithCache reuses previously compiled modules for identical source text.
func WithCache(cache *vm.Cache) Option {
	return func(o *options) {
		o.cache = cache
	}
}

// WithLogger attaches a logger to the instances created by Run and Eval.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
		o.loggerIsSet = true
	}
}

// Compile parses, checks, optimizes, and compiles source code into a
// module. The returned module is immutable and safe for concurrent use;
// multiple instances can execute the same module simultaneously.
func Compile(ctx context.Context, source string, opts ...Option) (*wasm.Module, error) {
	return compile(ctx, source, collectOptions(opts...))
}

func compile(ctx context.Context, source string, o *options) (*wasm.Module, error) {
	var parserOpts []parser.Option
	if o.filename != "" {
		parserOpts = append(parserOpts, parser.WithFilename(o.filename))
	}
	program, err := parser.Parse(ctx, source, parserOpts...)
	if err != nil {
		return nil, err
	}
	if err := checker.Check(program,
		checker.WithSource(source), checker.WithFilename(o.filename)); err != nil {
		return nil, err
	}
	if !o.noOptimize {
		program, err = optimizer.Optimize(program,
			optimizer.WithSource(source), optimizer.WithFilename(o.filename))
		if err != nil {
			return nil, err
		}
	}
	compilerOpts := []compiler.Option{
		compiler.WithSource(source), compiler.WithFilename(o.filename),
	}
	if o.maxPages > 0 {
		compilerOpts = append(compilerOpts, compiler.WithMaxPages(o.maxPages))
	}
	return compiler.Compile(program, compilerOpts...)
}

// Run instantiates a compiled module and invokes its entrypoint. Each call
// creates fresh runtime state with its own linear memory, allowing
// concurrent execution of the same module.
func Run(ctx context.Context, module *wasm.Module, opts ...Option) (vm.Value, error) {
	o := collectOptions(opts...)
	return run(ctx, module, o)
}

func run(ctx context.Context, module *wasm.Module, o *options) (vm.Value, error) {
	var instOpts []vm.InstanceOption
	if o.loggerIsSet {
		instOpts = append(instOpts, vm.WithLogger(o.logger))
	}
	instance, err := vm.NewInstance(module, instOpts...)
	if err != nil {
		return vm.Void, err
	}
	return instance.Invoke(ctx, o.entrypoint)
}

// Eval is a convenience function that compiles and runs source code. It is
// equivalent to Compile followed by Run. With a cache configured,
// identical source skips compilation.
func Eval(ctx context.Context, source string, opts ...Option) (vm.Value, error) {
	o := collectOptions(opts...)

	var module *wasm.Module
	if o.cache != nil {
		module, _ = o.cache.Get(source)
	}
	if module == nil {
		var err error
		module, err = compile(ctx, source, o)
		if err != nil {
			return vm.Void, err
		}
		if o.cache != nil {
			o.cache.Put(source, module)
		}
	}
	return run(ctx, module, o)
}
