package rate

import (
	"fmt"
	"plugin"
)

// ErrLoadPlugin indicates the shared object could not be opened.
type ErrLoadPlugin struct {
	Path string
	Err  error
}

func (e *ErrLoadPlugin) Error() string {
	return fmt.Sprintf("rate: load plugin %q: %v", e.Path, e.Err)
}
func (e *ErrLoadPlugin) Unwrap() error { return e.Err }

// ErrResolveSymbol indicates the named symbol was not exported, or was
// exported with an incompatible signature.
type ErrResolveSymbol struct {
	Path, Symbol string
	Err          error
}

func (e *ErrResolveSymbol) Error() string {
	return fmt.Sprintf("rate: resolve symbol %q in %q: %v", e.Symbol, e.Path, e.Err)
}
func (e *ErrResolveSymbol) Unwrap() error { return e.Err }

// LoadCustom opens the plugin at path and resolves symbol, which must be
// exported as a func(float64) float64 — the Go analogue of the original
// ABI's `double symbol(double t, void* ctx)` (Go plugins have no stable
// void* context-pointer convention, so the context argument is dropped; a
// custom rate that needs external state should close over it instead).
//
// The returned release func clears the in-process reference to the loaded
// symbol. Go's plugin package does not support unloading a shared object
// once opened (there is no dlclose equivalent), so release is a scoping
// convenience only, not an actual unmap; callers must not rely on memory
// being reclaimed.
func LoadCustom(path, symbol string) (*Custom, func() error, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, nil, &ErrLoadPlugin{Path: path, Err: err}
	}

	sym, err := p.Lookup(symbol)
	if err != nil {
		return nil, nil, &ErrResolveSymbol{Path: path, Symbol: symbol, Err: err}
	}

	fn, ok := sym.(func(float64) float64)
	if !ok {
		return nil, nil, &ErrResolveSymbol{
			Path:   path,
			Symbol: symbol,
			Err:    fmt.Errorf("symbol has type %T, want func(float64) float64", sym),
		}
	}

	custom := &Custom{Fn: fn}
	release := func() error {
		custom.Fn = nil
		return nil
	}
	return custom, release, nil
}
