package container

import (
	"runtime/debug"
	"slices"
	"sync/atomic"
)

// resolution is one link of a Get call chain: the identifier being built
// and the link that requested it. Links are never mutated, so goroutines
// started by a factory extend the chain independently. The first link of a
// chain has no parent and no key.
type resolution struct {
	parent *resolution
	key    string
	state  *chainState
}

// chainState is shared by every link of one outermost Get.
type chainState struct {
	done atomic.Bool
}

func newChain() *resolution {
	return &resolution{state: &chainState{}}
}

// push returns the link for building key on top of r.
func (r *resolution) push(key string) (*resolution, error) {
	for n := r; n.parent != nil; n = n.parent {
		if n.key == key {
			return nil, &CircularDependencyError{Chain: append(r.path(), key)}
		}
	}
	return &resolution{parent: r, key: key, state: r.state}, nil
}

// path lists the identifiers of the chain, outermost first.
func (r *resolution) path() []string {
	var out []string
	for n := r; n.parent != nil; n = n.parent {
		out = append(out, n.key)
	}
	slices.Reverse(out)
	return out
}

// top returns the identifier currently being built, or "".
func (r *resolution) top() string {
	if r == nil || r.parent == nil {
		return ""
	}
	return r.key
}

// live reports whether the Get that started the chain is still running.
// A handle kept by a factory after that point starts a fresh chain.
func (r *resolution) live() bool {
	return r != nil && !r.state.done.Load()
}

// within returns a handle on the same container bound to r.
func (c *Container) within(r *resolution) *Container {
	return &Container{core: c.core, res: r}
}

// guard runs fn, turning a panic into a *PanicError.
func guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()
	return fn()
}
