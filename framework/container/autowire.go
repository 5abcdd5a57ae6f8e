package container

import (
	"fmt"
	"reflect"
	"sync"
)

var (
	containerType = reflect.TypeFor[*Container]()
	errorType     = reflect.TypeFor[error]()
)

// Catalog records the constructors of types the container may build without
// an explicit binding. A type is auto-wirable under TypeKeyOf of the
// constructor's first result.
//
//	cat := container.NewCatalog()
//	cat.Add(cleanup.NewRevisionsAnalyzer)
//	c := container.New(container.WithCatalog(cat))
//	a, err := container.Make[*cleanup.RevisionsAnalyzer](c)
type Catalog struct {
	mu    sync.RWMutex
	ctors map[string]*constructor
}

type constructor struct {
	key    string
	fn     reflect.Value
	params []parameter
	hasErr bool
}

type parameter struct {
	index int
	typ   reflect.Type
	// key is empty for primitives and unnamed types, which are never
	// looked up in the container.
	key        string
	def        reflect.Value
	hasDefault bool
	nullable   bool
}

// ParamOption customises how one constructor parameter is resolved.
type ParamOption func(*constructor) error

// Default supplies the value used when parameter index cannot be resolved
// from the container.
//
//	c.Constructor(NewTransientsAnalyzer, container.Default(1, 500))
func Default(index int, value any) ParamOption {
	return func(ct *constructor) error {
		p, err := ct.param(index)
		if err != nil {
			return err
		}
		v := reflect.ValueOf(value)
		switch {
		case !v.IsValid():
			return fmt.Errorf("%w: nil default for parameter %d, use Nullable", ErrInvalidConstructor, index)
		case v.Type().AssignableTo(p.typ):
		case isNumeric(v.Kind()) && isNumeric(p.typ.Kind()):
			v = v.Convert(p.typ)
		default:
			return fmt.Errorf("%w: default %s not assignable to parameter %d (%s)",
				ErrInvalidConstructor, v.Type(), index, p.typ)
		}
		p.def, p.hasDefault = v, true
		return nil
	}
}

// Nullable lets parameter index fall back to nil when it cannot be
// resolved and has no default.
func Nullable(index int) ParamOption {
	return func(ct *constructor) error {
		p, err := ct.param(index)
		if err != nil {
			return err
		}
		if !isNilable(p.typ.Kind()) {
			return fmt.Errorf("%w: parameter %d (%s) cannot be nil", ErrInvalidConstructor, index, p.typ)
		}
		p.nullable = true
		return nil
	}
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{ctors: make(map[string]*constructor)}
}

// Add records fn, a func(deps...) T or func(deps...) (T, error), as the
// constructor of T and returns T's key.
func (cat *Catalog) Add(fn any, opts ...ParamOption) (string, error) {
	ct, err := newConstructor(fn)
	if err != nil {
		return "", err
	}
	for _, opt := range opts {
		if err := opt(ct); err != nil {
			return "", err
		}
	}

	cat.mu.Lock()
	defer cat.mu.Unlock()
	cat.ctors[ct.key] = ct
	return ct.key, nil
}

// Has reports whether key has a constructor.
func (cat *Catalog) Has(key string) bool {
	_, ok := cat.lookup(key)
	return ok
}

func (cat *Catalog) lookup(key string) (*constructor, bool) {
	cat.mu.RLock()
	defer cat.mu.RUnlock()
	ct, ok := cat.ctors[key]
	return ct, ok
}

// Constructor adds fn to the container's catalog.
//
//	err := c.Constructor(controllers.NewCleanupController)
func (c *Container) Constructor(fn any, opts ...ParamOption) error {
	_, err := c.catalog.Add(fn, opts...)
	return err
}

func newConstructor(fn any) (*constructor, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("%w: %T is not a function", ErrInvalidConstructor, fn)
	}
	t := v.Type()
	if t.IsVariadic() {
		return nil, fmt.Errorf("%w: %s is variadic", ErrInvalidConstructor, t)
	}

	ct := &constructor{fn: v}
	switch {
	case t.NumOut() == 1:
	case t.NumOut() == 2 && t.Out(1) == errorType:
		ct.hasErr = true
	default:
		return nil, fmt.Errorf("%w: %s must return T or (T, error)", ErrInvalidConstructor, t)
	}

	ct.key = TypeKeyOf(t.Out(0))
	if ct.key == "" {
		return nil, fmt.Errorf("%w: %s returns an unnamed type", ErrInvalidConstructor, t)
	}

	ct.params = make([]parameter, t.NumIn())
	for i := range ct.params {
		in := t.In(i)
		p := parameter{index: i, typ: in}
		if !isPrimitive(in.Kind()) {
			p.key = TypeKeyOf(in)
		}
		ct.params[i] = p
	}
	return ct, nil
}

func (ct *constructor) param(index int) (*parameter, error) {
	if index < 0 || index >= len(ct.params) {
		return nil, fmt.Errorf("%w: %s has no parameter %d", ErrInvalidConstructor, ct.fn.Type(), index)
	}
	return &ct.params[index], nil
}

// autowire turns a catalog constructor into a factory.
func (c *Container) autowire(ct *constructor) Factory {
	return func(h *Container) (any, error) {
		args := make([]reflect.Value, len(ct.params))
		for i, p := range ct.params {
			arg, err := h.argument(p)
			if err != nil {
				return nil, err
			}
			args[i] = arg
		}

		out := ct.fn.Call(args)
		if ct.hasErr && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		return out[0].Interface(), nil
	}
}

// argument resolves one parameter: container lookup, then the declared
// default, then nil for nullable parameters.
func (c *Container) argument(p parameter) (reflect.Value, error) {
	if p.typ == containerType {
		return reflect.ValueOf(c), nil
	}

	if p.key != "" {
		instance, err := c.resolve(p.key)
		if err == nil {
			return assign(p, instance)
		}
		if !IsNotFound(err) {
			return reflect.Value{}, err
		}
	}

	switch {
	case p.hasDefault:
		return p.def, nil
	case p.nullable:
		return reflect.Zero(p.typ), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: parameter %d of type %s", ErrUnresolvableParameter, p.index, p.typ)
}

func assign(p parameter, instance any) (reflect.Value, error) {
	if instance == nil {
		if isNilable(p.typ.Kind()) {
			return reflect.Zero(p.typ), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: parameter %d of type %s resolved to nil", ErrTypeMismatch, p.index, p.typ)
	}
	v := reflect.ValueOf(instance)
	if !v.Type().AssignableTo(p.typ) {
		return reflect.Value{}, fmt.Errorf("%w: parameter %d of type %s resolved to %s",
			ErrTypeMismatch, p.index, p.typ, v.Type())
	}
	return v, nil
}

func isPrimitive(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String:
		return true
	}
	return isNumeric(k) || k == reflect.Complex64 || k == reflect.Complex128
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isNilable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}
