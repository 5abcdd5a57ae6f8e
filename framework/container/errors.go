package container

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is matched by every *NotFoundError.
	ErrNotFound = errors.New("container: service not found")

	ErrUnresolvableParameter = errors.New("unresolvable parameter")
	ErrTypeMismatch          = errors.New("type mismatch")
	ErrInvalidConstructor    = errors.New("invalid constructor")
	ErrInvalidTransition     = errors.New("invalid provider state transition")
)

// Op names the container phase a ContainerError happened in.
type Op string

const (
	OpRegister Op = "register"
	OpBoot     Op = "boot"
	OpResolve  Op = "resolve"
	OpAutowire Op = "autowire"
)

// NotFoundError reports an identifier with no binding, no instance, no
// deferred provider and no catalog constructor.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("container: no binding registered for [%s]", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ContainerError wraps a failure raised by provider or factory code.
// Subject is the provider name for OpRegister/OpBoot and the identifier
// otherwise.
type ContainerError struct {
	Op      Op
	Subject string
	Cause   error
}

func (e *ContainerError) Error() string {
	return fmt.Sprintf("container: %s [%s]: %v", e.Op, e.Subject, e.Cause)
}

func (e *ContainerError) Unwrap() error { return e.Cause }

// CircularDependencyError is returned the moment an identifier is requested
// while it is already being built in the same resolution chain.
type CircularDependencyError struct {
	Chain []string
}

func (e *CircularDependencyError) Error() string {
	return "container: circular dependency detected: " + strings.Join(e.Chain, " -> ")
}

// CircularAliasError is returned when an alias chain loops back on itself.
type CircularAliasError struct {
	Chain []string
}

func (e *CircularAliasError) Error() string {
	return "container: circular alias detected: " + strings.Join(e.Chain, " -> ")
}

// PanicError carries a value recovered from a factory, constructor or
// provider method.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// IsNotFound reports whether err means "absent" rather than "broken": it is
// false when the not-found condition happened inside a factory and was
// wrapped in a ContainerError.
func IsNotFound(err error) bool {
	var ce *ContainerError
	if errors.As(err, &ce) {
		return false
	}
	return errors.Is(err, ErrNotFound)
}

// IsCircular reports whether err is a circular dependency or alias error.
func IsCircular(err error) bool {
	var cd *CircularDependencyError
	var ca *CircularAliasError
	return errors.As(err, &cd) || errors.As(err, &ca)
}
