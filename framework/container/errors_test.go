package container_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/km-arc/go-housekeeper/framework/container"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&container.NotFoundError{ID: "db"}, "container: no binding registered for [db]"},
		{
			&container.ContainerError{Op: container.OpRegister, Subject: "DatabaseServiceProvider", Cause: errors.New("dial tcp")},
			"container: register [DatabaseServiceProvider]: dial tcp",
		},
		{&container.CircularDependencyError{Chain: []string{"A", "B", "A"}}, "container: circular dependency detected: A -> B -> A"},
		{&container.CircularAliasError{Chain: []string{"a", "a"}}, "container: circular alias detected: a -> a"},
		{&container.PanicError{Value: "oops"}, "panic: oops"},
	}
	for _, tt := range tests {
		assert.EqualError(t, tt.err, tt.want)
	}
}

func TestIsNotFound(t *testing.T) {
	nf := &container.NotFoundError{ID: "x"}

	assert.True(t, container.IsNotFound(nf))
	assert.True(t, container.IsNotFound(fmt.Errorf("loading: %w", nf)))
	assert.False(t, container.IsNotFound(&container.ContainerError{Op: container.OpResolve, Subject: "y", Cause: nf}))
	assert.False(t, container.IsNotFound(errors.New("x")))
	assert.False(t, container.IsNotFound(nil))
}

func TestIsCircular(t *testing.T) {
	assert.True(t, container.IsCircular(&container.CircularDependencyError{}))
	assert.True(t, container.IsCircular(&container.CircularAliasError{}))
	assert.False(t, container.IsCircular(&container.NotFoundError{}))
}
