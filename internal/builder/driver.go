package builder

import (
	"context"

	"github.com/nagater/rpmkit/internal/buildroot"
)

// Driver builds the prepared spec file into packages. Implementations
// run either inside a container or directly on the host.
type Driver interface {
	Build(ctx context.Context, root *buildroot.Root, name string) error
}
