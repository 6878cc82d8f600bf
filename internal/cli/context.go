// Package cli contains the cobra command tree. Commands are thin: they
// parse flags, build a context carrying the configured author, and call
// the application services through wire.
package cli

import (
	"context"
	"os"

	"github.com/evoludigit/pgGit-sub001/internal/config"
	"github.com/evoludigit/pgGit-sub001/internal/ctxutil"
)

// commandContext builds the context for one command invocation, carrying
// the author resolved from .pggit/config.json, PGGIT_AUTHOR, or the OS
// user.
func commandContext() context.Context {
	ctx := context.Background()

	var cfg *config.Config
	if cwd, err := os.Getwd(); err == nil {
		if loaded, err := config.LoadConfig(cwd); err == nil {
			cfg = loaded
		}
	}

	return ctxutil.WithAuthor(ctx, config.ResolveAuthor(cfg))
}
