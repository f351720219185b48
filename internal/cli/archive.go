package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/fusionscope/internal/store"
)

// ArchiveOptions holds the flags shared by archive commands.
type ArchiveOptions struct {
	*RootOptions
	Database string
}

func (o *ArchiveOptions) addDBFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Database, "db", "", "path to SQLite capture archive (default [store].path)")
}

// openArchive opens the archive named by --db or the config. With
// mustExist set a missing file is an error instead of a new archive.
func (o *ArchiveOptions) openArchive(mustExist bool) (*store.Store, error) {
	path := o.Database
	if path == "" {
		path = o.Config.Store.Path
	}
	if path == "" {
		return nil, NewExitError(ExitCommandError, ErrCodeStore, "no archive: pass --db or set [store].path")
	}
	if mustExist {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, NewExitError(ExitCommandError, ErrCodeStore, fmt.Sprintf("database not found: %s", path))
		}
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, ErrCode: ErrCodeStore, Message: "failed to open database", Err: err}
	}
	o.logger().Debug("archive open", "path", path)
	return st, nil
}

func (o *ArchiveOptions) closeArchive(st *store.Store) {
	if err := st.Close(); err != nil {
		o.logger().Error("error closing database", "error", err)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
