package catalog

import (
	"flag"
	"fmt"
	"path/filepath"

	"github.com/wetwoodland/webmap/internal/fsutil"
	"github.com/wetwoodland/webmap/internal/monitoring"
)

// Session ties one tool invocation to a run. A nil *Session records
// nothing, so tools can call it whether or not -catalog was given.
type Session struct {
	db   *DB
	fsys fsutil.FileSystem
	run  *Run
}

// Begin opens the catalog at path and starts a run for tool. An empty path
// returns a nil Session.
func Begin(path, tool string, params map[string]string) (*Session, error) {
	if path == "" {
		return nil, nil
	}
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	run, err := db.StartRun(tool, params)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Session{db: db, fsys: fsutil.OSFileSystem{}, run: run}, nil
}

// RunID returns the run id, or "" for a nil Session.
func (s *Session) RunID() string {
	if s == nil {
		return ""
	}
	return s.run.ID
}

// Outputs records written files against the run. Paths are stored absolute
// so verify works from any working directory.
func (s *Session) Outputs(paths ...string) error {
	if s == nil || len(paths) == 0 {
		return nil
	}
	abs := make([]string, len(paths))
	for i, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve output %s: %w", p, err)
		}
		abs[i] = a
	}
	return s.db.RecordOutputs(s.fsys, s.run.ID, abs...)
}

// End finishes the run, as failed when cause is non-nil, and closes the
// catalog.
func (s *Session) End(itemCount int, cause error) error {
	if s == nil {
		return nil
	}
	defer s.db.Close()
	if cause != nil {
		return s.db.Fail(s.run.ID, cause)
	}
	if err := s.db.Finish(s.run.ID, itemCount); err != nil {
		return err
	}
	monitoring.Logf("catalog: recorded run %s", s.run.ID)
	return nil
}

// FlagParams returns the value of every flag in fs, keyed by name.
func FlagParams(fs *flag.FlagSet) map[string]string {
	params := make(map[string]string)
	fs.VisitAll(func(f *flag.Flag) {
		params[f.Name] = f.Value.String()
	})
	return params
}
