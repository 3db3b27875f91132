package catalog

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/wetwoodland/webmap/internal/fsutil"
)

// ErrDrift is returned by the verify command when any output changed.
var ErrDrift = errors.New("outputs drifted")

// ErrUsage is returned for unknown or malformed commands.
var ErrUsage = errors.New("usage")

// RunCommand handles the runs subcommands against the catalog at dbPath,
// writing human-readable output to w.
func RunCommand(args []string, dbPath string, fsys fsutil.FileSystem, w io.Writer) error {
	if len(args) < 1 {
		PrintHelp(w)
		return ErrUsage
	}

	db, err := Open(dbPath)
	if err != nil {
		return fmt.Errorf("open catalog %s: %w", dbPath, err)
	}
	defer db.Close()

	switch args[0] {
	case "list":
		limit := 20
		if len(args) > 1 {
			if limit, err = strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("%w: list [limit]: %v", ErrUsage, err)
			}
		}
		return handleList(db, w, limit)

	case "show":
		if len(args) < 2 {
			return fmt.Errorf("%w: show <run-id>", ErrUsage)
		}
		return handleShow(db, w, args[1])

	case "verify":
		if len(args) < 2 {
			return fmt.Errorf("%w: verify <run-id>", ErrUsage)
		}
		return handleVerify(db, fsys, w, args[1])

	case "status":
		version, dirty, err := db.MigrateVersion()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "schema version: %d (dirty: %v)\n", version, dirty)
		return nil

	case "help":
		PrintHelp(w)
		return nil

	default:
		fmt.Fprintf(w, "Unknown runs command: %s\n\n", args[0])
		PrintHelp(w)
		return ErrUsage
	}
}

func handleList(db *DB, w io.Writer, limit int) error {
	runs, err := db.List(limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tTOOL\tSTARTED\tDURATION\tSTATUS\tITEMS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			r.ID, r.Tool, r.StartedAt.Format(time.RFC3339), duration(r), r.Status, r.ItemCount)
	}
	return tw.Flush()
}

func handleShow(db *DB, w io.Writer, runID string) error {
	r, err := db.Get(runID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "run:      %s\n", r.ID)
	fmt.Fprintf(w, "tool:     %s (%s)\n", r.Tool, r.Version)
	fmt.Fprintf(w, "started:  %s\n", r.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "duration: %s\n", duration(*r))
	fmt.Fprintf(w, "status:   %s\n", r.Status)
	if r.Error != "" {
		fmt.Fprintf(w, "error:    %s\n", r.Error)
	}
	fmt.Fprintf(w, "items:    %d\n", r.ItemCount)

	keys := make([]string, 0, len(r.Params))
	for k := range r.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintln(w, "params:")
	for _, k := range keys {
		fmt.Fprintf(w, "  -%s=%s\n", k, r.Params[k])
	}
	fmt.Fprintln(w, "outputs:")
	for _, o := range r.Outputs {
		fmt.Fprintf(w, "  %s  %10d  %s\n", o.SHA256[:12], o.Size, o.Path)
	}
	return nil
}

func handleVerify(db *DB, fsys fsutil.FileSystem, w io.Writer, runID string) error {
	drift, err := db.Verify(fsys, runID)
	if err != nil {
		return err
	}
	if len(drift) == 0 {
		fmt.Fprintf(w, "run %s: all outputs match\n", runID)
		return nil
	}
	for _, d := range drift {
		fmt.Fprintln(w, d.String())
	}
	return fmt.Errorf("%w: %d output(s) of run %s", ErrDrift, len(drift), runID)
}

func duration(r Run) string {
	if r.FinishedAt == nil {
		return "-"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
}

// PrintHelp writes the runs command usage.
func PrintHelp(w io.Writer) {
	fmt.Fprintln(w, strings.TrimLeft(`
Run Catalog Commands

Usage: runs -catalog <db> <command> [options]

Commands:
  list [N]        Show the N most recent runs (default 20, 0 for all)
  show <run-id>   Show a run's parameters and outputs
  verify <run-id> Re-hash a run's outputs and report drift
  status          Show the catalog schema version
  help            Show this help message

Examples:
  runs -catalog pipeline.db list
  runs -catalog pipeline.db verify 3f2c9a1e-...`, "\n"))
}
