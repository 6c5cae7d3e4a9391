package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/compiler"
	"github.com/Carmen-Shannon/oxy-animgraph/engine/animation/graph"
)

// compileResult is the outcome of compiling one asset file.
type compileResult struct {
	path  string
	graph *graph.Graph
	err   error
}

func newCompileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <file>...",
		Short: "Validate and compile animation graph assets",
		Long: `Compiles every given asset file and prints one summary line per file.
With --assign-ids, clip nodes without a config id receive one and the file is rewritten.
With --watch, files are recompiled whenever they change until interrupted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, _ := cmd.Flags().GetInt("jobs")
			assignIDs, _ := cmd.Flags().GetBool("assign-ids")
			watch, _ := cmd.Flags().GetBool("watch")

			c := compiler.NewCompiler(compiler.WithLogger(a.logger))
			results := compileFiles(cmd.Context(), c, args, jobs, assignIDs)
			err := printResults(cmd.OutOrStdout(), results)
			if !watch {
				return err
			}
			return watchFiles(cmd.Context(), a, c, args, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntP("jobs", "j", runtime.NumCPU(), "Number of files compiled concurrently")
	cmd.Flags().Bool("assign-ids", false, "Assign missing clip config ids and rewrite the files")
	cmd.Flags().BoolP("watch", "w", false, "Recompile files when they change")
	return cmd
}

// compileFiles compiles paths concurrently, at most jobs at a time. Results keep the
// order of paths; a failing file does not stop the others.
func compileFiles(ctx context.Context, c compiler.Compiler, paths []string, jobs int, assignIDs bool) []compileResult {
	results := make([]compileResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = compileResult{path: path, err: err}
				return nil
			}
			results[i] = compileFile(c, path, assignIDs)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func compileFile(c compiler.Compiler, path string, assignIDs bool) compileResult {
	res := compileResult{path: path}

	asset, err := compiler.LoadAsset(path)
	if err != nil {
		res.err = err
		return res
	}
	res.graph, res.err = c.Compile(asset)
	if res.err != nil || !assignIDs {
		return res
	}
	// Only assets that compile are written back.
	if err := compiler.SaveAsset(path, asset); err != nil {
		res.graph, res.err = nil, err
	}
	return res
}

// printResults writes one line per result and joins the failures.
func printResults(w io.Writer, results []compileResult) error {
	var errs []error
	for _, r := range results {
		if r.err != nil {
			fmt.Fprintf(w, "FAIL %s: %v\n", r.path, r.err)
			errs = append(errs, fmt.Errorf("%s: %w", r.path, r.err))
			continue
		}
		fmt.Fprintf(w, "ok   %s: %s\n", r.path, summarize(r.graph))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d assets failed: %w", len(errs), len(results), errors.Join(errs...))
	}
	return nil
}

func summarize(g *graph.Graph) string {
	p := &g.Parameters
	return fmt.Sprintf("graph %q id %s, %d state machines, %d clips, parameters %d bool %d int %d float",
		g.Name, g.AssetID, len(g.StateMachines), len(g.Clips), len(p.Bools), len(p.Ints), len(p.Floats))
}

// watchFiles recompiles a file every time it is written until ctx is done.
// Directories are watched rather than files so editors that replace files on save
// keep being tracked.
func watchFiles(ctx context.Context, a *app, c compiler.Compiler, paths []string, w io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	tracked := map[string]string{}
	dirs := map[string]bool{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		tracked[abs] = p
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	a.logger.Info("watching assets", "files", len(tracked), "dirs", len(dirs))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("watcher error", "error", err)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			path, ok := tracked[filepath.Clean(ev.Name)]
			if !ok {
				continue
			}
			_ = printResults(w, []compileResult{compileFile(c, path, false)})
		}
	}
}
