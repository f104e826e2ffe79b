package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/weftconf/weft/packages/core/parser"
	"github.com/weftconf/weft/packages/core/source"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var watchCmd = &cobra.Command{
	Use:   "watch <file|directory>...",
	Short: "Re-validate files whenever they change",
	Long: `Validate the given files, then keep watching them and re-validate on
every change. Included files count too: editing a file that another
configuration pulls in triggers a re-check.

Examples:
  weft watch app.conf
  weft watch ./conf/`,
	Args: usage(cobra.MinimumNArgs(1)),
	RunE: watchCommand,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func watchCommand(cmd *cobra.Command, args []string) error {
	s, err := effectiveSettings(cmd)
	if err != nil {
		return err
	}

	// Track every local file a parse touches, includes and all, so the
	// watcher can cover them. The debounced re-check runs off the event
	// loop, hence the lock.
	var mu sync.Mutex
	seen := make(map[string]bool)
	p, err := buildParser(s, parser.WithSourceObserver(func(loc source.Location) {
		if loc.IsRemote() {
			return
		}
		mu.Lock()
		seen[filepath.Clean(loc.Path)] = true
		mu.Unlock()
	}))
	if err != nil {
		return err
	}

	files, err := collectFiles(args, s.Extensions)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s files found", strings.Join(s.Extensions, " or "))
	}

	runChecks := func() {
		formatter := newFormatter("console", s.GetNoColor(), nil)
		_, duration := checkFiles(cmd.Context(), p, files, formatter)
		if flushable, ok := formatter.(Flushable); ok {
			_ = flushable.Flush(duration)
		}
	}

	isWatched := func(name string) bool {
		mu.Lock()
		defer mu.Unlock()
		return seen[filepath.Clean(name)]
	}

	runChecks()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch parent directories rather than the files themselves, so
	// editors that replace files on save keep triggering events. Each
	// directory is tried once; a failure is reported, not retried.
	watchedDirs := make(map[string]bool)
	addDir := func(dir string) {
		mu.Lock()
		defer mu.Unlock()
		if watchedDirs[dir] {
			return
		}
		watchedDirs[dir] = true
		if err := watcher.Add(dir); err != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "failed to watch %s: %v\n", dir, err)
		}
	}
	addWatches := func() {
		mu.Lock()
		paths := make([]string, 0, len(seen))
		for path := range seen {
			paths = append(paths, path)
		}
		mu.Unlock()

		for _, path := range paths {
			addDir(filepath.Dir(path))
		}
	}
	addWatches()

	// Also watch the original args if they're directories
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			_ = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if info.IsDir() {
					addDir(path)
				}
				return nil
			})
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")

	// Debounce timer for rapid file changes
	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Write) && (isWatched(event.Name) || hasExtension(event.Name, s.Extensions)) {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
					fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\n\n", event.Name)
					runChecks()
					addWatches()
					fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.OutOrStderr(), "watcher error: %v\n", err)
		}
	}
}
