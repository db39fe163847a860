package cmd

import (
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/ZacxDev/hotel-site/logging"
	"github.com/ZacxDev/hotel-site/variants"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const regenerateDebounce = 300 * time.Millisecond

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Regenerate the variant key list and manifest from the content directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, manifest, err := loadSiteManifest()
		if err != nil {
			return err
		}
		opts := manifest.GenerateOptions(root)
		opts.Logger = moduleLogger(logging.VariantsModule)

		if _, err := variants.Generate(opts); err != nil {
			return err
		}

		watch, _ := cmd.Flags().GetBool("watch")
		if !watch {
			return nil
		}
		return watchContent(cmd, opts)
	},
}

// debouncer runs fn once a burst of triggers has been quiet for delay.
// Runs never overlap: a trigger that fires while fn is still running waits
// for it to finish.
type debouncer struct {
	delay time.Duration
	fn    func()

	mu    sync.Mutex
	timer *time.Timer
	run   sync.Mutex
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *debouncer) fire() {
	d.run.Lock()
	defer d.run.Unlock()
	d.fn()
}

// Stop cancels a pending run and waits for a running one.
func (d *debouncer) Stop() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	d.run.Lock()
	d.run.Unlock()
}

// watchContent regenerates the manifest whenever a variant file changes.
func watchContent(cmd *cobra.Command, opts variants.GenerateOptions) error {
	logger := opts.Logger
	dir := filepath.Join(opts.Root, filepath.FromSlash(opts.ContentDir))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create file watcher")
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return errors.Wrapf(err, "watch %s", dir)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	regenerate := newDebouncer(regenerateDebounce, func() {
		if _, err := variants.Generate(opts); err != nil {
			logger.Error("variants.watch.generate_failed", "error", err)
		}
	})
	defer regenerate.Stop()

	logger.Info("variants.watch.started", "dir", dir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("variants.watch.change", "file", event.Name, "op", event.Op.String())
			regenerate.Trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("variants.watch.error", "error", err)
		}
	}
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().BoolP("watch", "w", false, "Keep running and regenerate when variant files change")
}
