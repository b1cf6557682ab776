package cmd

import (
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/PrimozLavric/LogiPathTracer/asset/reader"
	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli"
)

// Editors often emit several events per save.
const reloadDebounce = 200 * time.Millisecond

// Convert a scene and convert it again whenever one of its files changes.
func WatchScene(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}
	sceneFile := ctx.Args().First()

	r, dev, err := newRenderer(ctx)
	if err != nil {
		return err
	}
	defer dev.Close()
	defer r.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// The first read must succeed so there is something to watch.
	sc, files, err := reader.Load(sceneFile)
	if err != nil {
		return err
	}
	watchFiles(watcher, files)
	if err = convert(r, sc); err != nil {
		logger.Errorf("converting scene: %v", err)
	}
	logger.Noticef("watching %d file(s) for changes; press ctrl+c to exit", len(files))

	reload := func() {
		sc, files, err := reader.Load(sceneFile)
		if err != nil {
			logger.Errorf("reading scene: %v", err)
			return
		}
		watchFiles(watcher, files)
		if err = convert(r, sc); err != nil {
			logger.Errorf("converting scene: %v", err)
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	var debounce <-chan time.Time
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			logger.Infof("detected change in %s", ev.Name)
			debounce = time.After(reloadDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warningf("watcher: %v", err)
		case <-debounce:
			debounce = nil
			logger.Notice("reloading scene")
			reload()
		case <-interrupt:
			return nil
		}
	}
}

// Sync the watch list with files. Editors that save by renaming replace the
// watched inode, so every file is re-added after each reload.
func watchFiles(watcher *fsnotify.Watcher, files []string) {
	keep := make(map[string]bool, len(files))
	for _, f := range files {
		keep[f] = true
		if err := watcher.Add(f); err != nil {
			logger.Warningf("could not watch %s: %v", f, err)
		}
	}
	for _, f := range watcher.WatchList() {
		if !keep[f] {
			_ = watcher.Remove(f)
		}
	}
}
