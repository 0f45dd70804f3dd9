package bootstrap

import (
	"github.com/halo-dev/halo/config"
	"github.com/halo-dev/halo/di"
	"github.com/halo-dev/halo/logger"
)

// watchConfig registers a config watcher on c that restarts the
// application when a file in the search path changes.
func (b *Bootstrapper) watchConfig(c *Container) error {
	lc := config.NewLoaderConfig(b.opts.loaderOpts...)
	w := config.NewWatcher(lc.WatchLocations(), func(path string) {
		h := b.Restart()
		c.Logger.Info("Restart requested by configuration change", map[string]interface{}{
			logger.FieldPath:      path,
			logger.FieldRestartID: h.ID(),
		})
	}, c.Logger)
	if b.opts.watchDebounce > 0 {
		w.SetDebounce(b.opts.watchDebounce)
	}

	if err := c.RegisterComponent(w); err != nil {
		return err
	}
	return c.DI.RegisterSingleton(di.Names.ConfigWatcher, w)
}
