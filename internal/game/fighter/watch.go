package fighter

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDebounce is the quiet period after the last file event before the
// roster reloads. Editors often emit several events per save.
const reloadDebounce = 100 * time.Millisecond

// Watcher reloads a DirRoster whenever a fighter file in its directory changes.
type Watcher struct {
	roster  *DirRoster
	logger  *zap.Logger
	watcher *fsnotify.Watcher
	closeCh chan struct{}
	once    sync.Once

	// Reloaded receives the fighter count after each successful reload.
	// Sends are non-blocking; a full channel drops the notification.
	Reloaded chan int
}

// NewWatcher starts watching roster's directory.
//
// Precondition: roster and logger must be non-nil.
// Postcondition: Returns a Watcher ready for Start, or an error if the directory cannot be watched.
func NewWatcher(roster *DirRoster, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(roster.Dir()); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return &Watcher{
		roster:   roster,
		logger:   logger,
		watcher:  fw,
		closeCh:  make(chan struct{}),
		Reloaded: make(chan int, 1),
	}, nil
}

// Start processes file events until Stop is called. It blocks.
// Bursts of events are coalesced: the roster reloads once the directory has
// been quiet for reloadDebounce.
//
// Postcondition: Returns nil after Stop.
func (w *Watcher) Start() error {
	quiet := time.NewTimer(reloadDebounce)
	quiet.Stop()
	defer quiet.Stop()

	var trigger string
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !isRosterFile(event.Name) {
				continue
			}
			trigger = event.Name
			quiet.Reset(reloadDebounce)
		case <-quiet.C:
			w.reload(trigger)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("roster watcher error", zap.Error(err))
		case <-w.closeCh:
			return nil
		}
	}
}

func (w *Watcher) reload(trigger string) {
	start := time.Now()
	n, err := w.roster.Reload()
	if err != nil {
		w.logger.Warn("roster reload failed; keeping previous roster",
			zap.String("file", trigger),
			zap.Error(err),
		)
		return
	}
	w.logger.Info("roster reloaded",
		zap.String("file", trigger),
		zap.Int("fighters", n),
		zap.Duration("elapsed", time.Since(start)),
	)
	select {
	case w.Reloaded <- n:
	default:
	}
}

// Stop ends Start and releases the underlying watcher. Safe to call multiple times.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.closeCh)
		_ = w.watcher.Close()
	})
}
