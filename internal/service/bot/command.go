package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkozyrev/cavewatch/internal/config"
	"github.com/dkozyrev/cavewatch/internal/gateway"
	"github.com/dkozyrev/cavewatch/internal/logger"
	"github.com/dkozyrev/cavewatch/internal/repository/chats"
	"github.com/dkozyrev/cavewatch/internal/repository/forms"
	"github.com/dkozyrev/cavewatch/internal/service/monitor"
	"github.com/dkozyrev/cavewatch/internal/service/tracker"
)

// Options controls the bot process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
}

// Run wires the services together and drives the event loop until the
// context is canceled.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "cavewatch")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	tg, err := gateway.NewTelegram(cfg.Token, gateway.WithSendTimeout(cfg.SendTimeout))
	if err != nil {
		return fmt.Errorf("connect to Telegram: %w", err)
	}

	repo := forms.NewFileRepository(cfg.FormsFile, cfg.JournalFile)

	tr, err := tracker.NewService(ctx, repo, tg, cfg)
	if err != nil {
		return fmt.Errorf("initialise tracker: %w", err)
	}

	s := &service{
		cfg:       cfg,
		tg:        tg,
		tracker:   tr,
		monitor:   monitor.NewService(tr, tg, cfg.AlarmChatID, cfg.Location()),
		directory: chats.NewFileDirectory(cfg.ChatsFile),
		known:     make(map[int64]string),
	}

	known, err := s.directory.Load(ctx)

	switch {
	case err == nil:
		if known != nil {
			s.known = known
		}
	case errors.Is(err, chats.ErrNotFound):
		// First run, keep the empty directory.
	default:
		return fmt.Errorf("load chat directory: %w", err)
	}

	logger.InfoKV(ctx, "Bot started",
		"username", tg.Username(),
		"sweep_interval", cfg.SweepInterval.String(),
		"summary_interval", cfg.SummaryInterval.String())

	return s.loop(ctx)
}

// service holds the wired dependencies of the running bot.
type service struct {
	cfg       *config.Config
	tg        *gateway.Telegram
	tracker   *tracker.Service
	monitor   *monitor.Service
	directory chats.Directory
	// known is the in-memory chat directory mirror.
	known map[int64]string
}

// loop multiplexes inbound updates and the two periodic tasks on a single
// goroutine. At most one logical task runs at a time, which is what keeps
// the shared form map consistent without locking across tasks; a slow
// outbound send therefore delays the next tick, so the cadences are lower
// bounds, not exact periods.
func (s *service) loop(ctx context.Context) error {
	updates := s.tg.Updates()

	sweep := time.NewTicker(s.cfg.SweepInterval)
	defer sweep.Stop()

	summary := time.NewTicker(s.cfg.SummaryInterval)
	defer summary.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, stopping bot")
			s.tg.StopUpdates()

			return nil
		case update := <-updates:
			s.handleUpdate(ctx, update)
		case <-sweep.C:
			s.monitor.Sweep(ctx)
		case <-summary.C:
			s.monitor.Broadcast(ctx)
		}
	}
}
