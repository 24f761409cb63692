// Package gateway assembles the running companion: stores, persona, search,
// brain, scheduled jobs and chat channels, all talking over the message bus.
package gateway

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/isidman/gurukukomi/internal/brain"
	"github.com/isidman/gurukukomi/internal/bus"
	"github.com/isidman/gurukukomi/internal/channel"
	"github.com/isidman/gurukukomi/internal/config"
	"github.com/isidman/gurukukomi/internal/cron"
	"github.com/isidman/gurukukomi/internal/memory"
	"github.com/isidman/gurukukomi/internal/persona"
	"github.com/isidman/gurukukomi/internal/research"
	"github.com/isidman/gurukukomi/internal/search"
)

// Options for creating a Gateway
type Options struct {
	Provider   search.Provider // overrides the DuckDuckGo client in tests
	SignalChan chan os.Signal  // for testing signal handling
}

type Gateway struct {
	cfg        *config.Config
	bus        *bus.MessageBus
	brain      *brain.Brain
	memStore   *memory.Store
	resStore   *research.Store
	persona    *persona.Engine
	channels   *channel.ChannelManager
	cron       *cron.Service
	signalChan chan os.Signal
}

// New creates a Gateway with default options
func New(cfg *config.Config) (*Gateway, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions creates a Gateway with custom options for testing
func NewWithOptions(cfg *config.Config, opts Options) (*Gateway, error) {
	g := &Gateway{cfg: cfg}

	g.bus = bus.NewMessageBus(config.DefaultBufSize)

	memStore, err := memory.NewStore(cfg.Memory.DBPath)
	if err != nil {
		return nil, fmt.Errorf("create memory store: %w", err)
	}
	g.memStore = memStore

	resStore, err := research.NewStore(cfg.Research.DBPath)
	if err != nil {
		_ = g.memStore.Close()
		return nil, fmt.Errorf("create research store: %w", err)
	}
	g.resStore = resStore

	def, err := persona.LoadDefinition(cfg.Persona.DefinitionPath)
	if err != nil {
		log.Printf("[gateway] persona definition warning, using defaults: %v", err)
		if def, err = persona.LoadDefinition(""); err != nil {
			_ = g.memStore.Close()
			_ = g.resStore.Close()
			return nil, fmt.Errorf("load persona definition: %w", err)
		}
	}
	eng, err := persona.New(def, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		_ = g.memStore.Close()
		_ = g.resStore.Close()
		return nil, fmt.Errorf("create persona engine: %w", err)
	}
	if err := eng.Restore(cfg.Persona.SnapshotPath); err != nil {
		log.Printf("[persona] restore warning: %v", err)
	}
	g.persona = eng

	provider := opts.Provider
	if provider == nil {
		provider = search.NewDuckDuckGo(&search.DuckDuckGoOptions{
			Timeout: time.Duration(cfg.Search.TimeoutSeconds) * time.Second,
		})
	}

	g.brain = brain.New(brain.Options{
		Memory:          g.memStore,
		Research:        g.resStore,
		Persona:         g.persona,
		Provider:        provider,
		MaxQueries:      cfg.Search.MaxQueries,
		ResultsPerQuery: cfg.Search.ResultsPerQuery,
		MaxSources:      cfg.Search.MaxSources,
	})

	g.signalChan = opts.SignalChan

	cronStorePath := filepath.Join(cfg.DataDir, "cron", "jobs.json")
	g.cron = cron.NewService(cronStorePath)
	g.cron.OnJob = g.handleJob

	chMgr, err := channel.NewChannelManager(cfg.Channels, cfg.Gateway, g.bus)
	if err != nil {
		_ = g.memStore.Close()
		_ = g.resStore.Close()
		return nil, fmt.Errorf("create channel manager: %w", err)
	}
	g.channels = chMgr

	return g, nil
}

// Brain exposes the assembled brain to the CLI chat loop.
func (g *Gateway) Brain() *brain.Brain {
	return g.brain
}

func (g *Gateway) handleJob(job cron.CronJob) (string, error) {
	switch job.Payload.Kind {
	case "persona-autosave":
		if err := g.persona.Save(g.cfg.Persona.SnapshotPath); err != nil {
			return "", err
		}
		return "persona snapshot saved", nil

	case "stats-report":
		return g.statsLine()

	case "notify":
		if job.Payload.Channel != "" {
			g.bus.Outbound <- bus.OutboundMessage{
				Channel: job.Payload.Channel,
				ChatID:  job.Payload.To,
				Content: job.Payload.Message,
			}
		}
		return "delivered", nil
	}
	return "", fmt.Errorf("unknown job kind %q", job.Payload.Kind)
}

func (g *Gateway) statsLine() (string, error) {
	memStats, err := g.memStore.Stats("")
	if err != nil {
		return "", err
	}
	resStats, err := g.resStore.Stats()
	if err != nil {
		return "", err
	}
	line := fmt.Sprintf("memories=%d consent_entries=%d saved_searches=%d topics=%d mood=%s",
		memStats.MemoriesStored, memStats.ConsentEntries,
		resStats.SavedSearches, resStats.UniqueTopics, g.persona.MoodDescription())
	log.Printf("[gateway] nightly stats: %s", line)
	return line, nil
}

func (g *Gateway) ensureInternalJobs() error {
	const (
		autosaveName = "__internal_persona_autosave"
		autosaveExpr = "0 */30 * * * *"
		statsName    = "__internal_nightly_stats"
		statsExpr    = "0 0 3 * * *"
	)

	if !g.cron.HasJob(autosaveName) {
		if _, err := g.cron.AddJob(autosaveName, cron.Schedule{Kind: "cron", Expr: autosaveExpr}, cron.Payload{Kind: "persona-autosave"}); err != nil {
			return err
		}
	}
	if !g.cron.HasJob(statsName) {
		if _, err := g.cron.AddJob(statsName, cron.Schedule{Kind: "cron", Expr: statsExpr}, cron.Payload{Kind: "stats-report"}); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go g.bus.DispatchOutbound(ctx)

	if err := g.channels.StartAll(ctx); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}
	log.Printf("[gateway] channels started: %v", g.channels.EnabledChannels())

	if err := g.cron.Start(ctx); err != nil {
		log.Printf("[gateway] cron start warning: %v", err)
	}
	if err := g.ensureInternalJobs(); err != nil {
		log.Printf("[gateway] ensure internal jobs warning: %v", err)
	}

	go g.processLoop(ctx)

	log.Printf("[gateway] running on %s:%d", g.cfg.Gateway.Host, g.cfg.Gateway.Port)

	sigCh := g.signalChan
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	}
	<-sigCh

	log.Printf("[gateway] shutting down...")
	return g.Shutdown()
}

// processLoop is the single consumer of inbound messages. A pending consent
// question owns the session's next message; it is answered here, never
// forwarded to a regular turn, and cleared at most once.
func (g *Gateway) processLoop(ctx context.Context) {
	for {
		select {
		case msg := <-g.bus.Inbound:
			log.Printf("[gateway] inbound from %s/%s: %s", msg.Channel, msg.SenderID, truncate(msg.Content, 80))

			session := msg.SessionKey()
			var result string
			switch {
			case g.brain.PendingSave(session):
				result = g.brain.ProcessSaveConsent(session, msg.Content)
			case g.brain.PendingMemory(session):
				result = g.brain.ProcessMemoryConsent(session, msg.Content)
			default:
				result = g.brain.Think(ctx, session, msg.Content)
			}

			if result != "" {
				g.bus.Outbound <- bus.OutboundMessage{
					Channel: msg.Channel,
					ChatID:  msg.ChatID,
					Content: result,
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (g *Gateway) Shutdown() error {
	g.cron.Stop()
	if err := g.persona.Save(g.cfg.Persona.SnapshotPath); err != nil {
		log.Printf("[gateway] persona snapshot warning: %v", err)
	}
	if err := g.memStore.Close(); err != nil {
		log.Printf("[gateway] close memory store warning: %v", err)
	}
	if err := g.resStore.Close(); err != nil {
		log.Printf("[gateway] close research store warning: %v", err)
	}
	_ = g.channels.StopAll()
	log.Printf("[gateway] shutdown complete")
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
