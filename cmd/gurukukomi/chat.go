package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/isidman/gurukukomi/internal/brain"
	"github.com/isidman/gurukukomi/internal/config"
	"github.com/isidman/gurukukomi/internal/memory"
	"github.com/isidman/gurukukomi/internal/persona"
	"github.com/isidman/gurukukomi/internal/research"
	"github.com/isidman/gurukukomi/internal/search"
	"github.com/spf13/cobra"
)

const chatSession = "cli:local"

// ChatOptions carries injectable dependencies for testing the REPL.
type ChatOptions struct {
	Stdin    io.Reader
	Stdout   io.Writer
	Provider search.Provider
	Config   *config.Config
}

func runChat(cmd *cobra.Command, args []string) error {
	return runChatWithOptions(ChatOptions{})
}

type chatUI struct {
	out      io.Writer
	brain    *brain.Brain
	memStore *memory.Store
	resStore *research.Store
	persona  *persona.Engine
	snapshot string
}

func runChatWithOptions(opts ChatOptions) error {
	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	memStore, err := memory.NewStore(cfg.Memory.DBPath)
	if err != nil {
		return fmt.Errorf("open memory store: %w", err)
	}
	defer memStore.Close()

	resStore, err := research.NewStore(cfg.Research.DBPath)
	if err != nil {
		return fmt.Errorf("open research store: %w", err)
	}
	defer resStore.Close()

	def, err := persona.LoadDefinition(cfg.Persona.DefinitionPath)
	if err != nil {
		log.Printf("[chat] persona definition warning, using defaults: %v", err)
		if def, err = persona.LoadDefinition(""); err != nil {
			return fmt.Errorf("load persona definition: %w", err)
		}
	}
	eng, err := persona.New(def, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		return fmt.Errorf("create persona engine: %w", err)
	}
	if err := eng.Restore(cfg.Persona.SnapshotPath); err != nil {
		log.Printf("[chat] persona restore warning: %v", err)
	}

	provider := opts.Provider
	if provider == nil {
		provider = search.NewDuckDuckGo(&search.DuckDuckGoOptions{
			Timeout: time.Duration(cfg.Search.TimeoutSeconds) * time.Second,
		})
	}

	b := brain.New(brain.Options{
		Memory:          memStore,
		Research:        resStore,
		Persona:         eng,
		Provider:        provider,
		MaxQueries:      cfg.Search.MaxQueries,
		ResultsPerQuery: cfg.Search.ResultsPerQuery,
		MaxSources:      cfg.Search.MaxSources,
	})

	s := &chatUI{
		out:      stdout,
		brain:    b,
		memStore: memStore,
		resStore: resStore,
		persona:  eng,
		snapshot: cfg.Persona.SnapshotPath,
	}
	return s.loop(stdin)
}

func (s *chatUI) loop(stdin io.Reader) error {
	defer func() {
		if err := s.persona.Save(s.snapshot); err != nil {
			log.Printf("[chat] persona snapshot warning: %v", err)
		}
	}()

	fmt.Fprintln(s.out, s.brain.Introduce())
	fmt.Fprintln(s.out, "Type '/help' for commands, '/quit' to exit.")

	ctx := context.Background()
	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(s.out, "\n> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out, "\nChat ended. Bye, bye!")
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if handled, quit := s.handleCommand(input); quit {
			fmt.Fprintln(s.out, "Goodbye! Thanks for chatting with Gurukukomi!")
			return nil
		} else if handled {
			continue
		}

		var reply string
		switch {
		case s.brain.PendingSave(chatSession):
			reply = s.brain.ProcessSaveConsent(chatSession, input)
		case s.brain.PendingMemory(chatSession):
			reply = s.brain.ProcessMemoryConsent(chatSession, input)
		default:
			reply = s.brain.Think(ctx, chatSession, input)
		}
		fmt.Fprintln(s.out, "\n"+reply)
	}
}

// handleCommand intercepts special commands. It reports whether the input
// was a command and whether the loop should exit.
func (s *chatUI) handleCommand(input string) (handled, quit bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "/quit", "/exit", "quit", "exit", "goodbye", "bye":
		return true, true
	case "/help", "help", "commands":
		s.printHelp()
	case "/stats", "stats":
		s.printStats()
	case "/memory", "memory":
		s.printMemory()
	case "/personality", "personality":
		s.printPersonality()
	case "/saved", "saved":
		s.printSaved()
	default:
		return false, false
	}
	return true, false
}

func (s *chatUI) printHelp() {
	fmt.Fprintln(s.out, "\nAVAILABLE COMMANDS:")
	fmt.Fprintln(s.out, "  just type normally to chat")
	fmt.Fprintln(s.out, "  /help        - show this help")
	fmt.Fprintln(s.out, "  /quit        - exit the chat")
	fmt.Fprintln(s.out, "  /stats       - show conversation stats")
	fmt.Fprintln(s.out, "  /memory      - show what I remember")
	fmt.Fprintln(s.out, "  /personality - show my current mood")
	fmt.Fprintln(s.out, "  /saved       - show saved research topics")
	fmt.Fprintln(s.out, "\n  remember <key>: <value>  - ask me to remember a fact")
	fmt.Fprintln(s.out, "  forget <key>             - make me forget it")
}

func (s *chatUI) printStats() {
	fmt.Fprintln(s.out, "\nCONVERSATION STATS:")
	fmt.Fprintf(s.out, "  Conversations this session: %d\n", s.brain.ConversationCount(chatSession))

	if stats, err := s.memStore.Stats(chatSession); err == nil {
		fmt.Fprintf(s.out, "  Memories stored: %d\n", stats.MemoriesStored)
		fmt.Fprintf(s.out, "  Conversations today: %d\n", stats.ConversationsToday)
	} else {
		fmt.Fprintf(s.out, "  Memory stats unavailable: %v\n", err)
	}

	summary := s.persona.Summarize()
	if len(summary.DominantTraits) > 0 {
		fmt.Fprintf(s.out, "  Top personality traits: %s\n", strings.Join(summary.DominantTraits, ", "))
	}

	if stats, err := s.resStore.Stats(); err == nil {
		fmt.Fprintf(s.out, "  Saved searches: %d\n", stats.SavedSearches)
		fmt.Fprintf(s.out, "  Unique topics: %d\n", stats.UniqueTopics)
	} else {
		fmt.Fprintf(s.out, "  Search stats unavailable: %v\n", err)
	}
}

func (s *chatUI) printMemory() {
	fmt.Fprintln(s.out, "\nMEMORY INFO:")

	memories, err := s.memStore.Memories(chatSession, 0)
	if err != nil {
		fmt.Fprintf(s.out, "  Error accessing memories: %v\n", err)
		return
	}
	if len(memories) == 0 {
		fmt.Fprintln(s.out, "  No memories stored yet!")
		fmt.Fprintln(s.out, "  I only remember things you explicitly ask me to remember!")
		return
	}

	fmt.Fprintf(s.out, "  I remember %d things about you:\n", len(memories))
	start := 0
	if len(memories) > 5 {
		start = len(memories) - 5
	}
	for _, m := range memories[start:] {
		fmt.Fprintf(s.out, "  - %s: %s\n", m.Key, m.Value)
	}
	if start > 0 {
		fmt.Fprintf(s.out, "  ... and %d more things\n", start)
	}
}

func (s *chatUI) printPersonality() {
	fmt.Fprintln(s.out, "\nPERSONALITY INFO:")

	summary := s.persona.Summarize()
	fmt.Fprintf(s.out, "  Current mood: %s\n", summary.Mood)
	fmt.Fprintln(s.out, "  Top traits:")
	for _, name := range summary.DominantTraits {
		fmt.Fprintf(s.out, "  - %s: %d%%\n", titleCase(name), int(summary.TraitValues[name]*100))
	}
	fmt.Fprintf(s.out, "  Personality has evolved %d times\n", summary.EvolutionEvents)
}

func (s *chatUI) printSaved() {
	fmt.Fprintln(s.out, "\nSAVED RESEARCH:")

	stats, err := s.resStore.Stats()
	if err != nil {
		fmt.Fprintf(s.out, "  Error accessing saved research: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "  Total saved: %d searches on %d topics\n", stats.SavedSearches, stats.UniqueTopics)
	fmt.Fprintf(s.out, "  Total accessed: %d times\n", stats.TotalAccessCount)

	topics, err := s.resStore.SavedTopics()
	if err != nil {
		fmt.Fprintf(s.out, "  Error listing topics: %v\n", err)
		return
	}
	if len(topics) == 0 {
		fmt.Fprintln(s.out, "  No saved research yet.")
		fmt.Fprintln(s.out, "  Ask me questions and choose to save the results!")
		return
	}
	if len(topics) > 10 {
		topics = topics[:10]
	}
	for _, ti := range topics {
		name := ti.Topic
		if len(name) > 40 {
			name = name[:40]
		}
		fmt.Fprintf(s.out, "  - %s (accessed %d times)\n", name, ti.TotalAccess)
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
