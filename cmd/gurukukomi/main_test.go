package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/isidman/gurukukomi/internal/config"
	"github.com/isidman/gurukukomi/internal/search"
)

type scriptedProvider struct {
	results []search.ProviderResult
}

func (p *scriptedProvider) Search(_ context.Context, _ string, _ int) ([]search.ProviderResult, error) {
	return p.results, nil
}

func chatConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DataDir = dir
	cfg.Memory.DBPath = filepath.Join(dir, "memory.db")
	cfg.Research.DBPath = filepath.Join(dir, "research.db")
	cfg.Persona.SnapshotPath = filepath.Join(dir, "persona_state.json")
	return cfg
}

func runScript(t *testing.T, provider search.Provider, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	err := runChatWithOptions(ChatOptions{
		Stdin:    strings.NewReader(strings.Join(lines, "\n") + "\n"),
		Stdout:   &out,
		Provider: provider,
		Config:   chatConfig(t),
	})
	if err != nil {
		t.Fatalf("chat loop error: %v", err)
	}
	return out.String()
}

func TestChat_Quit(t *testing.T) {
	out := runScript(t, &scriptedProvider{}, "/quit")
	if !strings.Contains(out, "Goodbye") {
		t.Errorf("missing goodbye:\n%s", out)
	}
}

func TestChat_HelpAndSmallTalk(t *testing.T) {
	out := runScript(t, &scriptedProvider{}, "/help", "hello", "/quit")
	if !strings.Contains(out, "/stats") {
		t.Errorf("help output missing commands:\n%s", out)
	}
	if !strings.Contains(out, "Gurukukomi") {
		t.Errorf("missing introduction:\n%s", out)
	}
}

func TestChat_SaveConsentFlow(t *testing.T) {
	provider := &scriptedProvider{results: []search.ProviderResult{
		{Title: "Goroutines", URL: "https://go.dev/tour", Snippet: "A goroutine is a lightweight thread that provides cheap concurrency managed by the runtime scheduler."},
	}}
	out := runScript(t, provider,
		"tell me about goroutines",
		"yes",
		"/saved",
		"/quit")

	if !strings.Contains(out, "Would you like me to save this research") {
		t.Fatalf("save prompt never shown:\n%s", out)
	}
	if !strings.Contains(out, "saved the research") {
		t.Errorf("consent answer not processed:\n%s", out)
	}
	if !strings.Contains(out, "Total saved: 1 searches on 1 topics") {
		t.Errorf("saved listing wrong:\n%s", out)
	}
}

func TestChat_RememberFlow(t *testing.T) {
	out := runScript(t, &scriptedProvider{},
		"remember favorite color: blue",
		"yes",
		"/memory",
		"/quit")

	if !strings.Contains(out, "favorite color: blue") {
		t.Errorf("memory listing missing stored fact:\n%s", out)
	}
}

func TestChat_PersonalityCommand(t *testing.T) {
	out := runScript(t, &scriptedProvider{}, "/personality", "/quit")
	if !strings.Contains(out, "Current mood:") {
		t.Errorf("personality output missing mood:\n%s", out)
	}
}
