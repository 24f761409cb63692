// Package persona models the assistant's evolving personality: bounded
// trait scalars nudged by tagged interaction events, decaying mood factors
// and the response styling they drive.
package persona

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// significanceEpsilon separates real evolution from float noise; only
	// changes above it are recorded as events.
	significanceEpsilon = 0.001
	maxEvents           = 100
	moodDecayStep       = 0.01
	moodFloor           = 0.1
	moodCeiling         = 1.0
)

// Engine owns the trait set and mood factors for one user. Not safe to share
// across users; multi-user deployments get one Engine per session.
type Engine struct {
	mu     sync.Mutex
	def    *Definition
	traits []Trait
	index  map[string]int
	mood   map[string]float64
	axes   []string
	events []Event
	rng    *rand.Rand
	now    func() time.Time
}

// New builds an Engine from a definition. The rand source is injected so
// tests can pin phrase selection and evolution deltas.
func New(def *Definition, rng *rand.Rand) (*Engine, error) {
	if def == nil {
		return nil, fmt.Errorf("persona definition is nil")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	e := &Engine{
		def:   def,
		index: make(map[string]int, len(def.Traits)),
		mood:  make(map[string]float64, len(def.Mood)),
		rng:   rng,
		now:   time.Now,
	}
	for i, t := range def.Traits {
		e.traits = append(e.traits, Trait{
			Name:          t.Name,
			Value:         clamp01(t.Base),
			BaseValue:     clamp01(t.Base),
			EvolutionRate: t.Rate,
			LastUpdated:   e.now(),
			Influences:    append([]string(nil), t.Influences...),
		})
		e.index[t.Name] = i
	}
	for _, m := range def.Mood {
		e.axes = append(e.axes, m.Name)
		e.mood[m.Name] = clampMood(m.Base)
	}
	return e, nil
}

// Evolve applies one tagged interaction event: the tag's trait adjustments
// (scaled by evolution rate and a uniform 0.5..1.5 factor, clamped to [0,1])
// followed by the mood update. Decay runs on every event, boosted or not.
func (e *Engine) Evolve(tag string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, adj := range e.def.Adjustments[tag] {
		i, ok := e.index[adj.Trait]
		if !ok {
			continue
		}
		trait := &e.traits[i]
		delta := adj.Delta * trait.EvolutionRate * (0.5 + e.rng.Float64())
		before := trait.Value
		trait.Value = clamp01(trait.Value + delta)
		trait.LastUpdated = e.now()

		change := trait.Value - before
		if change > significanceEpsilon || change < -significanceEpsilon {
			e.appendEvent(Event{
				Tag:       tag,
				Trait:     trait.Name,
				Change:    change,
				Timestamp: trait.LastUpdated,
			})
		}
	}

	for _, boost := range e.def.Boosts[tag] {
		if current, ok := e.mood[boost.Axis]; ok {
			e.mood[boost.Axis] = min(current+boost.Amount, moodCeiling)
		}
	}
	for _, axis := range e.axes {
		e.mood[axis] = max(e.mood[axis]-moodDecayStep, moodFloor)
	}
}

func (e *Engine) appendEvent(ev Event) {
	e.events = append(e.events, ev)
	if len(e.events) > maxEvents {
		e.events = e.events[len(e.events)-maxEvents:]
	}
}

// Style runs the per-trait phrase gates over a composed response. Gates fire
// independently, each with probability scale*value; append order follows the
// styling declaration order, not chance. The empathy-style gates only fire
// when the response itself carries an emotionally loaded keyword.
func (e *Engine) Style(response string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	responseLower := strings.ToLower(response)
	for _, style := range e.def.Styling {
		i, ok := e.index[style.Trait]
		if !ok || len(style.Phrases) == 0 {
			continue
		}
		if style.EmotionalOnly && !containsAny(responseLower, e.def.EmotionalKeywords) {
			continue
		}
		probability := style.Scale * e.traits[i].Value
		if e.rng.Float64() < probability {
			response += style.Phrases[e.rng.Intn(len(style.Phrases))]
		}
	}
	return response
}

// DominantTraits returns the top n traits by value, descending. Ties keep
// declaration order.
func (e *Engine) DominantTraits(n int) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	ordered := make([]Trait, len(e.traits))
	copy(ordered, e.traits)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Value > ordered[j].Value
	})

	if n > len(ordered) {
		n = len(ordered)
	}
	names := make([]string, 0, n)
	for _, t := range ordered[:n] {
		names = append(names, t.Name)
	}
	return names
}

// TraitValue reports a trait's current value; ok is false for unknown names.
func (e *Engine) TraitValue(name string) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.index[name]
	if !ok {
		return 0, false
	}
	return e.traits[i].Value, true
}

// ResetTrait returns a trait to its base value. Traits are never deleted.
func (e *Engine) ResetTrait(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.index[name]
	if !ok {
		return false
	}
	e.traits[i].Value = e.traits[i].BaseValue
	e.traits[i].LastUpdated = e.now()
	return true
}

// MoodDescription derives a short human label from the mood axes.
func (e *Engine) MoodDescription() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.moodDescriptionLocked()
}

// MoodFactors returns a copy of the current mood axis values.
func (e *Engine) MoodFactors() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]float64, len(e.mood))
	for k, v := range e.mood {
		out[k] = v
	}
	return out
}

// Summarize builds the status view used by the CLI.
func (e *Engine) Summarize() Summary {
	dominant := e.DominantTraits(3)

	e.mu.Lock()
	defer e.mu.Unlock()
	values := make(map[string]float64, len(e.traits))
	for _, t := range e.traits {
		values[t.Name] = t.Value
	}
	return Summary{
		Mood:            e.moodDescriptionLocked(),
		DominantTraits:  dominant,
		TraitValues:     values,
		EvolutionEvents: len(e.events),
	}
}

func (e *Engine) moodDescriptionLocked() string {
	happiness := e.mood["happiness"]
	energy := e.mood["energy"]
	sociability := e.mood["sociability"]
	switch {
	case happiness >= 0.7 && energy >= 0.6:
		return "bubbly and energetic"
	case happiness >= 0.7:
		return "content and relaxed"
	case energy >= 0.7:
		return "restless but upbeat"
	case sociability >= 0.6:
		return "chatty and attentive"
	case happiness <= 0.25 && energy <= 0.25:
		return "quiet and low-key"
	default:
		return "calm and curious"
	}
}

// Events returns a copy of the recent evolution events, oldest first.
func (e *Engine) Events() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Event, len(e.events))
	copy(out, e.events)
	return out
}

// Save writes the trait and mood state as a JSON snapshot.
func (e *Engine) Save(path string) error {
	e.mu.Lock()
	snap := Snapshot{
		Traits:  make([]Trait, len(e.traits)),
		Mood:    make(map[string]float64, len(e.mood)),
		SavedAt: e.now(),
	}
	copy(snap.Traits, e.traits)
	for k, v := range e.mood {
		snap.Mood[k] = v
	}
	e.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create persona state dir: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal persona snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write persona snapshot: %w", err)
	}
	return nil
}

// Restore merges a saved snapshot into the current trait set. Traits the
// definition no longer declares are dropped; a missing or malformed file is
// not an error, the engine keeps its defaults.
func (e *Engine) Restore(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read persona snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// Malformed snapshots degrade to defaults rather than failing the
		// whole startup.
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, saved := range snap.Traits {
		if i, ok := e.index[saved.Name]; ok {
			e.traits[i].Value = clamp01(saved.Value)
			e.traits[i].LastUpdated = saved.LastUpdated
		}
	}
	for axis, value := range snap.Mood {
		if _, ok := e.mood[axis]; ok {
			e.mood[axis] = clampMood(value)
		}
	}
	return nil
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampMood(v float64) float64 {
	if v < moodFloor {
		return moodFloor
	}
	if v > moodCeiling {
		return moodCeiling
	}
	return v
}
