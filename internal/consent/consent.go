// Package consent implements the two-phase approval protocol that guards
// every durable write driven by user approval. The gate owns no data: the
// store that drives a request supplies a Recorder for the log entries and a
// persist callback for the payload.
package consent

import (
	"fmt"
	"strings"
)

type Action string

const (
	ActionRequested Action = "requested"
	ActionGranted   Action = "granted"
	ActionDeclined  Action = "declined"
	ActionForgotten Action = "forgotten"
)

type Outcome int

const (
	OutcomeUnclear Outcome = iota
	OutcomeGranted
	OutcomeDeclined
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGranted:
		return "granted"
	case OutcomeDeclined:
		return "declined"
	default:
		return "unclear"
	}
}

// Keyword sets shared by every consenting subsystem. Affirmative keywords are
// tested first; anything matching neither set stays unclear and the caller
// must re-prompt with the original request context.
var (
	affirmativeKeywords = []string{"yes", "remember", "save", "store", "keep", "sure", "okay", "ok", "allow"}
	negativeKeywords    = []string{"no", "don't", "nope", "decline", "refuse", "never"}
)

// Classify maps a raw user utterance onto a consent outcome by substring
// match against the fixed keyword sets.
func Classify(response string) Outcome {
	lower := strings.ToLower(strings.TrimSpace(response))
	for _, word := range affirmativeKeywords {
		if strings.Contains(lower, word) {
			return OutcomeGranted
		}
	}
	for _, word := range negativeKeywords {
		if strings.Contains(lower, word) {
			return OutcomeDeclined
		}
	}
	return OutcomeUnclear
}

// Recorder appends one consent log entry. Implemented by the store that owns
// the catalog the consent decision is about.
type Recorder interface {
	RecordConsent(action Action, subject, userResponse string) error
}

// Gate is instantiated once per subsystem (explicit facts, saved research).
// It is stateless between calls.
type Gate struct {
	recorder Recorder
}

func NewGate(r Recorder) *Gate {
	return &Gate{recorder: r}
}

// Request logs the `requested` entry. It is written immediately, before any
// user response exists, so declined and abandoned requests still leave a
// trace.
func (g *Gate) Request(subject string) error {
	if g.recorder == nil {
		return fmt.Errorf("consent gate has no recorder")
	}
	if err := g.recorder.RecordConsent(ActionRequested, subject, ""); err != nil {
		return fmt.Errorf("log consent request: %w", err)
	}
	return nil
}

// Resolve classifies the response and drives the side effects of a terminal
// transition: granted runs persist and logs `granted`, declined logs
// `declined` and persists nothing, unclear does neither. Every terminal
// transition produces exactly one log entry.
func (g *Gate) Resolve(subject, response string, persist func() error) (Outcome, error) {
	outcome := Classify(response)
	switch outcome {
	case OutcomeGranted:
		if persist != nil {
			if err := persist(); err != nil {
				return outcome, fmt.Errorf("persist consented payload: %w", err)
			}
		}
		if err := g.recorder.RecordConsent(ActionGranted, subject, response); err != nil {
			return outcome, fmt.Errorf("log consent grant: %w", err)
		}
	case OutcomeDeclined:
		if err := g.recorder.RecordConsent(ActionDeclined, subject, response); err != nil {
			return outcome, fmt.Errorf("log consent decline: %w", err)
		}
	}
	return outcome, nil
}
