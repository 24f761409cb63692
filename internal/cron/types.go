package cron

import (
	"time"

	"github.com/google/uuid"
)

// Schedule kinds: "cron" uses a 6-field cron expression (with seconds),
// "every" re-runs on a fixed interval.
type Schedule struct {
	Kind    string `json:"kind"`
	Expr    string `json:"expr,omitempty"`
	EveryMs int64  `json:"every_ms,omitempty"`
}

// Payload describes what the job does when it fires. Kind "notify" delivers
// Message to a channel; other kinds are interpreted by the OnJob handler.
type Payload struct {
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
	Channel string `json:"channel,omitempty"`
	To      string `json:"to,omitempty"`
}

type State struct {
	LastRunAtMs int64  `json:"last_run_at_ms,omitempty"`
	LastStatus  string `json:"last_status,omitempty"`
	LastError   string `json:"last_error,omitempty"`
}

type CronJob struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Enabled   bool     `json:"enabled"`
	Schedule  Schedule `json:"schedule"`
	Payload   Payload  `json:"payload"`
	State     State    `json:"state"`
	CreatedAt int64    `json:"created_at_ms"`
}

func NewCronJob(name string, schedule Schedule, payload Payload) CronJob {
	return CronJob{
		ID:        uuid.NewString(),
		Name:      name,
		Enabled:   true,
		Schedule:  schedule,
		Payload:   payload,
		CreatedAt: time.Now().UnixMilli(),
	}
}
