package handlers

import (
	"time"

	"github.com/vzahanych/jbot-advisor/internal/advisory"
	"github.com/vzahanych/jbot-advisor/internal/server/utils"
	"github.com/vzahanych/jbot-advisor/internal/session"
)

// OutfitRequest is what the clothing classifier saw, posted by a client that
// runs its own camera.
type OutfitRequest struct {
	Top    string `json:"top" validate:"required,top"`
	Bottom string `json:"bottom" validate:"required,bottom"`
}

type UtteranceRequest struct {
	Text string `json:"text" validate:"required,min=1,max=200"`
}

type AdviceResponse struct {
	Intent    advisory.Intent          `json:"intent"`
	Text      string                   `json:"text"`
	AirLevel  advisory.AirQualityLevel `json:"air_level"`
	FetchedAt time.Time                `json:"fetched_at"`
}

type SessionResponse struct {
	SessionID string          `json:"session_id"`
	Command   session.Command `json:"command"`
	Text      string          `json:"text,omitempty"`
	State     session.State   `json:"state"`
}

type ErrorResponse struct {
	Error   string                  `json:"error"`
	Code    string                  `json:"code,omitempty"`
	Details string                  `json:"details,omitempty"`
	Fields  []utils.ValidationError `json:"fields,omitempty"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Uptime    string            `json:"uptime"`
	Timestamp string            `json:"timestamp,omitempty"`
	Checks    map[string]string `json:"checks,omitempty"`
}
