// Package model defines the data types shared across the prospecting pipeline.
package model

import (
	"strings"
	"time"
)

// Source identifies which acquisition strategy produced a contact.
type Source string

const (
	SourceWebSearch   Source = "web-search"
	SourceDirectory   Source = "directory"
	SourceCompanySite Source = "company-site"
	SourceSynthetic   Source = "synthetic"
	SourceStatic      Source = "static"
)

// SearchFilters is the input to a discovery request.
type SearchFilters struct {
	Industries  []string `json:"industries,omitempty"`
	Positions   []string `json:"positions,omitempty"`
	Location    string   `json:"location,omitempty"`
	CompanySize string   `json:"company_size,omitempty"`
	Keywords    string   `json:"keywords,omitempty"`
	Limit       int      `json:"limit,omitempty"`
}

const (
	// DefaultLimit is applied when the caller omits a result cap.
	DefaultLimit = 20
	// MaxLimit bounds the result cap per request.
	MaxLimit = 50
)

// Normalize clamps the limit to [1, MaxLimit] and trims filter text.
// An all-empty filter set is valid; strategies degrade to defaults.
func (f SearchFilters) Normalize() SearchFilters {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	f.Industries = trimAll(f.Industries)
	f.Positions = trimAll(f.Positions)
	f.Location = strings.TrimSpace(f.Location)
	f.CompanySize = strings.TrimSpace(f.CompanySize)
	f.Keywords = strings.TrimSpace(f.Keywords)
	return f
}

// trimAll returns a new slice; the caller's backing array is left alone.
func trimAll(ss []string) []string {
	if len(ss) == 0 {
		return ss
	}
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Contact is a prospect candidate before validation and scoring.
// A strategy never mutates a Contact after returning it; all later
// mutation belongs to the orchestrator.
type Contact struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email,omitempty"`
	AltEmails   []string  `json:"alt_emails,omitempty"`
	Company     string    `json:"company"`
	Position    string    `json:"position"`
	Industry    string    `json:"industry,omitempty"`
	Location    string    `json:"location,omitempty"`
	LinkedInURL string    `json:"linkedin_url,omitempty"`
	Website     string    `json:"website,omitempty"`
	Source      Source    `json:"source"`
	Confidence  int       `json:"confidence"`
	Summary     string    `json:"summary,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// FullName returns "First Last".
func (c Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

// EmailValidation is the Email Checker's verdict for one address.
type EmailValidation struct {
	IsValid    bool   `json:"is_valid"`
	Reason     string `json:"reason"`
	Confidence int    `json:"confidence"`
}

// Prospect is a contact that has passed through validation and scoring.
type Prospect struct {
	Contact
	EmailValidation EmailValidation `json:"email_validation"`
	Score           int             `json:"score"`
	Tags            []string        `json:"tags,omitempty"`
	Validated       bool            `json:"validated"`
}

// DiscoveryMeta describes a discovery result set.
type DiscoveryMeta struct {
	Total     int       `json:"total"`
	NewCount  int       `json:"new_count"`
	Generated bool      `json:"generated"`
	Timestamp time.Time `json:"timestamp"`
}

// InsightBundle holds generated sales intelligence for one contact.
// Bundles are regenerated per request and never cached.
type InsightBundle struct {
	TalkingPoints       []string `json:"talking_points"`
	PainPoints          []string `json:"pain_points"`
	OutreachStrategy    string   `json:"outreach_strategy"`
	CompanyInsights     string   `json:"company_insights"`
	PersonalizationData string   `json:"personalization_data"`
}

// OutreachMessage is a generated outbound message for one contact.
type OutreachMessage struct {
	Content     string    `json:"content"`
	Channel     string    `json:"channel"`
	Tone        string    `json:"tone"`
	Objective   string    `json:"objective"`
	GeneratedAt time.Time `json:"generated_at"`
}
