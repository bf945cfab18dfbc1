// Package models defines the core data structures used throughout the application.
package models

import (
	"time"
)

// Claim is a single checkable factual assertion extracted from text.
type Claim = string

// Stance is the relationship of one evidence snippet to a claim.
type Stance string

const (
	StanceSupports Stance = "SUPPORTS"
	StanceRefutes  Stance = "REFUTES"
	StanceNeutral  Stance = "NEUTRAL"
)

// StanceResult is the stance of a single retrieved snippet toward a claim.
type StanceResult struct {
	Evidence string  `json:"evidence"`
	Stance   Stance  `json:"stance"`
	Score    float64 `json:"score"`
}

// Verdict is the narrated outcome for a text claim.
type Verdict string

const (
	VerdictSupported     Verdict = "SUPPORTED"
	VerdictRefuted       Verdict = "REFUTED"
	VerdictNotEnoughInfo Verdict = "NOT ENOUGH INFO"
)

// ClaimVerdict is the full verification record for one claim.
type ClaimVerdict struct {
	Claim            Claim          `json:"claim"`
	Verdict          Verdict        `json:"verdict"`
	Explanation      string         `json:"explanation"`
	CredibilityScore float64        `json:"credibility_score"`
	Evidence         []StanceResult `json:"evidence"`
	SignalsDisagree  bool           `json:"signals_disagree"`
	Warnings         []Warning      `json:"warnings,omitempty"`
}

// Disagrees reports whether the narrated verdict and the sign of the
// credibility score point in opposite directions.
func (c ClaimVerdict) Disagrees() bool {
	switch c.Verdict {
	case VerdictSupported:
		return c.CredibilityScore < 0
	case VerdictRefuted:
		return c.CredibilityScore > 0
	}
	return false
}

// TextReport is the response for a text verification request.
type TextReport struct {
	ID               string         `json:"id"`
	Claims           []ClaimVerdict `json:"claims"`
	Warnings         []Warning      `json:"warnings,omitempty"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
	CreatedAt        time.Time      `json:"created_at"`
}

// Image is raw image content submitted for verification.
type Image struct {
	Data        []byte `json:"-"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// AuthenticityVerdict is the synthetic-image detector outcome.
type AuthenticityVerdict string

const (
	AuthenticityReal      AuthenticityVerdict = "Real"
	AuthenticityFake      AuthenticityVerdict = "Fake"
	AuthenticityUncertain AuthenticityVerdict = "Uncertain"
)

// AuthenticityReport is the output of the authenticity classifier.
type AuthenticityReport struct {
	Verdict      AuthenticityVerdict `json:"verdict"`
	Confidence   float64             `json:"confidence"`
	RawScoreReal float64             `json:"raw_score_real"`
	RawScoreFake float64             `json:"raw_score_fake"`
	Error        string              `json:"error,omitempty"`
}

// ImageAnalysisReport bundles the per-image inference outputs.
type ImageAnalysisReport struct {
	Caption      string             `json:"caption"`
	OCRText      string             `json:"ocr_text"`
	Authenticity AuthenticityReport `json:"authenticity"`
}

// VisualMatch is a page on which a reverse image search found the image.
type VisualMatch struct {
	Title      string `json:"title"`
	Link       string `json:"link"`
	SourceIcon string `json:"source_icon,omitempty"`
}

// OnlineHistory is the result of a reverse image search.
type OnlineHistory struct {
	SourceResults []VisualMatch `json:"source_results"`
	Note          string        `json:"note,omitempty"`
	Error         string        `json:"error,omitempty"`
}

// Titles returns the non-empty titles of all visual matches.
func (h OnlineHistory) Titles() []string {
	titles := make([]string, 0, len(h.SourceResults))
	for _, m := range h.SourceResults {
		if m.Title != "" {
			titles = append(titles, m.Title)
		}
	}
	return titles
}

// ProgrammaticSignal is a human-readable line emitted by the signal extractor.
type ProgrammaticSignal = string

// EventTruthfulness is whether the event depicted or implied actually happened.
type EventTruthfulness string

const (
	EventReal      EventTruthfulness = "Event is Real"
	EventFake      EventTruthfulness = "Event is Fake"
	EventUncertain EventTruthfulness = "Uncertain"
	EventNA        EventTruthfulness = "N/A"
)

// ImageContext is whether the image is used in its original context.
type ImageContext string

const (
	ContextAccurate   ImageContext = "Accurate Context"
	ContextMisleading ImageContext = "Misleading Context"
	ContextFabricated ImageContext = "Fabricated Image"
	ContextGraphic    ImageContext = "Contextual Graphic"
	ContextUncertain  ImageContext = "Uncertain"
	ContextNA         ImageContext = "N/A"
)

// FinalVerdict is the overall conclusion for an image case.
type FinalVerdict string

const (
	FinalSupported  FinalVerdict = "SUPPORTED"
	FinalRefuted    FinalVerdict = "REFUTED"
	FinalUncertain  FinalVerdict = "UNCERTAIN"
	FinalMisleading FinalVerdict = "MISLEADING"
	FinalError      FinalVerdict = "ERROR"
)

// ImageVerdict is the parsed synthesis result for an image case.
type ImageVerdict struct {
	EventTruthfulness EventTruthfulness `json:"event_truthfulness"`
	ImageContext      ImageContext      `json:"image_context"`
	FinalVerdict      FinalVerdict      `json:"final_verdict"`
	Explanation       string            `json:"explanation"`
	Error             string            `json:"error,omitempty"`
}

// Intent is the coarse category of the user's question about an image.
type Intent string

const (
	IntentImageAuthenticity Intent = "IMAGE_AUTHENTICITY"
	IntentNewsContent       Intent = "NEWS_CONTENT"
)

// ImageReport is the response for an image verification request.
type ImageReport struct {
	ID                  string               `json:"id"`
	UserQuery           string               `json:"user_query"`
	Intent              Intent               `json:"intent"`
	ImageAnalysis       ImageAnalysisReport  `json:"image_analysis"`
	OnlineHistory       OnlineHistory        `json:"online_history"`
	ThematicSnippets    []string             `json:"thematic_snippets"`
	ProgrammaticSignals []ProgrammaticSignal `json:"programmatic_signals"`
	FinalVerdict        ImageVerdict         `json:"final_verdict"`
	Warnings            []Warning            `json:"warnings,omitempty"`
	ProcessingTimeMs    int64                `json:"processing_time_ms"`
	CreatedAt           time.Time            `json:"created_at"`
}

// Warning represents a non-fatal issue during processing.
type Warning struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// APIKey represents an API key for authentication.
type APIKey struct {
	ID                string     `json:"id"`
	KeyHash           string     `json:"-"` // Never expose
	Name              string     `json:"name"`
	RequestsPerMinute int        `json:"requests_per_minute"`
	CreatedAt         time.Time  `json:"created_at"`
	LastUsedAt        *time.Time `json:"last_used_at,omitempty"`
}

// AuditLog represents an API request audit entry.
type AuditLog struct {
	ID           string    `json:"id"`
	APIKeyID     string    `json:"api_key_id"`
	RequestID    string    `json:"request_id"`
	Endpoint     string    `json:"endpoint"`
	Method       string    `json:"method"`
	RequestSize  int64     `json:"request_size"`
	ResponseCode int       `json:"response_code"`
	DurationMs   int64     `json:"duration_ms"`
	Timestamp    time.Time `json:"timestamp"`
}

// VerifyTextRequest is the request body for the text verification endpoint.
type VerifyTextRequest struct {
	Text string `json:"text"`
}
