// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/poiesic/caselaw/payload"
)

// SourceID identifies where a record came from.
type SourceID string

const (
	SourceLocal   SourceID = "local"
	SourceRemoteA SourceID = "remoteA"
	SourceRemoteB SourceID = "remoteB"
)

// DefaultLimit is the result cap applied when a query leaves Limit at zero.
const DefaultLimit = 20

// NoCitation is displayed when a source supplies no citation string.
const NoCitation = "No citation"

// DefaultOrder returns the fixed fallback priority: local first, then the
// metered remote services.
func DefaultOrder() []SourceID {
	return []SourceID{SourceLocal, SourceRemoteA, SourceRemoteB}
}

// Valid reports whether s is one of the known sources.
func (s SourceID) Valid() bool {
	switch s {
	case SourceLocal, SourceRemoteA, SourceRemoteB:
		return true
	}
	return false
}

// ParseSourceID converts a string into a SourceID.
func ParseSourceID(s string) (SourceID, error) {
	id := SourceID(s)
	if !id.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
	}
	return id, nil
}

// Citation is a reporter citation such as "539 U.S. 558".
type Citation struct {
	Type string `json:"type,omitempty"`
	Cite string `json:"cite"`
}

// CaseReference is an outbound citation from one case to another. CaseIDs
// holds source-local identifiers when the source already resolved the cite.
type CaseReference struct {
	Cite    string   `json:"cite,omitempty"`
	CaseIDs []string `json:"case_ids,omitempty"`
	Source  SourceID `json:"source"`
}

type Opinion struct {
	Type   string `json:"type,omitempty"`
	Author string `json:"author,omitempty"`
	Text   string `json:"text"`
}

// CaseBody is the optional full text of a case.
type CaseBody struct {
	HeadMatter string    `json:"head_matter,omitempty"`
	Judges     []string  `json:"judges,omitempty"`
	Parties    []string  `json:"parties,omitempty"`
	Attorneys  []string  `json:"attorneys,omitempty"`
	Opinions   []Opinion `json:"opinions,omitempty"`
}

// CaseRecord is the canonical case shape every source normalizes into.
// Records are not modified after construction.
type CaseRecord struct {
	ID               string          `json:"id"`
	Source           SourceID        `json:"source"`
	Name             string          `json:"name"`
	NameAbbreviation string          `json:"name_abbreviation,omitempty"`
	DecisionDate     string          `json:"decision_date,omitempty"`
	DocketNumber     string          `json:"docket_number,omitempty"`
	Court            string          `json:"court,omitempty"`
	Jurisdiction     string          `json:"jurisdiction,omitempty"`
	JurisdictionSlug string          `json:"jurisdiction_slug,omitempty"`
	Citations        []Citation      `json:"citations,omitempty"`
	Body             *CaseBody       `json:"body,omitempty"`
	CitesTo          []CaseReference `json:"cites_to,omitempty"`
	URL              string          `json:"url,omitempty"`
}

// DisplayName prefers the abbreviated name.
func (r *CaseRecord) DisplayName() string {
	if r.NameAbbreviation != "" {
		return r.NameAbbreviation
	}
	return r.Name
}

// FirstCitation returns the first non-blank citation string, or "".
func (r *CaseRecord) FirstCitation() string {
	for _, c := range r.Citations {
		if NormalizeCitation(c.Cite) != "" {
			return c.Cite
		}
	}
	return ""
}

// HasCitation reports whether any citation on r normalizes to the same key as cite.
func (r *CaseRecord) HasCitation(cite string) bool {
	want := NormalizeCitation(cite)
	if want == "" {
		return false
	}
	for _, c := range r.Citations {
		if NormalizeCitation(c.Cite) == want {
			return true
		}
	}
	return false
}

// DedupKey is the normalized first citation. Uncited records fall back to
// "source:id" so they never collapse into one another.
func (r *CaseRecord) DedupKey() string {
	if cite := r.FirstCitation(); cite != "" {
		return NormalizeCitation(cite)
	}
	return string(r.Source) + ":" + r.ID
}

// Year returns the decision year, or 0 when the date is missing or unparseable.
func (r *CaseRecord) Year() int {
	if len(r.DecisionDate) < 4 {
		return 0
	}
	y, err := strconv.Atoi(r.DecisionDate[:4])
	if err != nil {
		return 0
	}
	return y
}

// RelevanceScore is computed only by the local archive. Base is the summed
// integer field score; Score applies the recency multiplier.
type RelevanceScore struct {
	Base         int      `json:"base"`
	Score        float64  `json:"score"`
	MatchedTerms []string `json:"matched_terms"`
}

// UnifiedResult wraps a record with provenance, display metadata and the
// untouched source payload.
type UnifiedResult struct {
	Record       CaseRecord      `json:"record"`
	Source       SourceID        `json:"source"`
	Name         string          `json:"name"`
	Citation     string          `json:"citation"`
	DecisionDate string          `json:"decision_date,omitempty"`
	Court        string          `json:"court,omitempty"`
	Jurisdiction string          `json:"jurisdiction,omitempty"`
	Snippet      string          `json:"snippet,omitempty"`
	CiteCount    int             `json:"cite_count,omitempty"`
	Relevance    *RelevanceScore `json:"relevance,omitempty"`
	Raw          payload.Raw     `json:"-"`
}

// DedupKey delegates to the wrapped record.
func (u *UnifiedResult) DedupKey() string {
	return u.Record.DedupKey()
}

// MarshalJSON encodes Raw as a tagged payload envelope.
func (u UnifiedResult) MarshalJSON() ([]byte, error) {
	type plain UnifiedResult
	env, err := payload.Wrap(u.Raw)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		plain
		Payload *payload.Envelope `json:"raw,omitempty"`
	}{plain: plain(u), Payload: env})
}

// UnmarshalJSON restores Raw from its envelope.
func (u *UnifiedResult) UnmarshalJSON(data []byte) error {
	type plain UnifiedResult
	aux := struct {
		*plain
		Payload *payload.Envelope `json:"raw,omitempty"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	raw, err := aux.Payload.Decode()
	if err != nil {
		return err
	}
	u.Raw = raw
	return nil
}

// ResultPage is one adapter's answer to a search. Total is the number of
// matches the source reported, which may exceed len(Results).
type ResultPage struct {
	Results []UnifiedResult
	Total   int
}

// SearchQuery is a caller's search request. Zero values mean "unset".
type SearchQuery struct {
	Query        string     `json:"query"`
	Jurisdiction string     `json:"jurisdiction,omitempty"`
	DateMin      string     `json:"date_min,omitempty"`
	DateMax      string     `json:"date_max,omitempty"`
	Limit        int        `json:"limit,omitempty"`
	Sources      []SourceID `json:"sources,omitempty"`
	// PreferOffline stops the walk once accumulated results satisfy Limit.
	// Nil means the orchestrator default.
	PreferOffline *bool `json:"prefer_offline,omitempty"`
}

// EffectiveLimit returns Limit, or DefaultLimit when it is unset.
func (q *SearchQuery) EffectiveLimit() int {
	if q.Limit <= 0 {
		return DefaultLimit
	}
	return q.Limit
}

// Diagnostic messages for adapters that were never invoked.
const (
	DiagTimeout           = "not attempted — timeout"
	DiagLimitSatisfied    = "not attempted — limit satisfied"
	DiagSourceUnavailable = "source unavailable"
)

// SourceDiagnostic records what happened to one adapter during a search.
type SourceDiagnostic struct {
	Source         SourceID      `json:"source"`
	Attempted      bool          `json:"attempted"`
	Succeeded      bool          `json:"succeeded"`
	Available      bool          `json:"available"`
	ResultCount    int           `json:"result_count"`
	TotalAvailable int           `json:"total_available,omitempty"`
	Error          string        `json:"error,omitempty"`
	Duration       time.Duration `json:"duration"`
}

// SearchResponse is the result of one orchestrated search.
type SearchResponse struct {
	RequestID  uuid.UUID          `json:"request_id"`
	Results    []UnifiedResult    `json:"results"`
	TotalCount int                `json:"total_count"`
	Sources    []SourceDiagnostic `json:"sources"`
	Cached     bool               `json:"cached"`
}

// Clone returns a copy of r whose Results and Sources do not share backing
// arrays with r.
func (r *SearchResponse) Clone() *SearchResponse {
	if r == nil {
		return nil
	}
	c := *r
	c.Results = slices.Clone(r.Results)
	c.Sources = slices.Clone(r.Sources)
	return &c
}

// QuotaState is a snapshot of one adapter's request window.
type QuotaState struct {
	WindowStart   time.Time     `json:"window_start"`
	RequestCount  int           `json:"request_count"`
	Limit         int           `json:"limit"`
	Window        time.Duration `json:"window"`
	Authenticated bool          `json:"authenticated"`
}

// SourceStatus reports an adapter's availability. QuotaRemaining is -1 when
// the source is unmetered.
type SourceStatus struct {
	Source         SourceID `json:"source"`
	Available      bool     `json:"available"`
	State          string   `json:"state"`
	QuotaRemaining int      `json:"quota_remaining"`
	Authenticated  bool     `json:"authenticated"`
}
