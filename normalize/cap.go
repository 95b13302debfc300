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

package normalize

import (
	"strconv"

	"github.com/poiesic/caselaw/core"
	"github.com/poiesic/caselaw/payload"
)

// CaseFromCAP builds a canonical record from a CAP-schema case. The bulk
// archive and the CAP API share the schema, so source tells them apart.
func CaseFromCAP(c payload.CAPCase, source core.SourceID) core.CaseRecord {
	rec := core.CaseRecord{
		ID:               strconv.FormatInt(c.ID, 10),
		Source:           source,
		Name:             c.Name,
		NameAbbreviation: c.NameAbbreviation,
		DecisionDate:     c.DecisionDate,
		DocketNumber:     c.DocketNumber,
		URL:              c.FrontendURL,
	}
	if rec.URL == "" {
		rec.URL = c.URL
	}
	if rec.Name == "" {
		rec.Name = c.NameAbbreviation
	}
	if c.Court != nil {
		rec.Court = c.Court.Name
	}
	if c.Jurisdiction != nil {
		rec.Jurisdiction = c.Jurisdiction.NameLong
		if rec.Jurisdiction == "" {
			rec.Jurisdiction = c.Jurisdiction.Name
		}
		rec.JurisdictionSlug = c.Jurisdiction.Slug
	}

	for _, cite := range c.Citations {
		rec.Citations = append(rec.Citations, core.Citation{Type: cite.Type, Cite: cite.Cite})
	}

	for _, ref := range c.CitesTo {
		cr := core.CaseReference{Cite: ref.Cite, Source: source}
		for _, id := range ref.CaseIDs {
			cr.CaseIDs = append(cr.CaseIDs, strconv.FormatInt(id, 10))
		}
		rec.CitesTo = append(rec.CitesTo, cr)
	}

	if c.Casebody != nil && c.Casebody.Data != nil {
		d := c.Casebody.Data
		body := &core.CaseBody{
			HeadMatter: StripMarkup(d.HeadMatter),
			Judges:     d.Judges,
			Parties:    d.Parties,
			Attorneys:  d.Attorneys,
		}
		for _, op := range d.Opinions {
			body.Opinions = append(body.Opinions, core.Opinion{
				Type:   op.Type,
				Author: op.Author,
				Text:   StripMarkup(op.Text),
			})
		}
		rec.Body = body
	}
	return rec
}

// Local maps an archive case and its relevance score.
func Local(l payload.Local, score *core.RelevanceScore) core.UnifiedResult {
	res := fromRecord(CaseFromCAP(l.Case, core.SourceLocal), l)
	res.Snippet = capSnippet(l.Case)
	res.Relevance = score
	return res
}

// RemoteB maps a CAP API case.
func RemoteB(r payload.RemoteB) core.UnifiedResult {
	res := fromRecord(CaseFromCAP(r.Case, core.SourceRemoteB), r)
	res.Snippet = capSnippet(r.Case)
	return res
}

func capSnippet(c payload.CAPCase) string {
	if c.Casebody == nil || c.Casebody.Data == nil {
		return ""
	}
	d := c.Casebody.Data
	if d.HeadMatter != "" {
		return Snippet(d.HeadMatter)
	}
	for _, op := range d.Opinions {
		if op.Text != "" {
			return Snippet(op.Text)
		}
	}
	return ""
}

// fromRecord fills the display fields every source shares.
func fromRecord(rec core.CaseRecord, raw payload.Raw) core.UnifiedResult {
	cite := rec.FirstCitation()
	if cite == "" {
		cite = core.NoCitation
	}
	return core.UnifiedResult{
		Record:       rec,
		Source:       rec.Source,
		Name:         rec.DisplayName(),
		Citation:     cite,
		DecisionDate: rec.DecisionDate,
		Court:        rec.Court,
		Jurisdiction: rec.Jurisdiction,
		Raw:          raw,
	}
}
