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
	"strings"

	"github.com/poiesic/caselaw/core"
	"github.com/poiesic/caselaw/payload"
)

// OpinionRefPrefix marks CourtListener IDs that name an opinion rather than
// a cluster. Opinion citation graphs reference opinions.
const OpinionRefPrefix = "opinion:"

// OpinionRef returns the reference ID for an opinion.
func OpinionRef(id int64) string {
	return OpinionRefPrefix + strconv.FormatInt(id, 10)
}

// CaseFromHit builds a record from a search hit.
func CaseFromHit(h payload.CLSearchHit) core.CaseRecord {
	rec := core.CaseRecord{
		ID:               strconv.FormatInt(h.ClusterID, 10),
		Source:           core.SourceRemoteA,
		Name:             firstNonEmpty(h.CaseNameFull, h.CaseName),
		NameAbbreviation: h.CaseName,
		DecisionDate:     datePart(h.DateFiled),
		DocketNumber:     h.DocketNumber,
		Court:            h.Court,
		Jurisdiction:     h.Court,
		JurisdictionSlug: h.CourtID,
		URL:              h.AbsoluteURL,
	}
	for _, c := range h.Citation {
		rec.Citations = append(rec.Citations, core.Citation{Cite: c})
	}
	seen := make(map[int64]struct{})
	for _, op := range h.Opinions {
		for _, cited := range op.Cites {
			if _, dup := seen[cited]; dup {
				continue
			}
			seen[cited] = struct{}{}
			rec.CitesTo = append(rec.CitesTo, core.CaseReference{
				CaseIDs: []string{OpinionRef(cited)},
				Source:  core.SourceRemoteA,
			})
		}
	}
	return rec
}

// CaseFromCluster builds a record from cluster detail and, when available,
// its lead opinion. hit supplies court fields the cluster omits; it may be nil.
func CaseFromCluster(cl payload.CLCluster, op *payload.CLOpinion, hit *payload.CLSearchHit) core.CaseRecord {
	rec := core.CaseRecord{
		ID:               strconv.FormatInt(cl.ID, 10),
		Source:           core.SourceRemoteA,
		Name:             firstNonEmpty(cl.CaseNameFull, cl.CaseName, cl.CaseNameShort),
		NameAbbreviation: firstNonEmpty(cl.CaseName, cl.CaseNameShort),
		DecisionDate:     datePart(cl.DateFiled),
		URL:              cl.AbsoluteURL,
	}
	if hit != nil {
		rec.Court = hit.Court
		rec.Jurisdiction = hit.Court
		rec.JurisdictionSlug = hit.CourtID
		rec.DocketNumber = hit.DocketNumber
	}
	for _, c := range cl.Citations {
		rec.Citations = append(rec.Citations, core.Citation{Cite: c.String()})
	}

	body := &core.CaseBody{HeadMatter: StripMarkup(cl.Headmatter)}
	if cl.Judges != "" {
		for _, j := range strings.Split(cl.Judges, ",") {
			if j = strings.TrimSpace(j); j != "" {
				body.Judges = append(body.Judges, j)
			}
		}
	}
	if op != nil {
		body.Opinions = []core.Opinion{{Type: op.Type, Author: op.AuthorStr, Text: opinionText(op)}}
		for _, u := range op.OpinionsCited {
			if id, ok := payload.IDFromResourceURL(u); ok {
				rec.CitesTo = append(rec.CitesTo, core.CaseReference{
					CaseIDs: []string{OpinionRef(id)},
					Source:  core.SourceRemoteA,
				})
			}
		}
	}
	if body.HeadMatter != "" || len(body.Judges) > 0 || len(body.Opinions) > 0 {
		rec.Body = body
	}
	return rec
}

// RemoteA maps a CourtListener payload. Cluster detail wins over a bare hit.
func RemoteA(r payload.RemoteA) core.UnifiedResult {
	switch {
	case r.Cluster != nil:
		res := fromRecord(CaseFromCluster(*r.Cluster, r.Opinion, r.Hit), r)
		res.CiteCount = r.Cluster.CitationCount
		res.Snippet = Snippet(r.Cluster.Syllabus)
		if res.Snippet == "" && r.Opinion != nil {
			res.Snippet = Snippet(opinionText(r.Opinion))
		}
		if res.Snippet == "" && r.Hit != nil {
			res.Snippet = hitSnippet(*r.Hit)
		}
		return res
	case r.Hit != nil:
		res := fromRecord(CaseFromHit(*r.Hit), r)
		res.CiteCount = r.Hit.CiteCount
		res.Snippet = hitSnippet(*r.Hit)
		return res
	default:
		return fromRecord(core.CaseRecord{Source: core.SourceRemoteA}, r)
	}
}

func hitSnippet(h payload.CLSearchHit) string {
	if s := Snippet(h.Snippet); s != "" {
		return s
	}
	for _, op := range h.Opinions {
		if s := Snippet(op.Snippet); s != "" {
			return s
		}
	}
	return ""
}

func opinionText(op *payload.CLOpinion) string {
	if op.PlainText != "" {
		return strings.TrimSpace(op.PlainText)
	}
	return StripMarkup(op.HTMLWithCitations)
}

// datePart trims a timestamp such as "2003-06-26T00:00:00-07:00" to its date.
func datePart(s string) string {
	if len(s) > 10 && s[10] == 'T' {
		return s[:10]
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
