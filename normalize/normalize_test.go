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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/caselaw/core"
	"github.com/poiesic/caselaw/payload"
)

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  trade   secret ", "trade secret"},
		{"highlight tags", "the <mark>trade</mark> <mark>secret</mark> claim", "the trade secret claim"},
		{"entities", "Smith &amp; Jones&#39;s case", "Smith & Jones's case"},
		{"block tags separate words", "<p>first</p><p>second</p>", "first second"},
		{"script dropped", "a<script>alert(1)</script>b", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripMarkup(tt.in))
		})
	}
}

func TestSnippetTruncates(t *testing.T) {
	long := strings.Repeat("word ", 200)
	s := Snippet(long)
	assert.True(t, strings.HasSuffix(s, "..."))
	assert.LessOrEqual(t, len([]rune(s)), SnippetLength+3)

	assert.Equal(t, "short", Snippet("<em>short</em>"))
}

func capCase() payload.CAPCase {
	return payload.CAPCase{
		ID:               12345,
		Name:             "Acme Corporation v. Widget Company",
		NameAbbreviation: "Acme Corp. v. Widget Co.",
		DecisionDate:     "2016-03-01",
		DocketNumber:     "No. 15-1",
		Citations:        []payload.CAPCitation{{Type: "official", Cite: "100 Ill. App. 3d 1"}},
		Court:            &payload.CAPCourt{Name: "Illinois Appellate Court"},
		Jurisdiction:     &payload.CAPJurisdiction{Name: "Ill.", NameLong: "Illinois", Slug: "ill"},
		CitesTo:          []payload.CAPCiteRef{{Cite: "1 Ill. 2", CaseIDs: []int64{9}}},
		FrontendURL:      "https://cite.case.law/ill-app-3d/100/1/",
		Casebody: &payload.CAPCasebody{
			Status: "ok",
			Data: &payload.CAPCasebodyData{
				HeadMatter: "<p>Trade secret misappropriation.</p>",
				Judges:     []string{"Smith"},
				Opinions:   []payload.CAPOpinion{{Type: "majority", Author: "Smith, J.", Text: "We affirm."}},
			},
		},
	}
}

func TestLocal(t *testing.T) {
	score := &core.RelevanceScore{Base: 15, Score: 19.8, MatchedTerms: []string{"trade"}}
	l := payload.Local{Case: capCase(), Reporter: "ill-app-3d", Volume: "100"}

	res := Local(l, score)
	assert.Equal(t, core.SourceLocal, res.Source)
	assert.Equal(t, "Acme Corp. v. Widget Co.", res.Name)
	assert.Equal(t, "100 Ill. App. 3d 1", res.Citation)
	assert.Equal(t, "2016-03-01", res.DecisionDate)
	assert.Equal(t, "Illinois Appellate Court", res.Court)
	assert.Equal(t, "Illinois", res.Jurisdiction)
	assert.Equal(t, "Trade secret misappropriation.", res.Snippet)
	assert.Same(t, score, res.Relevance)
	assert.Equal(t, l, res.Raw)

	rec := res.Record
	assert.Equal(t, "12345", rec.ID)
	assert.Equal(t, "ill", rec.JurisdictionSlug)
	require.Len(t, rec.CitesTo, 1)
	assert.Equal(t, []string{"9"}, rec.CitesTo[0].CaseIDs)
	require.NotNil(t, rec.Body)
	assert.Equal(t, "We affirm.", rec.Body.Opinions[0].Text)
}

func TestRemoteBWithoutCitationOrBody(t *testing.T) {
	c := payload.CAPCase{ID: 5, NameAbbreviation: "Doe v. Roe"}
	res := RemoteB(payload.RemoteB{Case: c})

	assert.Equal(t, core.SourceRemoteB, res.Source)
	assert.Equal(t, core.NoCitation, res.Citation)
	assert.Equal(t, "Doe v. Roe", res.Record.Name)
	assert.Empty(t, res.Snippet)
	assert.Nil(t, res.Record.Body)
	assert.Nil(t, res.Relevance)
}

func TestRemoteAHit(t *testing.T) {
	hit := payload.CLSearchHit{
		ClusterID:    2812209,
		CaseName:     "Lawrence v. Texas",
		CaseNameFull: "John Geddes Lawrence and Tyron Garner v. Texas",
		DateFiled:    "2003-06-26T00:00:00-07:00",
		Court:        "Supreme Court of the United States",
		CourtID:      "scotus",
		Citation:     []string{"539 U.S. 558", "123 S. Ct. 2472"},
		CiteCount:    1500,
		Snippet:      "the <mark>liberty</mark> protected",
		Opinions:     []payload.CLOpinionHit{{ID: 1, Cites: []int64{7, 8, 7}}},
	}

	res := RemoteA(payload.RemoteA{Hit: &hit})
	assert.Equal(t, core.SourceRemoteA, res.Source)
	assert.Equal(t, "Lawrence v. Texas", res.Name)
	assert.Equal(t, "539 U.S. 558", res.Citation)
	assert.Equal(t, "2003-06-26", res.DecisionDate)
	assert.Equal(t, "Supreme Court of the United States", res.Court)
	assert.Equal(t, "the liberty protected", res.Snippet)
	assert.Equal(t, 1500, res.CiteCount)
	assert.Equal(t, "2812209", res.Record.ID)

	require.Len(t, res.Record.CitesTo, 2)
	assert.Equal(t, []string{"opinion:7"}, res.Record.CitesTo[0].CaseIDs)
}

func TestRemoteACluster(t *testing.T) {
	cl := payload.CLCluster{
		ID:            2812209,
		CaseName:      "Lawrence v. Texas",
		DateFiled:     "2003-06-26",
		Judges:        "Kennedy, Scalia",
		CitationCount: 1500,
		Citations:     []payload.CLCitation{{Volume: 539, Reporter: "U.S.", Page: "558"}},
	}
	op := payload.CLOpinion{
		ID:                9,
		Type:              "010combined",
		HTMLWithCitations: "<p>The petitioners were adults.</p>",
		OpinionsCited:     []string{"https://www.courtlistener.com/api/rest/v4/opinions/111/"},
	}

	res := RemoteA(payload.RemoteA{Cluster: &cl, Opinion: &op})
	assert.Equal(t, "539 U.S. 558", res.Citation)
	assert.Equal(t, "The petitioners were adults.", res.Snippet)
	require.NotNil(t, res.Record.Body)
	assert.Equal(t, []string{"Kennedy", "Scalia"}, res.Record.Body.Judges)
	require.Len(t, res.Record.CitesTo, 1)
	assert.Equal(t, []string{"opinion:111"}, res.Record.CitesTo[0].CaseIDs)
}

func TestResultDispatch(t *testing.T) {
	res, err := Result(payload.RemoteB{Case: payload.CAPCase{ID: 1, Name: "X v. Y"}})
	require.NoError(t, err)
	assert.Equal(t, core.SourceRemoteB, res.Source)

	res, err = Result(payload.Local{Case: payload.CAPCase{ID: 2, Name: "A v. B"}})
	require.NoError(t, err)
	assert.Equal(t, core.SourceLocal, res.Source)

	_, err = Result(nil)
	assert.ErrorIs(t, err, payload.ErrUnknownKind)
}
