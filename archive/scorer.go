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

package archive

import (
	"strconv"
	"strings"

	"github.com/poiesic/caselaw/core"
	"github.com/poiesic/caselaw/payload"
)

// Field weights
const (
	NameWeight       = 10
	HeadMatterWeight = 5
	BodyCap          = 10

	RecentYear       = 2010
	RecentMultiplier = 1.2
	LatestYear       = 2015
	LatestMultiplier = 1.1
)

// Score rates c against terms, which must already be lower-cased (see
// core.SplitTerms). A zero MatchedTerms means c should be excluded.
func Score(c *payload.CAPCase, terms []string) core.RelevanceScore {
	name := strings.ToLower(c.Name + " " + c.NameAbbreviation)
	var head, body string
	if c.Casebody != nil && c.Casebody.Data != nil {
		head = strings.ToLower(c.Casebody.Data.HeadMatter)
		var b strings.Builder
		for _, op := range c.Casebody.Data.Opinions {
			b.WriteString(strings.ToLower(op.Text))
			b.WriteByte('\n')
		}
		body = b.String()
	}

	var score core.RelevanceScore
	for _, term := range terms {
		matched := false
		if strings.Contains(name, term) {
			score.Base += NameWeight
			matched = true
		}
		if head != "" && strings.Contains(head, term) {
			score.Base += HeadMatterWeight
			matched = true
		}
		if body != "" {
			if n := strings.Count(body, term); n > 0 {
				score.Base += min(n, BodyCap)
				matched = true
			}
		}
		if matched {
			score.MatchedTerms = append(score.MatchedTerms, term)
		}
	}

	score.Score = float64(score.Base) * recency(c.DecisionDate)
	return score
}

func recency(decisionDate string) float64 {
	if len(decisionDate) < 4 {
		return 1
	}
	year, err := strconv.Atoi(decisionDate[:4])
	if err != nil {
		return 1
	}
	m := 1.0
	if year >= RecentYear {
		m *= RecentMultiplier
	}
	if year >= LatestYear {
		m *= LatestMultiplier
	}
	return m
}
