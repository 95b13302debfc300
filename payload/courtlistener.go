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

package payload

import (
	"fmt"
	"strconv"
	"strings"
)

// CLSearchPage is one page of a CourtListener /search/ response.
type CLSearchPage struct {
	Count    int           `json:"count"`
	Next     *string       `json:"next"`
	Previous *string       `json:"previous"`
	Results  []CLSearchHit `json:"results"`
}

// CLSearchHit is a single opinion-cluster hit from /search/?type=o.
type CLSearchHit struct {
	ClusterID    int64          `json:"cluster_id"`
	CaseName     string         `json:"caseName"`
	CaseNameFull string         `json:"caseNameFull"`
	DateFiled    string         `json:"dateFiled"`
	DocketNumber string         `json:"docketNumber"`
	Court        string         `json:"court"`
	CourtID      string         `json:"court_id"`
	Citation     []string       `json:"citation"`
	CiteCount    int            `json:"citeCount"`
	Snippet      string         `json:"snippet"`
	Judge        string         `json:"judge"`
	AbsoluteURL  string         `json:"absolute_url"`
	Opinions     []CLOpinionHit `json:"opinions"`
}

// CLOpinionHit is an opinion nested inside a search hit. Cites holds the IDs
// of opinions this opinion cites.
type CLOpinionHit struct {
	ID      int64   `json:"id"`
	Type    string  `json:"type"`
	Snippet string  `json:"snippet"`
	Cites   []int64 `json:"cites"`
}

// CLCluster is the /clusters/{id}/ detail document.
type CLCluster struct {
	ID            int64        `json:"id"`
	AbsoluteURL   string       `json:"absolute_url"`
	CaseName      string       `json:"case_name"`
	CaseNameShort string       `json:"case_name_short"`
	CaseNameFull  string       `json:"case_name_full"`
	DateFiled     string       `json:"date_filed"`
	Judges        string       `json:"judges"`
	Syllabus      string       `json:"syllabus"`
	Headmatter    string       `json:"headmatter"`
	CitationCount int          `json:"citation_count"`
	Citations     []CLCitation `json:"citations"`
	SubOpinions   []string     `json:"sub_opinions"`
	Docket        string       `json:"docket"`
}

// CLCitation is a structured citation on a cluster.
type CLCitation struct {
	Volume   int    `json:"volume"`
	Reporter string `json:"reporter"`
	Page     string `json:"page"`
	Type     int    `json:"type"`
}

// String renders the citation as "volume reporter page".
func (c CLCitation) String() string {
	return fmt.Sprintf("%d %s %s", c.Volume, c.Reporter, c.Page)
}

// CLOpinion is the /opinions/{id}/ detail document.
type CLOpinion struct {
	ID                int64    `json:"id"`
	Cluster           string   `json:"cluster"`
	Type              string   `json:"type"`
	AuthorStr         string   `json:"author_str"`
	PlainText         string   `json:"plain_text"`
	HTMLWithCitations string   `json:"html_with_citations"`
	OpinionsCited     []string `json:"opinions_cited"`
}

// IDFromResourceURL extracts the trailing numeric ID from a CourtListener
// resource URL such as "https://host/api/rest/v4/opinions/123/".
func IDFromResourceURL(u string) (int64, bool) {
	trimmed := strings.TrimRight(u, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 || idx == len(trimmed)-1 {
		return 0, false
	}
	id, err := strconv.ParseInt(trimmed[idx+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
