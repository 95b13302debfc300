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

// CAPCase is a case in the Caselaw Access Project schema. The bulk archive
// export and the /cases/ API share this shape; the API omits Casebody unless
// full_case=true is requested.
type CAPCase struct {
	ID               int64            `json:"id"`
	URL              string           `json:"url,omitempty"`
	Name             string           `json:"name"`
	NameAbbreviation string           `json:"name_abbreviation"`
	DecisionDate     string           `json:"decision_date"`
	DocketNumber     string           `json:"docket_number"`
	FirstPage        string           `json:"first_page,omitempty"`
	LastPage         string           `json:"last_page,omitempty"`
	Citations        []CAPCitation    `json:"citations"`
	Volume           *CAPVolume       `json:"volume,omitempty"`
	Reporter         *CAPReporter     `json:"reporter,omitempty"`
	Court            *CAPCourt        `json:"court,omitempty"`
	Jurisdiction     *CAPJurisdiction `json:"jurisdiction,omitempty"`
	CitesTo          []CAPCiteRef     `json:"cites_to,omitempty"`
	FrontendURL      string           `json:"frontend_url,omitempty"`
	Casebody         *CAPCasebody     `json:"casebody,omitempty"`
}

// CAPCitation is one citation string with its type ("official", "parallel", ...).
type CAPCitation struct {
	Type string `json:"type"`
	Cite string `json:"cite"`
}

type CAPVolume struct {
	VolumeNumber string `json:"volume_number"`
}

type CAPReporter struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

type CAPCourt struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	NameAbbreviation string `json:"name_abbreviation"`
	Slug             string `json:"slug"`
}

type CAPJurisdiction struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	NameLong string `json:"name_long"`
	Slug     string `json:"slug"`
}

// CAPCiteRef is an outbound citation. CaseIDs is populated when the citation
// could be resolved to cases within the same corpus.
type CAPCiteRef struct {
	Cite    string  `json:"cite"`
	CaseIDs []int64 `json:"case_ids,omitempty"`
}

type CAPCasebody struct {
	Status string           `json:"status"`
	Data   *CAPCasebodyData `json:"data,omitempty"`
}

type CAPCasebodyData struct {
	HeadMatter string       `json:"head_matter"`
	Judges     []string     `json:"judges"`
	Parties    []string     `json:"parties"`
	Attorneys  []string     `json:"attorneys"`
	Opinions   []CAPOpinion `json:"opinions"`
}

type CAPOpinion struct {
	Type   string `json:"type"`
	Author string `json:"author"`
	Text   string `json:"text"`
}

// CAPPage is one page of a /cases/ listing.
type CAPPage struct {
	Count    int       `json:"count"`
	Next     *string   `json:"next"`
	Previous *string   `json:"previous"`
	Results  []CAPCase `json:"results"`
}

// ReporterManifest is one entry of the bulk archive's ReportersMetadata.json.
type ReporterManifest struct {
	ID           int64           `json:"id"`
	Slug         string          `json:"slug"`
	ShortName    string          `json:"short_name"`
	FullName     string          `json:"full_name"`
	Jurisdiction CAPJurisdiction `json:"jurisdiction"`
	Volumes      []string        `json:"volumes"`
}
