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

package caselaw

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/caselaw/archive"
	"github.com/poiesic/caselaw/bulk"
	"github.com/poiesic/caselaw/config"
	"github.com/poiesic/caselaw/core"
	"github.com/poiesic/caselaw/payload"
	"github.com/poiesic/caselaw/remote/capapi"
	"github.com/poiesic/caselaw/remote/courtlistener"
)

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func opinion(text string) *payload.CAPCasebody {
	return &payload.CAPCasebody{Status: "ok", Data: &payload.CAPCasebodyData{
		Opinions: []payload.CAPOpinion{{Type: "majority", Text: text}},
	}}
}

func archiveRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	ill := payload.CAPJurisdiction{ID: 29, Name: "Ill.", NameLong: "Illinois", Slug: "ill"}
	writeJSON(t, filepath.Join(root, archive.ManifestName), []payload.ReporterManifest{
		{ID: 1, Slug: "ill-app-3d", Jurisdiction: ill, Volumes: []string{"1"}},
	})
	writeJSON(t, filepath.Join(root, "ill", "ill-app-3d", "1", archive.VolumeFile), []payload.CAPCase{
		{
			ID: 101, Name: "Acme v. Widget", DecisionDate: "2016-05-01", Jurisdiction: &ill,
			Citations: []payload.CAPCitation{{Cite: "1 Ill. App. 3d 1"}},
			Casebody:  opinion("The trade secret was misappropriated."),
		},
		{
			ID: 102, Name: "Roe v. Doe", DecisionDate: "1990-01-01", Jurisdiction: &ill,
			Citations: []payload.CAPCitation{{Cite: "1 Ill. App. 3d 9"}},
			Casebody:  opinion("A contract dispute."),
		},
		{
			ID: 103, Name: "Acme v. Gadget", DecisionDate: "2018-02-02", Jurisdiction: &ill,
			Citations: []payload.CAPCitation{{Cite: "2 Ill. App. 3d 5"}},
			Casebody:  opinion("Breach of warranty."),
		},
		{
			ID: 201, Name: "Lawrence v. Texas", DecisionDate: "2003-06-26", Jurisdiction: &ill,
			Citations: []payload.CAPCitation{{Cite: "539 U.S. 558"}},
			CitesTo:   []payload.CAPCiteRef{{Cite: "1 Ill. App. 3d 9", CaseIDs: []int64{102}}},
			Casebody:  opinion("Liberty protects the person."),
		},
	})
	return root
}

func localOnly(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(context.Background(), append([]Option{
		WithDataRoot(archiveRoot(t), bulk.S3Config{}),
		WithoutCourtListener(),
		WithoutCAP(),
	}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestSearchLocalArchiveSingleMatch(t *testing.T) {
	root := t.TempDir()
	ill := payload.CAPJurisdiction{ID: 29, Name: "Ill.", NameLong: "Illinois", Slug: "ill"}
	writeJSON(t, filepath.Join(root, archive.ManifestName), []payload.ReporterManifest{
		{ID: 1, Slug: "ill-app-3d", Jurisdiction: ill, Volumes: []string{"1"}},
	})
	writeJSON(t, filepath.Join(root, "ill", "ill-app-3d", "1", archive.VolumeFile), []payload.CAPCase{
		{
			ID: 101, Name: "Acme v. Widget", DecisionDate: "2016-05-01", Jurisdiction: &ill,
			Citations: []payload.CAPCitation{{Cite: "1 Ill. App. 3d 1"}},
			Casebody:  opinion("Widget is liable for trade secret misappropriation."),
		},
		{
			ID: 102, Name: "Roe v. Doe", DecisionDate: "1990-01-01", Jurisdiction: &ill,
			Citations: []payload.CAPCitation{{Cite: "1 Ill. App. 3d 9"}},
			Casebody:  opinion("A contract dispute."),
		},
	})

	e, err := New(context.Background(),
		WithDataRoot(root, bulk.S3Config{}),
		WithoutCourtListener(),
		WithoutCAP(),
	)
	require.NoError(t, err)
	defer e.Close()

	resp := e.Search(context.Background(), &core.SearchQuery{Query: "trade secret misappropriation"})
	require.Len(t, resp.Results, 1)
	assert.Equal(t, core.SourceLocal, resp.Results[0].Source)
	assert.Equal(t, "Acme v. Widget", resp.Results[0].Name)
	assert.Equal(t, 1, resp.TotalCount)
}

// Scenario: the archive and one remote answer, the other remote is down.
func TestSearchSurvivesFailedRemote(t *testing.T) {
	cl := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count":2,"next":null,"results":[
			{"cluster_id":1,"caseName":"Acme Corp. v. Widget","citation":["1 Ill. App. 3d 1"]},
			{"cluster_id":2,"caseName":"Ajax v. Beta","citation":["5 F.3d 10"],"snippet":"trade secret"}]}`)
	}))
	t.Cleanup(cl.Close)
	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()

	e, err := New(context.Background(),
		WithDataRoot(archiveRoot(t), bulk.S3Config{}),
		WithCourtListener(courtlistener.WithBaseURL(cl.URL)),
		WithCAP(capapi.WithBaseURL(down.URL)),
	)
	require.NoError(t, err)
	defer e.Close()

	noEarlyExit := false
	resp := e.Search(context.Background(), &core.SearchQuery{Query: "trade secret", Limit: 10, PreferOffline: &noEarlyExit})

	require.Len(t, resp.Results, 2)
	assert.Equal(t, core.SourceLocal, resp.Results[0].Source)
	assert.Equal(t, "Acme v. Widget", resp.Results[0].Name)
	assert.Equal(t, core.SourceRemoteA, resp.Results[1].Source)
	assert.Equal(t, "Ajax v. Beta", resp.Results[1].Name)
	assert.Equal(t, 2, resp.TotalCount)

	require.Len(t, resp.Sources, 3)
	assert.True(t, resp.Sources[0].Succeeded)
	assert.Equal(t, 1, resp.Sources[0].ResultCount)
	assert.True(t, resp.Sources[1].Succeeded)
	assert.Equal(t, 2, resp.Sources[1].ResultCount)
	assert.Equal(t, core.SourceRemoteB, resp.Sources[2].Source)
	assert.True(t, resp.Sources[2].Attempted)
	assert.False(t, resp.Sources[2].Succeeded)
	assert.False(t, resp.Sources[2].Available)
	assert.NotEmpty(t, resp.Sources[2].Error)
}

func TestSearchCachesResponses(t *testing.T) {
	e := localOnly(t)

	q := &core.SearchQuery{Query: "trade secret"}
	first := e.Search(context.Background(), q)
	require.Len(t, first.Results, 1)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, e.CacheLen())

	second := e.Search(context.Background(), q)
	assert.True(t, second.Cached)
	assert.NotEqual(t, first.RequestID, second.RequestID)
	assert.Equal(t, first.Results[0].Name, second.Results[0].Name)
}

func TestSearchWithoutCache(t *testing.T) {
	e := localOnly(t, WithCache(config.CacheNone, 0, 0))

	e.Search(context.Background(), &core.SearchQuery{Query: "trade"})
	resp := e.Search(context.Background(), &core.SearchQuery{Query: "trade"})
	assert.False(t, resp.Cached)
	assert.Zero(t, e.CacheLen())
}

func TestBadgerCache(t *testing.T) {
	e := localOnly(t, WithCache(config.CacheBadger, time.Minute, 0))

	e.Search(context.Background(), &core.SearchQuery{Query: "liberty"})
	resp := e.Search(context.Background(), &core.SearchQuery{Query: "liberty"})
	assert.True(t, resp.Cached)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Lawrence v. Texas", resp.Results[0].Name)
}

func TestGetCaseByCitation(t *testing.T) {
	e := localOnly(t)

	res := e.GetCaseByCitation(context.Background(), "539  u.s. 558")
	require.NotNil(t, res)
	assert.Equal(t, "Lawrence v. Texas", res.Name)
	assert.Nil(t, e.GetCaseByCitation(context.Background(), "999 U.S. 1"))
}

func TestFindRelated(t *testing.T) {
	e := localOnly(t)
	ctx := context.Background()

	t.Run("follows outbound citations", func(t *testing.T) {
		got, err := e.FindRelated(ctx, core.SourceLocal, "201", 5)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Roe v. Doe", got[0].Name)
	})

	t.Run("falls back to first party", func(t *testing.T) {
		got, err := e.FindRelated(ctx, core.SourceLocal, "101", 5)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Acme v. Gadget", got[0].Name)
	})

	t.Run("missing case", func(t *testing.T) {
		_, err := e.FindRelated(ctx, core.SourceLocal, "999", 5)
		assert.ErrorIs(t, err, core.ErrCaseNotFound)
	})

	t.Run("source not configured", func(t *testing.T) {
		_, err := e.FindRelated(ctx, core.SourceRemoteA, "1", 5)
		assert.ErrorIs(t, err, core.ErrUnknownSource)
	})
}

func TestSourceStatus(t *testing.T) {
	e := localOnly(t)

	statuses := e.SourceStatus()
	require.Len(t, statuses, 1)
	assert.Equal(t, core.SourceLocal, statuses[0].Source)
	assert.True(t, statuses[0].Available)
	assert.Equal(t, -1, statuses[0].QuotaRemaining)
}

func TestMissingArchiveLeavesLocalUnavailable(t *testing.T) {
	e, err := New(context.Background(),
		WithDataRoot(filepath.Join(t.TempDir(), "absent"), bulk.S3Config{}),
		WithoutCourtListener(),
		WithoutCAP(),
	)
	require.NoError(t, err)
	defer e.Close()

	assert.False(t, e.SourceStatus()[0].Available)
	resp := e.Search(context.Background(), &core.SearchQuery{Query: "trade"})
	assert.Empty(t, resp.Results)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, core.DiagSourceUnavailable, resp.Sources[0].Error)
}

func TestPersistentIndex(t *testing.T) {
	index := filepath.Join(t.TempDir(), "index")

	e, err := New(context.Background(),
		WithIndexPath(index),
		WithDataRoot(archiveRoot(t), bulk.S3Config{}),
		WithoutCourtListener(),
		WithoutCAP(),
	)
	require.NoError(t, err)
	require.NoError(t, e.Close())

	// Reopen without a data root; the stored archive serves searches.
	e, err = New(context.Background(), WithIndexPath(index), WithoutCourtListener(), WithoutCAP())
	require.NoError(t, err)
	defer e.Close()

	resp := e.Search(context.Background(), &core.SearchQuery{Query: "liberty"})
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Lawrence v. Texas", resp.Results[0].Name)
}

func TestMetricsGathered(t *testing.T) {
	e := localOnly(t)
	e.Search(context.Background(), &core.SearchQuery{Query: "trade"})

	families, err := e.Gatherer().Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["caselaw_searches_total"])
	assert.True(t, names["caselaw_adapter_requests_total"])
}

func TestInvalidOptions(t *testing.T) {
	_, err := New(context.Background(), WithCache("redis", time.Minute, 0))
	assert.Error(t, err)

	_, err = New(context.Background(), WithoutCAP(), WithCourtListener(courtlistener.WithBaseURL("not a url")))
	assert.Error(t, err)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.CourtListener.Enabled = false
	cfg.CAP.Enabled = false
	cfg.Cache.Backend = config.CacheMemory
	cfg.Cache.TTL = time.Minute
	cfg.Archive.DataRoot = archiveRoot(t)

	e, err := New(context.Background(), OptionsFromConfig(cfg)...)
	require.NoError(t, err)
	defer e.Close()

	statuses := e.SourceStatus()
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].Available)
}
