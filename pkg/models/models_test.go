package models_test

import (
	"encoding/json"
	"testing"

	"github.com/kiranshivaraju/hypecycle/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorData_GetSet(t *testing.T) {
	var d models.CollectorData
	for _, s := range models.Sources {
		assert.Nil(t, d.Get(s), s)
	}

	social := &models.SocialResult{Mentions30d: 12}
	d.Set(models.SourceSocial, social)
	assert.Same(t, social, d.Social)
	assert.Equal(t, models.SourceSocial, d.Get(models.SourceSocial).Source())

	// a result filed under the wrong source clears the slot
	d.Set(models.SourceSocial, &models.NewsResult{})
	assert.Nil(t, d.Social)
	assert.Nil(t, d.Get(models.SourceSocial))

	d.Set(models.SourceNews, &models.NewsResult{ArticlesTotal: 3})
	d.Set(models.SourceNews, nil)
	assert.Nil(t, d.News)
}

func TestCollectorData_GetReturnsUntypedNil(t *testing.T) {
	var d models.CollectorData
	// a typed nil inside the interface would make this comparison false
	assert.True(t, d.Get(models.SourceFinance) == nil)
}

func TestCollectorData_Succeeded(t *testing.T) {
	d := models.CollectorData{
		Social:  &models.SocialResult{},
		Patents: &models.PatentsResult{},
		Finance: &models.FinanceResult{},
	}
	assert.Equal(t, 3, d.Succeeded())
}

func TestClassificationResult_RecountSources(t *testing.T) {
	r := &models.ClassificationResult{CollectorData: models.CollectorData{
		Social: &models.SocialResult{},
		Papers: &models.PapersResult{},
	}}
	r.RecountSources()
	assert.Equal(t, 2, r.CollectorsSucceeded)
	assert.True(t, r.PartialData)

	r.CollectorData.Patents = &models.PatentsResult{}
	r.CollectorData.News = &models.NewsResult{}
	r.CollectorData.Finance = &models.FinanceResult{}
	r.RecountSources()
	assert.Equal(t, 5, r.CollectorsSucceeded)
	assert.False(t, r.PartialData)
}

func TestClassificationResult_JSONOmitsID(t *testing.T) {
	b, err := json.Marshal(models.ClassificationResult{Keyword: "crispr", Phase: models.PhaseTrough})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.NotContains(t, m, "id")
	assert.Equal(t, "trough", m["phase"])
	// absent sources serialize as explicit nulls
	data := m["collector_data"].(map[string]any)
	assert.Contains(t, data, "finance")
	assert.Nil(t, data["finance"])
}

func TestPhase_Valid(t *testing.T) {
	for _, p := range models.Phases {
		assert.True(t, p.Valid(), p)
	}
	assert.False(t, models.Phase("hype").Valid())
	assert.False(t, models.Phase("").Valid())
}

func TestSource_Label(t *testing.T) {
	assert.Equal(t, "Patents (PatentsView)", models.SourcePatents.Label())
	assert.Equal(t, "unknown", models.Source("unknown").Label())
	assert.NotContains(t, models.ExpandableSources, models.SourceFinance)
	assert.Len(t, models.ExpandableSources, 4)
}
