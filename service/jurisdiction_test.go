package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedu111/gorechitee/config"
	"github.com/vedu111/gorechitee/models"
)

func TestRegistryLookup(t *testing.T) {
	reg := newTestRegistry(t, nil)

	tests := []struct {
		name string
		want string
	}{
		{"INDIA", "INDIA"},
		{"india", "INDIA"},
		{" usa ", "USA"},
		{"United States", "USA"},
		{"us", "USA"},
		{"Canada", "CANADA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, err := reg.Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, j.Name())
		})
	}
}

func TestRegistryLookupUnsupported(t *testing.T) {
	reg := newTestRegistry(t, nil)

	_, err := reg.Lookup("Brazil")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrJurisdictionUnsupported))
	assert.Equal(t, "compliance check not implemented for BRAZIL", err.Error())
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	j := &ImportAuthority{authority{name: "USA"}}

	require.NoError(t, reg.Register(j, "US"))
	assert.Error(t, reg.Register(&ImportAuthority{authority{name: "US"}}))
	assert.Equal(t, []string{"US", "USA"}, reg.Names())
}

func TestBuildRegistryErrors(t *testing.T) {
	deps := RegistryDeps{
		Corpora:   map[string]*models.ReferenceCorpus{"usa": usaCorpus()},
		Resolver:  NewCodeResolver(),
		Evaluator: NewPolicyEvaluator(),
	}

	_, err := BuildRegistry([]config.JurisdictionConfig{
		{Name: "INDIA", Kind: config.KindExport, Corpus: "india"},
	}, deps)
	assert.ErrorContains(t, err, `corpus "india" not loaded`)

	_, err = BuildRegistry([]config.JurisdictionConfig{
		{Name: "USA", Kind: config.KindImport, Corpus: "usa", AllowRule: "policy +"},
	}, deps)
	assert.ErrorContains(t, err, "jurisdiction USA")
}

func TestExportAuthorityEvaluateExport(t *testing.T) {
	provider := &stubProvider{err: ErrProviderUnavailable}
	reg := newTestRegistry(t, provider)
	india, err := reg.Lookup("INDIA")
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("allowed by code", func(t *testing.T) {
		v, err := india.EvaluateExport(ctx, models.ItemQuery{HSCode: "61091000", ItemName: "t-shirt"})
		require.NoError(t, err)
		assert.Equal(t, models.Verdict{
			Status:          true,
			Allowed:         true,
			HSCode:          "61091000",
			Policy:          "Free",
			Description:     "T-shirts of cotton",
			Conditions:      "Standard export conditions apply",
			QueriedItemName: "t-shirt",
		}, v)
	})

	t.Run("allowed by item name", func(t *testing.T) {
		v, err := india.EvaluateExport(ctx, models.ItemQuery{ItemName: "Laptop Computer"})
		require.NoError(t, err)
		assert.True(t, v.Status)
		assert.Equal(t, "84713010", v.HSCode)
	})

	t.Run("denied falls back to template", func(t *testing.T) {
		v, err := india.EvaluateExport(ctx, models.ItemQuery{HSCode: "93019000"})
		require.NoError(t, err)
		assert.False(t, v.Status)
		assert.False(t, v.Allowed)
		assert.Equal(t, "Prohibited", v.Policy)
		assert.Equal(t,
			"Export not allowed for HS Code 93019000 with policy Prohibited. Unable to determine a reason due to an AI processing error.",
			v.Reason)
	})

	t.Run("unknown item name", func(t *testing.T) {
		v, err := india.EvaluateExport(ctx, models.ItemQuery{ItemName: "garden gnome"})
		require.NoError(t, err)
		assert.False(t, v.Status)
		assert.Equal(t,
			"Could not find an HS code matching item name: garden gnome. Please provide a valid HS code.",
			v.Reason)
	})

	t.Run("unmatched description echoes query", func(t *testing.T) {
		v, err := india.EvaluateExport(ctx, models.ItemQuery{ItemDescription: "  Garden Gnome "})
		require.NoError(t, err)
		assert.False(t, v.Status)
		assert.Equal(t, "garden gnome", v.QueriedDescription)
		assert.Contains(t, v.Reason, `No matching HS code found for description "garden gnome"`)
	})

	t.Run("unknown code", func(t *testing.T) {
		v, err := india.EvaluateExport(ctx, models.ItemQuery{HSCode: "999999"})
		require.NoError(t, err)
		assert.False(t, v.Status)
		assert.Equal(t, "999999", v.QueriedHSCode)
		assert.Contains(t, v.Reason, "was not found in the export compliance regulations")
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := india.EvaluateExport(ctx, models.ItemQuery{Material: "cotton"})
		assert.ErrorIs(t, err, ErrMissingItemFields)
	})
}

func TestExportAuthorityDeniedReasonIsGenerated(t *testing.T) {
	provider := &stubProvider{text: "Weapons need a licence."}
	india, err := newTestRegistry(t, provider).Lookup("INDIA")
	require.NoError(t, err)

	v, err := india.EvaluateImport(context.Background(), models.ItemQuery{HSCode: "93019000"})
	require.NoError(t, err)
	assert.Equal(t, "Weapons need a licence.", v.Reason)
	assert.Contains(t, provider.Prompts()[0], "is not allowed for import")
}

func TestExportAuthorityLookupByDescription(t *testing.T) {
	india, err := newTestRegistry(t, nil).Lookup("INDIA")
	require.NoError(t, err)
	ctx := context.Background()

	v, err := india.LookupByDescription(ctx, "motors", "")
	require.NoError(t, err)
	assert.True(t, v.Status)
	assert.Equal(t, "85011011", v.HSCode)
	assert.Equal(t, "Found via partial match", v.Note)

	v, err = india.LookupByDescription(ctx, "garden gnome", "")
	require.NoError(t, err)
	assert.False(t, v.Status)
	assert.Equal(t, "garden gnome", v.QueriedDescription)

	_, err = india.LookupByDescription(ctx, "", "")
	assert.ErrorIs(t, err, ErrMissingLookup)
}

func TestImportAuthorityEvaluateImport(t *testing.T) {
	reg := newTestRegistry(t, nil)
	usa, err := reg.Lookup("USA")
	require.NoError(t, err)
	ctx := context.Background()

	v, err := usa.EvaluateImport(ctx, models.ItemQuery{HSCode: "61091000"})
	require.NoError(t, err)
	assert.True(t, v.Status)
	assert.Equal(t, "Free", v.Policy)
	assert.Empty(t, v.Note)

	v, err = usa.EvaluateImport(ctx, models.ItemQuery{HSCode: "96081019"})
	require.NoError(t, err)
	assert.False(t, v.Status)
	assert.Equal(t, "Import/export not allowed for HS Code 96081019 with policy Restricted", v.Reason)

	v, err = usa.EvaluateImport(ctx, models.ItemQuery{HSCode: "93019000"})
	require.NoError(t, err)
	assert.Equal(t, "Import/export not allowed for HS Code 93019000 with policy Restricted", v.Reason)

	v, err = usa.EvaluateImport(ctx, models.ItemQuery{HSCode: "999999"})
	require.NoError(t, err)
	assert.False(t, v.Status)
	assert.Equal(t,
		"The HS Code 999999 was not found in the USA import/export regulations. Please verify the code and try again.",
		v.Reason)
}

func TestImportAuthorityNoteOnSuccess(t *testing.T) {
	canada, err := newTestRegistry(t, nil).Lookup("CANADA")
	require.NoError(t, err)

	v, err := canada.EvaluateImport(context.Background(), models.ItemQuery{HSCode: "61091000"})
	require.NoError(t, err)
	assert.True(t, v.Status)
	assert.Equal(t, "Canadian import compliance check simulated", v.Note)

	v, err = canada.EvaluateImport(context.Background(), models.ItemQuery{HSCode: "96081019"})
	require.NoError(t, err)
	assert.False(t, v.Status)
	assert.Empty(t, v.Note)
}

func TestImportAuthorityLookupByDescription(t *testing.T) {
	usa, err := newTestRegistry(t, nil).Lookup("USA")
	require.NoError(t, err)
	ctx := context.Background()

	v, err := usa.LookupByDescription(ctx, "ball point pens", "")
	require.NoError(t, err)
	assert.False(t, v.Status)
	assert.Equal(t, "96081019", v.HSCode)
	assert.Contains(t, v.Reason, "with policy Restricted")

	v, err = usa.LookupByDescription(ctx, "vests of cotton", "")
	require.NoError(t, err)
	assert.True(t, v.Status)
	assert.Equal(t, "61091000", v.HSCode)
	assert.Equal(t, "Found via partial match", v.Note)

	_, err = usa.LookupByDescription(ctx, "", "")
	assert.ErrorIs(t, err, ErrMissingLookup)
}

func TestImportAuthorityEmptyCorpus(t *testing.T) {
	reg, err := BuildRegistry([]config.JurisdictionConfig{
		{Name: "USA", Kind: config.KindImport, Corpus: "usa", Regulations: "USA import/export regulations"},
	}, RegistryDeps{
		Corpora:   map[string]*models.ReferenceCorpus{"usa": models.NewReferenceCorpus("usa", nil, nil, nil)},
		Resolver:  NewCodeResolver(),
		Evaluator: NewPolicyEvaluator(),
	})
	require.NoError(t, err)

	usa, err := reg.Lookup("USA")
	require.NoError(t, err)

	v, err := usa.LookupByDescription(context.Background(), "t-shirt", "")
	require.NoError(t, err)
	assert.False(t, v.Status)
	assert.Equal(t, "No HS codes available in the database", v.Reason)

	v, err = usa.LookupByDescription(context.Background(), "", "999999")
	require.NoError(t, err)
	assert.False(t, v.Status)
	assert.Equal(t, "999999", v.QueriedHSCode)
}
