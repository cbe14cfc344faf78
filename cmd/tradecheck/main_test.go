package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupReferenceData(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	embeddings := `{"chunks":[],"hsCodesData":{
		"61091000":{"policy":"Free","description":"T-shirts of cotton"},
		"93019000":{"policy":"Prohibited","description":"Military weapons"}}}`

	for _, corpus := range []string{"india", "usa"} {
		dir := filepath.Join(root, corpus)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "embeddings-database.json"), []byte(embeddings), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "india", "item-to-hs-mapping.json"),
		[]byte(`{"t-shirt":"61091000","rifle":"93019000"}`), 0o644))

	t.Setenv("STORAGE_TYPE", "local")
	t.Setenv("STORAGE_LOCAL_PATH", root)
	t.Setenv("GEMINI_API_KEY", "")
	return root
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeShipment(t *testing.T, dir string, items string) string {
	t.Helper()
	path := filepath.Join(dir, "shipment.json")
	body := `{"organizationName":"Acme","sourceAddress":{"country":"India"},
		"destinationAddress":{"country":"USA"},"boxes":[{"items":[` + items + `]}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestShipmentCommandApproved(t *testing.T) {
	root := setupReferenceData(t)
	path := writeShipment(t, root, `{"itemName":"t-shirt"}`)

	out, err := runCmd(t, "shipment", path)
	require.NoError(t, err)

	var result struct {
		Status bool `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Status)
}

func TestShipmentCommandRejected(t *testing.T) {
	root := setupReferenceData(t)
	path := writeShipment(t, root, `{"itemName":"rifle"}`)

	out, err := runCmd(t, "shipment", path)
	assert.ErrorIs(t, err, errRejected)
	assert.Contains(t, out, "Export not allowed for HS Code 93019000")
}

func TestClassifyCommand(t *testing.T) {
	setupReferenceData(t)

	out, err := runCmd(t, "classify", "cotton t-shirt", "--jurisdiction", "india")
	require.NoError(t, err)

	var result classifyOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "INDIA", result.Jurisdiction)
	assert.Equal(t, "61091000", result.Resolution.Code)
	require.NotNil(t, result.Verdict)
	assert.True(t, result.Verdict.Allowed)
}

func TestClassifyCommandUnsupportedJurisdiction(t *testing.T) {
	setupReferenceData(t)

	_, err := runCmd(t, "classify", "coffee", "--jurisdiction", "brazil")
	assert.ErrorContains(t, err, "not implemented for BRAZIL")
}
