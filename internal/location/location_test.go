package location

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobmerge/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(s string) *string { return &s }

// tableOracle answers every requested location it knows, in "-> " format.
type tableOracle struct {
	table   map[string]string
	batches [][]string
	err     error
}

func (o *tableOracle) InferCountries(_ context.Context, locations []string) (string, error) {
	o.batches = append(o.batches, append([]string(nil), locations...))
	if o.err != nil {
		return "", o.err
	}
	var b strings.Builder
	for _, loc := range locations {
		if c, ok := o.table[loc]; ok {
			fmt.Fprintf(&b, "- %s -> %s\n", loc, c)
		}
	}
	return b.String(), nil
}

func TestParseCountryMap(t *testing.T) {
	resp := strings.Join([]string{
		"Here are the countries:",
		"- Berlin -> Germany",
		"* NYC -> United States",
		"• Lisbon -> Portugal",
		"1. Toronto, ON -> Canada",
		"2) Tokyo -> Japan",
		`"São Paulo" -> "Brazil"`,
		"Paris -> France -> Europe",
		"Nowhere ->",
		"",
		"   Europe -> Europe   ",
	}, "\n")

	got := ParseCountryMap(resp)
	assert.Equal(t, map[string]string{
		"Berlin":      "Germany",
		"NYC":         "United States",
		"Lisbon":      "Portugal",
		"Toronto, ON": "Canada",
		"Tokyo":       "Japan",
		"São Paulo":   "Brazil",
		"Europe":      "Europe",
	}, got)
}

func TestParseCountryMap_Garbage(t *testing.T) {
	assert.Empty(t, ParseCountryMap("I cannot help with that."))
	assert.Empty(t, ParseCountryMap(""))
}

func TestNormalize_RemoteOverridesLocation(t *testing.T) {
	oracle := &tableOracle{table: map[string]string{"Berlin": "Germany"}}
	n := NewNormalizer(oracle, 10, discardLogger())

	res, err := n.Normalize(context.Background(), []model.JobRecord{
		{JobID: "1", IsRemote: true, LocationRaw: ptr("Berlin")},
	})
	require.NoError(t, err)
	assert.Equal(t, model.LocationRemote, res.Records[0].LocationCountry)
	assert.Empty(t, oracle.batches, "remote records are never queried")
	assert.Equal(t, 1, res.Remote)
}

func TestNormalize_MissingLocationIsUnknown(t *testing.T) {
	oracle := &tableOracle{}
	n := NewNormalizer(oracle, 10, discardLogger())

	res, err := n.Normalize(context.Background(), []model.JobRecord{
		{JobID: "1"},
		{JobID: "2", LocationRaw: ptr("   ")},
	})
	require.NoError(t, err)
	for _, r := range res.Records {
		assert.Equal(t, model.LocationUnknown, r.LocationCountry)
	}
	assert.Empty(t, oracle.batches)
	assert.Equal(t, 2, res.Unknown)
}

func TestNormalize_SharedRawStringQueriedOnce(t *testing.T) {
	oracle := &tableOracle{table: map[string]string{"NYC": "United States", "Berlin": "Germany"}}
	n := NewNormalizer(oracle, 10, discardLogger())

	res, err := n.Normalize(context.Background(), []model.JobRecord{
		{JobID: "1", LocationRaw: ptr("NYC")},
		{JobID: "2", LocationRaw: ptr("Berlin")},
		{JobID: "3", LocationRaw: ptr("NYC")},
		{JobID: "4", LocationRaw: ptr("Atlantis")},
	})
	require.NoError(t, err)
	require.Len(t, oracle.batches, 1)
	assert.Equal(t, []string{"NYC", "Berlin", "Atlantis"}, oracle.batches[0])

	assert.Equal(t, "United States", res.Records[0].LocationCountry)
	assert.Equal(t, "Germany", res.Records[1].LocationCountry)
	assert.Equal(t, res.Records[0].LocationCountry, res.Records[2].LocationCountry)
	assert.Equal(t, model.LocationUnknown, res.Records[3].LocationCountry)
	assert.Equal(t, 3, res.Queried)
	assert.Equal(t, 1, res.Unresolved)
}

func TestNormalize_ChunksRequests(t *testing.T) {
	oracle := &tableOracle{table: map[string]string{"a": "A", "b": "B", "c": "C"}}
	n := NewNormalizer(oracle, 2, discardLogger())

	res, err := n.Normalize(context.Background(), []model.JobRecord{
		{LocationRaw: ptr("a")}, {LocationRaw: ptr("b")}, {LocationRaw: ptr("c")},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, oracle.batches)
	assert.Equal(t, "C", res.Records[2].LocationCountry)
}

func TestNormalize_OracleFailureFallsBackToUnknown(t *testing.T) {
	oracle := &tableOracle{err: errors.New("provider down")}
	n := NewNormalizer(oracle, 10, discardLogger())

	res, err := n.Normalize(context.Background(), []model.JobRecord{
		{JobID: "1", LocationRaw: ptr("Berlin")},
		{JobID: "2", IsRemote: true},
	})
	require.NoError(t, err)
	assert.Equal(t, model.LocationUnknown, res.Records[0].LocationCountry)
	assert.Equal(t, model.LocationRemote, res.Records[1].LocationCountry)
	assert.Equal(t, 1, res.Unresolved)
}

func TestNormalize_EveryRecordGetsACountry(t *testing.T) {
	oracle := &tableOracle{table: map[string]string{"Berlin": "Germany"}}
	n := NewNormalizer(oracle, 10, discardLogger())

	res, err := n.Normalize(context.Background(), []model.JobRecord{
		{LocationRaw: ptr("Berlin")}, {LocationRaw: ptr("Mars")}, {}, {IsRemote: true},
	})
	require.NoError(t, err)
	for _, r := range res.Records {
		assert.NotEmpty(t, r.LocationCountry)
	}
}
