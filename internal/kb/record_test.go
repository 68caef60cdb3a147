package kb

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRecordID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"#14:23", true},
		{"14:23", true},
		{"#-14:-23", true},
		{"KRAS", false},
		{"ENSG00000133703.11", false},
		{"#14:23x", false},
		{"#14", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRecordID(tt.in), tt.in)
	}
}

func TestResultSet(t *testing.T) {
	set := NewResultSet()
	a := &OntologyTerm{BaseRecord: BaseRecord{ID: "#1:0", Class: ClassVocabulary}, Name: "first"}
	b := &OntologyTerm{BaseRecord: BaseRecord{ID: "#1:1", Class: ClassVocabulary}, Name: "second"}
	aAgain := &OntologyTerm{BaseRecord: BaseRecord{ID: "#1:0", Class: ClassVocabulary}, Name: "replaced"}

	set.Add(a, b)
	set.Add(aAgain)

	require.Equal(t, 2, set.Len())
	records := set.Records()
	assert.Equal(t, []string{"#1:0", "#1:1"}, RIDs(records))
	// the last record added for an id wins, first-insertion order is kept
	assert.Equal(t, "replaced", records[0].(*OntologyTerm).Name)
}

func TestDecodeRecord(t *testing.T) {
	t.Run("positional_variant", func(t *testing.T) {
		rec, err := DecodeRecord([]byte(`{
			"@rid": "#30:0",
			"@class": "PositionalVariant",
			"displayName": "KRAS:p.G12D",
			"reference1": "#10:0",
			"type": {"@rid": "#20:1", "@class": "Vocabulary", "name": "substitution"},
			"break1Start": {"@class": "ProteinPosition", "pos": 12},
			"refSeq": "G",
			"untemplatedSeq": "D",
			"untemplatedSeqSize": 1
		}`))
		require.NoError(t, err)

		variant, ok := rec.(*PositionalVariant)
		require.True(t, ok)
		assert.Equal(t, "#30:0", variant.RID())
		assert.Equal(t, "#10:0", variant.Reference1.ID)
		assert.Nil(t, variant.Reference1.Feature)
		assert.Equal(t, "substitution", variant.Type.Name())
		require.NotNil(t, variant.Break1Start)
		assert.Equal(t, ClassProteinPosition, variant.Break1Start.Class)
		require.NotNil(t, variant.Break1Start.Pos)
		assert.Equal(t, 12, *variant.Break1Start.Pos)
	})

	t.Run("category_variant", func(t *testing.T) {
		rec, err := DecodeRecord([]byte(`{
			"@rid": "#31:0",
			"@class": "CategoryVariant",
			"reference1": "#10:0",
			"reference2": "#10:1",
			"type": "#20:5",
			"zygosity": "homozygous"
		}`))
		require.NoError(t, err)

		variant, ok := rec.(*CategoryVariant)
		require.True(t, ok)
		require.NotNil(t, variant.Reference2)
		assert.Equal(t, "#10:1", variant.Reference2.ID)
		assert.Equal(t, "homozygous", variant.Zygosity)
	})

	t.Run("feature", func(t *testing.T) {
		rec, err := DecodeRecord([]byte(`{
			"@rid": "#10:0",
			"@class": "Feature",
			"name": "KRAS",
			"sourceId": "ENSG00000133703",
			"biotype": "gene"
		}`))
		require.NoError(t, err)

		feature, ok := rec.(*Feature)
		require.True(t, ok)
		assert.Equal(t, "gene", feature.Biotype)
	})

	t.Run("unmodeled_class", func(t *testing.T) {
		rec, err := DecodeRecord([]byte(`{"@rid": "#40:0", "@class": "Statement", "displayName": "therapy"}`))
		require.NoError(t, err)

		generic, ok := rec.(*GenericRecord)
		require.True(t, ok)
		assert.Equal(t, "Statement", generic.ClassName())
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := DecodeRecord([]byte(`{"@rid": "#30:0", "@class": "PositionalVariant", "break1Start": 12}`))
		assert.Error(t, err)
	})
}

func TestLinkRoundTrip(t *testing.T) {
	link := FeatureLink{ID: "#10:0", Feature: &Feature{
		OntologyTerm: OntologyTerm{BaseRecord: BaseRecord{ID: "#10:0", Class: ClassFeature}, Name: "KRAS"},
	}}

	// links always marshal back to the bare id
	data, err := json.Marshal(link)
	require.NoError(t, err)
	assert.Equal(t, `"#10:0"`, string(data))

	var decoded FeatureLink
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "#10:0", decoded.ID)
	assert.Nil(t, decoded.Feature)
}
