package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractqa/internal/domain"
)

func cands(texts ...string) []domain.ScoredCandidate {
	out := make([]domain.ScoredCandidate, len(texts))
	for i, t := range texts {
		out[i] = domain.ScoredCandidate{SegmentID: "seg_" + string(rune('0'+i)), Index: i, Score: 1 - float64(i)/10, Text: t}
	}
	return out
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		q    string
		want Intent
	}{
		{"What is the governing law?", IntentGoverningLaw},
		{"Which courts have jurisdiction over disputes?", IntentVenue},
		{"When can either party terminate?", IntentTermination},
		{"Does the contract renew automatically?", IntentRenewal},
		{"How long must confidential information be protected?", IntentConfidentiality},
		{"Is there a cap on liability?", IntentLiability},
		{"What are the payment terms?", IntentPayment},
		{"What is the term of the agreement?", IntentDuration},
		{"How much is the contract worth?", IntentAmounts},
		{"Who are the parties?", IntentParties},
		{"What is the effective date?", IntentDates},
		{"Summarize the delivery schedule", IntentUnknown},
		{"   ", IntentUnknown},
		{"Which laws apply?", IntentGoverningLaw},
		{"What fees are charged?", IntentPayment},
		{"Is there an NDA?", IntentConfidentiality},
		{"Is government approval required?", IntentUnknown},
		{"Where is the feedback form?", IntentUnknown},
		{"Which export laws restrict shipment?", IntentUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyIntent(tt.q))
		})
	}
}

func TestRewriteQuery(t *testing.T) {
	assert.Equal(t, "Summarize the delivery schedule", RewriteQuery("Summarize the delivery schedule"))
	got := RewriteQuery("What is the governing law?")
	assert.Contains(t, got, "What is the governing law?")
	assert.Contains(t, got, "laws of")
	assert.Contains(t, RewriteQuery("Who are the parties?"), "by and among")
	// intents without boosts stay untouched
	assert.Equal(t, "Is there a cap on liability?", RewriteQuery("Is there a cap on liability?"))
}

func TestTryExtract_GoverningLaw(t *testing.T) {
	e := NewExtractor()
	cs := cands(
		"Invoices are payable net 30 days. This Agreement shall be governed by the laws of the State of California. Venue is Los Angeles.",
		"Payment terms: invoices are due net 30 days from receipt.",
	)
	ans := e.TryExtract(cs, IntentGoverningLaw)
	require.NotNil(t, ans)
	assert.Equal(t, domain.ModeExtractive, ans.Mode)
	assert.Equal(t, "This Agreement shall be governed by the laws of the State of California.", ans.Text)
	assert.Equal(t, []string{"seg_0"}, ans.Citations)
}

func TestTryExtract_AgreeingValuesCiteAllSegments(t *testing.T) {
	e := NewExtractor()
	cs := cands(
		"Either party may terminate this Agreement on thirty (30) days prior written notice.",
		"Fees are listed in Schedule A.",
		"The Customer may terminate upon 30 days' written notice to the Supplier.",
	)
	ans := e.TryExtract(cs, IntentTermination)
	require.NotNil(t, ans)
	assert.Equal(t, []string{"seg_0", "seg_2"}, ans.Citations)
	assert.Contains(t, ans.Text, "thirty (30) days")
}

func TestTryExtract_ConflictReturnsNil(t *testing.T) {
	e := NewExtractor()
	cs := cands(
		"This Agreement is governed by the laws of New York.",
		"The services schedule is governed by the laws of Delaware.",
	)
	assert.Nil(t, e.TryExtract(cs, IntentGoverningLaw))
}

func TestTryExtract_FallsThroughFamilies(t *testing.T) {
	e := NewExtractor()

	t.Run("payment falls back to amounts", func(t *testing.T) {
		ans := e.TryExtract(cands("The monthly fee is $12,500 payable in arrears."), IntentPayment)
		require.NotNil(t, ans)
		assert.Equal(t, "The monthly fee is $12,500 payable in arrears.", ans.Text)
	})

	t.Run("termination trigger when no notice period", func(t *testing.T) {
		ans := e.TryExtract(cands("Either party may terminate for material breach. Nothing else applies."), IntentTermination)
		require.NotNil(t, ans)
		assert.Equal(t, "Either party may terminate for material breach.", ans.Text)
	})

	t.Run("renewal without a term", func(t *testing.T) {
		ans := e.TryExtract(cands("The subscription renews automatically unless cancelled."), IntentRenewal)
		require.NotNil(t, ans)
		assert.Equal(t, []string{"seg_0"}, ans.Citations)
	})
}

func TestTryExtract_Catalogue(t *testing.T) {
	e := NewExtractor()
	tests := []struct {
		name   string
		intent Intent
		text   string
		want   string
	}{
		{"parties", IntentParties, `This Agreement is entered into by and between Acme Corp. and Beta LLC (the "Supplier").`, "by and between Acme Corp. and Beta LLC"},
		{"effective date", IntentDates, "This Agreement is effective as of March 1, 2024 and signed on March 3, 2024.", "March 1, 2024"},
		{"duration", IntentDuration, "The term of this agreement is three (3) years from the effective date.", "three (3) years"},
		{"renewal term", IntentRenewal, "Thereafter it renews automatically for successive one-year periods.", "one-year"},
		{"confidentiality", IntentConfidentiality, "Each party shall keep confidential information secret for five years after termination.", "five years"},
		{"liability cap", IntentLiability, "The Supplier's total liability shall not exceed the fees paid in the prior twelve months.", "shall not exceed"},
		{"venue", IntentVenue, "The parties submit to the exclusive jurisdiction of the courts of the State of New York.", "New York"},
		{"payment net", IntentPayment, "All invoices are payable net 45 days.", "net 45 days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ans := e.TryExtract(cands(tt.text), tt.intent)
			require.NotNil(t, ans)
			assert.Contains(t, ans.Text, tt.want)
			assert.Equal(t, []string{"seg_0"}, ans.Citations)
		})
	}
}

func TestTryExtract_NoAnswer(t *testing.T) {
	e := NewExtractor()
	assert.Nil(t, e.TryExtract(cands("Deliveries happen weekly."), IntentUnknown))
	assert.Nil(t, e.TryExtract(cands("Deliveries happen weekly."), IntentGoverningLaw))
	assert.Nil(t, e.TryExtract(nil, IntentGoverningLaw))
}

func TestNormalizePeriod(t *testing.T) {
	for in, want := range map[string]string{
		"thirty (30) days": "30 day",
		"30 days":          "30 day",
		"one-year":         "1 year",
		"Five Years":       "5 year",
		"45":               "45 day",
	} {
		assert.Equal(t, want, normalizePeriod(in), in)
	}
}

func TestFamiliesAndPlan(t *testing.T) {
	e := NewExtractor()
	names := map[string]bool{}
	for _, f := range e.Families() {
		names[f.Name] = true
		assert.NotEmpty(t, f.Patterns, f.Name)
		for _, re := range f.Patterns {
			assert.GreaterOrEqual(t, re.SubexpIndex("value"), 0, f.Name)
		}
	}
	for intent, plan := range intentFamilies {
		for _, name := range plan {
			assert.True(t, names[name], "%s references unknown family %s", intent, name)
		}
	}
	assert.Equal(t, []string{"effective_date", "dates"}, e.Plan(IntentDates))
	assert.Empty(t, e.Plan(IntentUnknown))
}
