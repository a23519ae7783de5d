// Package extract answers narrow contract questions directly from retrieved
// text with a catalogue of regular-expression pattern families.
package extract

import (
	"strings"
	"unicode"
)

// Intent is a coarse classification of what a question asks about.
type Intent string

const (
	IntentGoverningLaw    Intent = "governing_law"
	IntentVenue           Intent = "venue"
	IntentDates           Intent = "dates"
	IntentParties         Intent = "parties"
	IntentAmounts         Intent = "amounts"
	IntentPayment         Intent = "payment"
	IntentDuration        Intent = "duration"
	IntentTermination     Intent = "termination"
	IntentRenewal         Intent = "renewal"
	IntentConfidentiality Intent = "confidentiality"
	IntentLiability       Intent = "liability"
	IntentUnknown         Intent = "unknown"
)

type intentRule struct {
	intent   Intent
	keywords []string
}

// Checked in order; the first rule with a matching keyword wins. Keywords
// match at the start of a word, and a trailing space makes one a whole word.
var intentRules = []intentRule{
	{IntentVenue, []string{"venue", "which court", "what court", "courts", "jurisdiction", "forum", "dispute"}},
	{IntentGoverningLaw, []string{"governing law", "governed by", "govern ", "governs ", "applicable law", "choice of law", "which law", "what law", "whose law", "laws apply", "law applies"}},
	{IntentRenewal, []string{"renew", "extension", "extend"}},
	{IntentTermination, []string{"terminat", "cancel", "expire", "expiry"}},
	{IntentConfidentiality, []string{"confidential", "non-disclosure", "nda ", "secret", "proprietary"}},
	{IntentLiability, []string{"liability", "liable", "indemn", "damages"}},
	{IntentPayment, []string{"payment", "pay ", "payable", "invoice", "fee ", "fees ", "charges", "settle", "compensation", "remuneration"}},
	{IntentDuration, []string{"how long", "duration", "term of", "length of", "period"}},
	{IntentAmounts, []string{"how much", "amount", "price", "cost ", "costs ", "worth", "value", "sum ", "$"}},
	{IntentParties, []string{"parties", "party", "who ", "roles", "between", "by and among", "signator"}},
	{IntentDates, []string{"when", "date", "effective", "commence", "signed", "dated"}},
}

// ClassifyIntent maps a question to an Intent by keyword matching.
func ClassifyIntent(question string) Intent {
	q := " " + strings.Join(strings.FieldsFunc(strings.ToLower(question), isSeparator), " ") + " "
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(q, " "+kw) {
				return rule.intent
			}
		}
	}
	return IntentUnknown
}

// isSeparator splits words on anything but letters, digits, hyphens,
// apostrophes and currency signs.
func isSeparator(r rune) bool {
	switch r {
	case '-', '\'', '’', '$', '€', '£':
		return false
	}
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

var queryBoosts = map[Intent][]string{
	IntentGoverningLaw: {"governing law", "construed", "enforced", "laws of", "state of"},
	IntentVenue:        {"governing law", "jurisdiction", "venue", "courts", "state of"},
	IntentTermination:  {"termination", "notice", "prior written notice", "insolvent", "mutual written agreement"},
	IntentPayment:      {"payment", "pass-through", "monthly", "charge", "settle", "net basis", "invoice", "due date", "late fee"},
	IntentParties:      {"by and among", "between", "affiliate", "service provider", "service recipient"},
}

// RewriteQuery appends retrieval boost terms for the question's intent.
// Questions without a boosted intent are returned unchanged.
func RewriteQuery(question string) string {
	boosts, ok := queryBoosts[ClassifyIntent(question)]
	if !ok {
		return question
	}
	return question + " " + strings.Join(boosts, " ")
}
