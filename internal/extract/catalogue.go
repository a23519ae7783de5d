package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Family is a named group of patterns whose matches are comparable. Every
// pattern has a "value" group; Normalize maps it to the form compared for
// conflicts.
type Family struct {
	Name      string
	Patterns  []*regexp.Regexp
	Normalize func(string) string
}

const (
	number   = `(?:\d{1,3}|(?i:one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|fifteen|twenty|thirty|forty-five|forty|sixty|ninety))`
	paren    = `(?:\s*\(\d{1,3}\)\s*)?`
	period   = number + paren + `(?:\s|-)*(?i:years?|months?|weeks?|days?)`
	month    = `(?:January|February|March|April|May|June|July|August|September|October|November|December)`
	date     = `(?:` + month + `\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}|\d{1,2}(?:st|nd|rd|th)?\s+(?:of\s+)?` + month + `,?\s+\d{4}|\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4})`
	place    = `[A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+){0,3}`
	currency = `(?:[$€£]\s?|(?:USD|EUR|GBP)\s)\d{1,3}(?:,\d{3})*(?:\.\d+)?(?:\s?(?i:million|thousand|billion))?`
)

func catalogue() []Family {
	return []Family{
		{
			Name: "governing_law",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i:governed\s+by|construed|enforced|interpreted|subject\s+to|in\s+accordance\s+with)[^.;]{0,60}?(?i:laws?)\s+of\s+(?:the\s+)?(?:(?i:state|commonwealth|province|republic|kingdom)\s+of\s+)?(?P<value>` + place + `)`),
				regexp.MustCompile(`(?i:governing\s+law)\s*(?:[:\-–]|(?i:is|shall\s+be))\s*(?:(?i:the\s+)?(?i:laws?\s+of)\s+)?(?:(?i:the\s+)?(?i:state\s+of)\s+)?(?P<value>` + place + `)`),
				regexp.MustCompile(`(?P<value>` + place + `)\s+(?i:law\s+(?:shall\s+)?governs?)`),
			},
			Normalize: normalizeText,
		},
		{
			Name: "venue",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i:jurisdiction\s+of|courts?\s+(?:located\s+)?(?:in|of)|venue\s+(?:shall\s+be|is|for)[^.;]{0,40}?\s(?:in|at))\s+(?:the\s+)?(?:(?i:courts?\s+(?:of|in|located\s+in))\s+)?(?:(?:the\s+)?(?i:state|county|city)\s+of\s+)?(?P<value>` + place + `)`),
			},
			Normalize: normalizeText,
		},
		{
			Name: "effective_date",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i:effective\s+(?:date|as\s+of|from|on)|dated(?:\s+as\s+of)?|entered\s+into\s+(?:on|as\s+of)|commenc\w*\s+on|made\s+on)[^.;]{0,30}?(?P<value>` + date + `)`),
			},
			Normalize: normalizeDate,
		},
		{
			Name:      "dates",
			Patterns:  []*regexp.Regexp{regexp.MustCompile(`(?P<value>` + date + `)`)},
			Normalize: normalizeDate,
		},
		{
			Name: "parties",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i:by\s+and\s+between|by\s+and\s+among|between)\s+(?P<value>[A-Z][A-Za-z0-9&.,' ]{1,80}?\s+and\s+[A-Z][A-Za-z0-9&.' ]{1,80}?)(?:\s*[(;]|\.(?:\s|$)|,\s|$)`),
			},
			Normalize: normalizeText,
		},
		{
			Name:      "amounts",
			Patterns:  []*regexp.Regexp{regexp.MustCompile(`(?P<value>` + currency + `)`)},
			Normalize: normalizeAmount,
		},
		{
			Name: "payment",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\b(?i:net)\s*(?P<value>\d{1,3})\s*(?i:days?)`),
				regexp.MustCompile(`(?i:payable|paid|due)\s+(?i:within|no\s+later\s+than)\s+(?P<value>` + period + `)`),
			},
			Normalize: normalizePeriod,
		},
		{
			Name: "duration",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i:\bterm\b)[^.;]{0,60}?\b(?i:is|be|of|for)\s+(?:(?i:an?|the)\s+)?(?:(?i:initial)\s+)?(?:(?i:period|term)\s+of\s+)?(?P<value>` + period + `)`),
				regexp.MustCompile(`(?i:remain\s+in\s+(?:full\s+)?(?:force|effect)(?:\s+and\s+effect)?|continue)[^.;]{0,40}?\b(?i:for)\s+(?:(?i:a|an|the)\s+)?(?:(?i:period|term)\s+of\s+)?(?P<value>` + period + `)`),
			},
			Normalize: normalizePeriod,
		},
		{
			Name: "termination_notice",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i:terminat\w*)[^.;]{0,80}?\b(?i:upon|with|by\s+giving|on|giving)\s+(?:(?i:at\s+least|not\s+less\s+than)\s+)?(?P<value>` + period + `)['’]?\s+(?i:(?:prior\s+)?(?:advance\s+)?(?:written\s+)?notice)`),
				regexp.MustCompile(`(?P<value>` + period + `)['’]?\s+(?i:(?:prior\s+)?(?:advance\s+)?written\s+notice\s+(?:of\s+)?terminat\w*)`),
			},
			Normalize: normalizePeriod,
		},
		{
			Name: "termination_trigger",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i:terminat\w*)[^.;]{0,60}?(?i:for|upon|in\s+the\s+event\s+of|if)\s+(?:(?i:a|the|its|any)\s+)?(?P<value>(?i:material\s+breach|convenience|insolvency|bankruptcy|change\s+of\s+control))`),
			},
			Normalize: normalizeText,
		},
		{
			Name: "renewal_term",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i:automatic(?:ally)?\s+renew\w*|auto-renew\w*|renew\w*\s+automatically|renewed\s+for)[^.;]{0,60}?(?P<value>` + period + `)`),
			},
			Normalize: normalizePeriod,
		},
		{
			Name: "renewal",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?P<value>(?i:automatic(?:ally)?\s+renew\w*|auto-renew\w*|renew\w*\s+automatically))`),
			},
			Normalize: func(string) string { return "automatic" },
		},
		{
			Name: "confidentiality",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i:confidential\w*)[^.;]{0,160}?\b(?i:for\s+(?:a\s+period\s+of\s+)?|survive[sd]?\s+(?:for\s+)?(?:a\s+period\s+of\s+)?)(?P<value>` + period + `)`),
			},
			Normalize: normalizePeriod,
		},
		{
			Name: "liability_cap",
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i:liability)[^.;]{0,160}?(?i:shall\s+not\s+exceed|will\s+not\s+exceed|(?:is\s+)?(?:limited|capped)\s+(?:to|at)|in\s+excess\s+of)\s+(?P<value>[^.;]{3,120}?)(?:[.;]|$)`),
			},
			Normalize: normalizeText,
		},
	}
}

// families tried for each intent, in order
var intentFamilies = map[Intent][]string{
	IntentGoverningLaw:    {"governing_law"},
	IntentVenue:           {"venue"},
	IntentDates:           {"effective_date", "dates"},
	IntentParties:         {"parties"},
	IntentAmounts:         {"amounts"},
	IntentPayment:         {"payment", "amounts"},
	IntentDuration:        {"duration"},
	IntentTermination:     {"termination_notice", "termination_trigger"},
	IntentRenewal:         {"renewal_term", "renewal"},
	IntentConfidentiality: {"confidentiality"},
	IntentLiability:       {"liability_cap"},
}

var (
	numberWords = map[string]string{
		"one": "1", "two": "2", "three": "3", "four": "4", "five": "5", "six": "6",
		"seven": "7", "eight": "8", "nine": "9", "ten": "10", "eleven": "11", "twelve": "12",
		"fifteen": "15", "twenty": "20", "thirty": "30", "forty": "40", "forty-five": "45",
		"sixty": "60", "ninety": "90",
	}
	parenNumber   = regexp.MustCompile(`\(\d{1,3}\)`)
	periodParts   = regexp.MustCompile(`(?i)^(\d{1,3}|[a-z]+(?:-[a-z]+)?)[\s-]*(year|month|week|day)s?$`)
	ordinalSuffix = regexp.MustCompile(`(\d)(?:st|nd|rd|th)\b`)
	trimChars     = " \t\n.,;:\"'“”()"
)

func normalizeText(s string) string {
	return strings.ToLower(strings.Trim(strings.Join(strings.Fields(s), " "), trimChars))
}

func normalizePeriod(s string) string {
	s = normalizeText(parenNumber.ReplaceAllString(s, " "))
	m := periodParts.FindStringSubmatch(s)
	if m == nil {
		if _, err := strconv.Atoi(s); err == nil {
			return s + " day"
		}
		return s
	}
	n := m[1]
	if digits, ok := numberWords[n]; ok {
		n = digits
	}
	return n + " " + m[2]
}

func normalizeDate(s string) string {
	s = strings.ReplaceAll(normalizeText(s), ",", "")
	s = ordinalSuffix.ReplaceAllString(s, "$1")
	return strings.ReplaceAll(s, " of ", " ")
}

func normalizeAmount(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer(" ", "", ",", "", "usd", "$", "eur", "€", "gbp", "£").Replace(s)
}
