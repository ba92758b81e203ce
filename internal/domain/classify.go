package domain

import "strings"

// DefaultOperator is the catch-all bucket for unresolved or unmatched
// operator names.
const DefaultOperator = "Other"

// ClassificationRule maps a raw-name fragment to a canonical operator name.
// Fragments are matched as substrings of the uppercased, trimmed raw name.
type ClassificationRule struct {
	Fragment  string
	Canonical string
}

// Classifier assigns canonical operator names by walking an ordered rule
// table. Rule order is significant: the first rule whose fragment appears in
// the normalized name wins, so broader fragments ("EOG RES") must be declared
// after the specific ones they would shadow, not the other way around.
type Classifier struct {
	rules []ClassificationRule
}

// NewClassifier builds a classifier over the given rules, evaluated in
// declaration order.
func NewClassifier(rules []ClassificationRule) Classifier {
	return Classifier{rules: rules}
}

// Classify maps a raw operator name to a canonical name. It is a pure
// function of the raw name: empty or unmatched names classify as
// DefaultOperator.
func (c Classifier) Classify(rawName string) string {
	if rawName == "" {
		return DefaultOperator
	}
	upper := strings.ToUpper(strings.TrimSpace(rawName))
	for _, r := range c.rules {
		if strings.Contains(upper, r.Fragment) {
			return r.Canonical
		}
	}
	return DefaultOperator
}

// CanonicalNames returns the distinct canonical names the classifier can
// produce, DefaultOperator included, in rule order.
func (c Classifier) CanonicalNames() []string {
	seen := make(map[string]bool, len(c.rules))
	var names []string
	for _, r := range c.rules {
		if !seen[r.Canonical] {
			seen[r.Canonical] = true
			names = append(names, r.Canonical)
		}
	}
	return append(names, DefaultOperator)
}

// DefaultRules is the tracked-operator table for the Permian Basin dataset.
// Acquired companies classify under their acquirer (Pioneer under ExxonMobil,
// Anadarko under Occidental, Cimarex under Coterra).
func DefaultRules() []ClassificationRule {
	return []ClassificationRule{
		{"PIONEER NATURAL RESOURCES", "ExxonMobil/Pioneer"},
		{"PIONEER NATURAL RES", "ExxonMobil/Pioneer"},
		{"PIONEER NATURAL", "ExxonMobil/Pioneer"},
		{"EXXONMOBIL", "ExxonMobil/Pioneer"},
		{"EXXON MOBIL", "ExxonMobil/Pioneer"},
		{"EXXON", "ExxonMobil/Pioneer"},
		{"XTO ENERGY", "ExxonMobil/Pioneer"},
		{"CONOCOPHILLIPS", "ConocoPhillips"},
		{"CONOCO PHILLIPS", "ConocoPhillips"},
		{"CONOCO", "ConocoPhillips"},
		{"BURLINGTON RESOURCES", "ConocoPhillips"},
		{"EOG RESOURCES", "EOG"},
		{"EOG RES", "EOG"},
		{"DIAMONDBACK", "Diamondback"},
		{"DIAMONDBACK ENERGY", "Diamondback"},
		{"DIAMONDBACK E&P", "Diamondback"},
		{"VIPER ENERGY", "Diamondback"},
		{"ENERGEN", "Diamondback"},
		{"DEVON ENERGY", "Devon"},
		{"DEVON", "Devon"},
		{"OCCIDENTAL", "Occidental"},
		{"OXY", "Occidental"},
		{"OXY USA", "Occidental"},
		{"ANADARKO", "Occidental"},
		{"ANADARKO PETROLEUM", "Occidental"},
		{"ANADARKO E&P", "Occidental"},
		{"CHEVRON", "Chevron"},
		{"CHEVRON U.S.A.", "Chevron"},
		{"CHEVRON USA", "Chevron"},
		{"APACHE", "Apache/APA"},
		{"APA", "Apache/APA"},
		{"APA CORPORATION", "Apache/APA"},
		{"COTERRA", "Coterra"},
		{"COTERRA ENERGY", "Coterra"},
		{"CIMAREX", "Coterra"},
		{"CIMAREX ENERGY", "Coterra"},
		{"CALLON", "Callon"},
		{"CALLON PETROLEUM", "Callon"},
	}
}
