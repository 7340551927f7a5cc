// Package trust scores how credible a source domain is, using a blacklist
// and a TLD lookup table. Scoring is pure: no network access, no state.
package trust

import (
	"sort"
	"strings"

	"github.com/chargingthefuture/linkproof/internal/model"
)

// Scorer maps a hostname to a trust score in [0,1].
type Scorer struct {
	config    *model.TrustConfig
	blacklist map[string]bool
	ordered   []string // TLD keys, highest score first, for deterministic subdomain matching
}

// NewScorer creates a domain trust scorer from config. A nil config uses the
// built-in defaults.
func NewScorer(config *model.TrustConfig) *Scorer {
	if config == nil {
		config = &model.DefaultConfig().Trust
	}

	scorer := &Scorer{
		config:    config,
		blacklist: make(map[string]bool),
	}

	for _, domain := range config.Blacklist {
		scorer.blacklist[strings.ToLower(domain)] = true
	}

	for key := range config.TLDScores {
		scorer.ordered = append(scorer.ordered, key)
	}
	sort.Slice(scorer.ordered, func(i, j int) bool {
		a, b := scorer.ordered[i], scorer.ordered[j]
		if config.TLDScores[a] != config.TLDScores[b] {
			return config.TLDScores[a] > config.TLDScores[b]
		}
		return a < b
	})

	return scorer
}

// Score returns the trust score for a hostname.
//
// Blacklisted domains score BlacklistScore. Hostnames without at least two
// dot-separated segments score MalformedScore. Otherwise each table key, in
// descending score order, matches on the last segment or on ".<key>" anywhere
// in the domain, which covers multi-level hosts like www.mit.edu and lets an
// embedded high-trust label win over a low-trust final segment
// (stanford.edu.info scores as .edu). Unmatched domains score DefaultScore.
func (s *Scorer) Score(domain string) float64 {
	lower := strings.ToLower(domain)

	if s.blacklist[lower] {
		return s.config.BlacklistScore
	}

	parts := strings.Split(lower, ".")
	if len(parts) < 2 {
		return s.config.MalformedScore
	}

	tld := parts[len(parts)-1]
	for _, key := range s.ordered {
		if tld == key || strings.Contains(lower, "."+key) {
			return s.config.TLDScores[key]
		}
	}

	return s.config.DefaultScore
}
