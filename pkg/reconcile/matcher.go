package reconcile

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/3leaps/getrel/internal/model"
)

// Platform carries the OS/arch pair a match rule is expanded against.
type Platform struct {
	OS   string
	Arch string
}

// RuntimePlatform returns the platform of the running binary.
func RuntimePlatform() Platform {
	return Platform{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// Release asset names rarely use Go's canonical GOOS/GOARCH spelling, so
// token expansion covers the common aliases.
var osAliases = map[string][]string{
	"darwin":  {"macos", "macosx", "osx"},
	"windows": {"win", "win32", "win64", "mingw"},
}

var archAliases = map[string][]string{
	"amd64": {"x86_64", "x64"},
	"arm64": {"aarch64"},
	"386":   {"x86", "i386", "i686"},
}

// MatchOutcome classifies the result of applying a MatchRule.
type MatchOutcome string

const (
	MatchNone      MatchOutcome = "none"
	MatchOne       MatchOutcome = "one"
	MatchAmbiguous MatchOutcome = "ambiguous"
)

// MatchResult is the outcome of MatchAsset. Asset is valid only when
// Outcome is MatchOne; Candidates lists every match in asset-list order.
type MatchResult struct {
	Outcome    MatchOutcome
	Asset      model.Asset
	Candidates []model.Asset
}

// ExpandRule substitutes platform tokens in a match rule and returns the
// concrete glob pattern. {os} and {arch} expand to an alternation over the
// platform value and its aliases; {goos} and {goarch} expand verbatim.
func ExpandRule(rule model.MatchRule, plat Platform) string {
	return strings.NewReplacer(
		"{os}", alternation(plat.OS, osAliases),
		"{arch}", alternation(plat.Arch, archAliases),
		"{goos}", strings.ToLower(plat.OS),
		"{goarch}", strings.ToLower(plat.Arch),
	).Replace(string(rule))
}

func alternation(value string, table map[string][]string) string {
	base := strings.ToLower(value)
	seen := map[string]struct{}{base: {}}
	for _, alias := range table[base] {
		seen[strings.ToLower(alias)] = struct{}{}
	}
	parts := make([]string, 0, len(seen))
	for k := range seen {
		parts = append(parts, k)
	}
	sort.Strings(parts)
	if len(parts) == 1 {
		return parts[0]
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// MatchAsset applies a match rule to a release's asset list. Matching is
// case-insensitive on asset names, in keeping with how release artifacts are
// commonly named. An invalid pattern matches nothing.
func MatchAsset(assets []model.Asset, rule model.MatchRule, plat Platform) MatchResult {
	pattern := ExpandRule(rule, plat)
	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return MatchResult{Outcome: MatchNone}
	}

	var candidates []model.Asset
	for _, a := range assets {
		if g.Match(strings.ToLower(a.Name)) {
			candidates = append(candidates, a)
		}
	}

	switch len(candidates) {
	case 0:
		return MatchResult{Outcome: MatchNone}
	case 1:
		return MatchResult{Outcome: MatchOne, Asset: candidates[0], Candidates: candidates}
	default:
		return MatchResult{Outcome: MatchAmbiguous, Candidates: candidates}
	}
}

// CandidateNames renders the ambiguous candidate list for error messages.
func (m MatchResult) CandidateNames() string {
	names := make([]string, len(m.Candidates))
	for i, a := range m.Candidates {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

func (m MatchResult) String() string {
	switch m.Outcome {
	case MatchOne:
		return fmt.Sprintf("matched %s", m.Asset.Name)
	case MatchAmbiguous:
		return fmt.Sprintf("ambiguous: %s", m.CandidateNames())
	default:
		return "no match"
	}
}
