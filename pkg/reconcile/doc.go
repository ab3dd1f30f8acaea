// Package reconcile provides small, dependency-light helpers for deciding
// what a release installer should do next.
//
// It is designed to be useful for any tool that tracks software installed
// from published releases (for example, GitHub releases), where you want the
// decision logic separated from transport, persistence, and unpacking.
//
// This package intentionally does not perform downloads, archive extraction,
// or state persistence. Given a release list, a selection policy, an asset
// match rule, and the previously recorded installation, it decides whether an
// update is needed and which asset to fetch.
//
// Decision model
//   - Release selection honors an explicit latest flag from the source; when
//     absent, the list is assumed sorted newest-first and the first eligible
//     entry wins.
//   - Prereleases are never selected unless the policy asks for them.
//   - Asset matching classifies into exactly-one, none, or ambiguous; callers
//     running unattended must treat ambiguous as a hard failure rather than
//     guessing.
package reconcile
