// Package version resolves client-declared application versions against a
// configured table of override thresholds.
//
// Old mobile clients keep calling the methods they shipped with; the
// threshold table reroutes those calls to version-specific handler
// variants and marks versions past their deprecation date as unusable.
package version

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/accountgate/internal/platform/errors"
)

var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Entry configures one override threshold.
type Entry struct {
	// Version is the threshold in MAJOR.MINOR.PATCH form.
	Version string
	// DeprecateAt is the instant the threshold stops being served.
	DeprecateAt time.Time
	// Methods lists "model.method" targets rerouted for clients at or
	// below this threshold.
	Methods []string
	// Suffix is appended to rerouted method names. When empty it
	// defaults to the version string with the dots removed.
	Suffix string
}

// Decision is the resolved outcome for one client version.
type Decision struct {
	DeprecateAt time.Time
	// Overrides maps model name to the set of rerouted method names.
	Overrides map[string]map[string]bool
	Suffix    string
}

// Empty reports whether the decision carries no override threshold.
func (d Decision) Empty() bool {
	return d.Overrides == nil
}

// Deprecated reports whether the matched threshold has passed its
// deprecation date at the given instant.
func (d Decision) Deprecated(now time.Time) bool {
	if d.Empty() || d.DeprecateAt.IsZero() {
		return false
	}
	return !d.DeprecateAt.After(now)
}

// Override returns the rewritten method name for model.method, or ok=false
// when the decision does not reroute it.
func (d Decision) Override(model, method string) (string, bool) {
	methods, found := d.Overrides[model]
	if !found || !methods[method] {
		return "", false
	}
	return model + "." + method + d.Suffix, true
}

// threshold is a parsed Entry ordered by its version components.
type threshold struct {
	components [3]int
	decision   Decision
}

// Resolver answers override queries for client versions. It is built once
// at startup and is safe for unsynchronized concurrent reads.
type Resolver struct {
	thresholds []threshold
}

// NewResolver parses and orders the configured entries.
func NewResolver(entries []Entry) (*Resolver, error) {
	resolver := &Resolver{}
	for _, entry := range entries {
		components, err := parseComponents(entry.Version)
		if err != nil {
			return nil, fmt.Errorf("version entry %q: %w", entry.Version, err)
		}
		overrides := make(map[string]map[string]bool)
		for _, target := range entry.Methods {
			model, method, ok := strings.Cut(target, ".")
			if !ok || model == "" || method == "" {
				return nil, fmt.Errorf("version entry %q: method %q is not model.method", entry.Version, target)
			}
			if overrides[model] == nil {
				overrides[model] = make(map[string]bool)
			}
			overrides[model][method] = true
		}
		suffix := entry.Suffix
		if suffix == "" {
			suffix = strings.ReplaceAll(entry.Version, ".", "")
		}
		resolver.thresholds = append(resolver.thresholds, threshold{
			components: components,
			decision: Decision{
				DeprecateAt: entry.DeprecateAt,
				Overrides:   overrides,
				Suffix:      suffix,
			},
		})
	}

	// Thresholds are scanned lowest-first so a client version matches the
	// smallest threshold at or above it.
	sort.Slice(resolver.thresholds, func(i, j int) bool {
		return compareComponents(resolver.thresholds[i].components, resolver.thresholds[j].components) < 0
	})
	return resolver, nil
}

// Resolve returns the override decision for a client version string.
//
// The matched threshold is the first, in ascending order, whose version is
// component-wise greater than or equal to the client version. Clients newer
// than every threshold get an empty decision.
func (r *Resolver) Resolve(clientVersion string) (Decision, error) {
	client, err := parseComponents(clientVersion)
	if err != nil {
		return Decision{}, err
	}

	for _, th := range r.thresholds {
		switch compareComponents(client, th.components) {
		case 1:
			// Client is newer than this threshold, try the next one.
			continue
		default:
			return th.decision, nil
		}
	}
	return Decision{}, nil
}

// parseComponents validates MAJOR.MINOR.PATCH and splits it into integers.
func parseComponents(value string) ([3]int, error) {
	var components [3]int
	if !versionPattern.MatchString(value) {
		return components, apperrors.WithMetadata(apperrors.CodeVersionMalformed,
			fmt.Sprintf("incompatible version identifier %q", value),
			map[string]string{"version": value})
	}
	parts := strings.SplitN(value, ".", 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return components, apperrors.Wrap(apperrors.CodeVersionMalformed,
				fmt.Sprintf("incompatible version identifier %q", value), err)
		}
		components[i] = n
	}
	return components, nil
}

// compareComponents is a three-way comparison over (major, minor, patch).
func compareComponents(a, b [3]int) int {
	for i := 0; i < 3; i++ {
		switch {
		case a[i] > b[i]:
			return 1
		case a[i] < b[i]:
			return -1
		}
	}
	return 0
}
