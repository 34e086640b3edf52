package identity

import (
	"context"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Alias is one distinct raw in-game name seen on any map roster, with the
// identity it resolves to when the operator has mapped it.
type Alias struct {
	RawName  string `json:"raw_name"`
	PlayerID *int   `json:"player_id,omitempty"`
}

// DuplicateCandidate is a pair of aliases close enough in edit distance that they
// likely belong to the same person. The scan only reports, merging identities
// stays an administrative action.
type DuplicateCandidate struct {
	NameA    string `json:"name_a"`
	NameB    string `json:"name_b"`
	Distance int    `json:"distance"`
}

// ScanDuplicates runs the Levenshtein similarity pass over the whole alias
// catalog. It is an offline administrative routine and must never run inline
// during ingestion, upload latency stays bounded by keeping it out of that path.
//
// Pairs already resolving to the same identity are skipped, they are not
// duplicates but confirmed aliases.
func (u Identities) ScanDuplicates(ctx context.Context, maxDistance int) ([]DuplicateCandidate, error) {
	aliases, errAliases := u.repository.DistinctAliases(ctx)
	if errAliases != nil {
		return nil, errAliases
	}

	return findDuplicates(aliases, maxDistance), nil
}

func findDuplicates(aliases []Alias, maxDistance int) []DuplicateCandidate {
	candidates := []DuplicateCandidate{}

	for i := 0; i < len(aliases); i++ {
		for j := i + 1; j < len(aliases); j++ {
			left, right := aliases[i], aliases[j]

			if left.PlayerID != nil && right.PlayerID != nil && *left.PlayerID == *right.PlayerID {
				continue
			}

			distance := levenshtein.ComputeDistance(
				strings.ToLower(left.RawName),
				strings.ToLower(right.RawName))

			if distance > 0 && distance <= maxDistance {
				candidates = append(candidates, DuplicateCandidate{
					NameA:    left.RawName,
					NameB:    right.RawName,
					Distance: distance,
				})
			}
		}
	}

	return candidates
}
