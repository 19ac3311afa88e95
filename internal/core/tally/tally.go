// Package tally computes region-weighted vote totals. It performs no I/O.
package tally

import (
	"github.com/google/uuid"
	"github.com/vncsmyrnk/busvote/internal/core/domain"
)

// Weights are the multipliers applied to votes from the reference region
// and from every other region.
type Weights struct {
	Same  float64
	Other float64
}

// DefaultWeights counts other-region votes at half weight.
var DefaultWeights = Weights{Same: 1, Other: 0.5}

// Counts splits a topic's votes by whether the voter shares the reference region.
type Counts struct {
	Same  int
	Other int
}

func (c Counts) Total(w Weights) float64 {
	return float64(c.Same)*w.Same + float64(c.Other)*w.Other
}

// Count groups ballots per topic relative to region. Ballots without a
// region count as domain.UnknownRegion. An empty reference region matches
// no ballot, so a viewer without a region sees every vote at Other weight.
func Count(ballots []domain.CastBallot, region string) map[uuid.UUID]Counts {
	counts := make(map[uuid.UUID]Counts)
	for _, b := range ballots {
		voterRegion := b.Region
		if voterRegion == "" {
			voterRegion = domain.UnknownRegion
		}

		c := counts[b.TopicID]
		if voterRegion == region {
			c.Same++
		} else {
			c.Other++
		}
		counts[b.TopicID] = c
	}
	return counts
}

// Tally returns the weighted total per topic. Topics without ballots are absent.
func Tally(ballots []domain.CastBallot, region string, w Weights) map[uuid.UUID]float64 {
	totals := make(map[uuid.UUID]float64)
	for topicID, c := range Count(ballots, region) {
		totals[topicID] = c.Total(w)
	}
	return totals
}

// TopicTotal is the weighted total of a single topic.
func TopicTotal(ballots []domain.CastBallot, topicID uuid.UUID, region string, w Weights) float64 {
	return Count(ballots, region)[topicID].Total(w)
}

// Crossed reports whether a total moving from before to after reached the
// threshold on this step. It is false once the threshold was already met.
func Crossed(before, after, threshold float64) bool {
	return before < threshold && after >= threshold
}
