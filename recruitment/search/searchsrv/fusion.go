package searchsrv

import (
	"sort"

	"github.com/hirelens/hirelens/pkg/kernel"
	"github.com/hirelens/hirelens/recruitment/resume"
	"github.com/hirelens/hirelens/recruitment/search"
)

// groupHits folds raw vector hits into one result per resume. Hits arrive
// best-first, so each group's first hit is its score and the first
// maxMatches hits are its snippets.
func groupHits(hits []resume.VectorHit, limit, maxMatches int) []search.Result {
	byUID := make(map[kernel.ResumeUID]*search.Result, len(hits))
	order := make([]kernel.ResumeUID, 0, len(hits))
	for _, hit := range hits {
		res, ok := byUID[hit.UID]
		if !ok {
			res = &search.Result{
				UID:     hit.UID,
				Name:    hit.Payload.Name,
				Email:   hit.Payload.Email,
				Sources: []search.Mode{search.ModeSemantic},
			}
			byUID[hit.UID] = res
			order = append(order, hit.UID)
		}
		if hit.Score > res.Score {
			res.Score = hit.Score
		}
		if len(res.Matches) < maxMatches {
			res.Matches = append(res.Matches, search.MatchSnippet{
				Text:    hit.Payload.Text,
				Source:  hit.Payload.Source,
				Context: hit.Payload.Context,
				Score:   hit.Score,
			})
		}
	}

	results := make([]search.Result, 0, len(order))
	for _, uid := range order {
		results = append(results, *byUID[uid])
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func structuredResults(hits []search.StructuredHit) []search.Result {
	results := make([]search.Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, search.Result{
			UID:     hit.UID,
			Score:   1.0,
			Name:    hit.Name,
			Email:   hit.Email,
			Sources: []search.Mode{search.ModeStructured},
		})
	}
	return results
}

// fuseResults merges the two legs. Resumes found by both come first, then
// vector-only, then graph-only; each block is sorted by fused score. The
// graph-only block shares one score, so it keeps the graph's newest-first
// order.
func fuseResults(vecResults []search.Result, structHits []search.StructuredHit, w search.Weights, limit int) []search.Result {
	inGraph := make(map[kernel.ResumeUID]bool, len(structHits))
	for _, hit := range structHits {
		inGraph[hit.UID] = true
	}

	var both, vectorOnly, graphOnly []search.Result
	seen := make(map[kernel.ResumeUID]bool, len(vecResults))
	for _, res := range vecResults {
		seen[res.UID] = true
		fused := res
		if inGraph[res.UID] {
			fused.Score = w.Combine(res.Score, true, true)
			fused.Sources = []search.Mode{search.ModeSemantic, search.ModeStructured}
			both = append(both, fused)
		} else {
			fused.Score = w.Combine(res.Score, true, false)
			vectorOnly = append(vectorOnly, fused)
		}
	}
	for _, hit := range structHits {
		if seen[hit.UID] {
			continue
		}
		graphOnly = append(graphOnly, search.Result{
			UID:     hit.UID,
			Score:   w.Combine(0, false, true),
			Name:    hit.Name,
			Email:   hit.Email,
			Sources: []search.Mode{search.ModeStructured},
		})
	}

	sortByScore(both)
	sortByScore(vectorOnly)

	out := make([]search.Result, 0, len(both)+len(vectorOnly)+len(graphOnly))
	out = append(out, both...)
	out = append(out, vectorOnly...)
	out = append(out, graphOnly...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortByScore(results []search.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
