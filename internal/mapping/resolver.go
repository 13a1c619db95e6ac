package mapping

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ViktorAgafonov/ForecastOrder/internal/domain"
)

// DefaultSimilarityThreshold is the fuzzy-match cutoff used when the caller
// does not supply one.
const DefaultSimilarityThreshold = 85

// Resolver assigns ledger items to identity groups backed by the store.
// When the store is non-empty, unmatched items are compared fuzzily against
// every stored member and join the first group scoring at or above the
// threshold. First match wins, not best match: the scan order is fixed
// (group ids ascending, members in stored order) so repeated runs over the
// same input produce identical assignments.
type Resolver struct {
	store     *Store
	threshold float64
}

// Resolution is the outcome of a resolver run.
type Resolution struct {
	// Assignments maps every processed (name, code) pair to its group id.
	Assignments map[domain.Item]string
	// Groups is the inverse view: group id to the input items assigned to it.
	Groups map[string][]domain.Item
	// Skipped counts input pairs dropped as unprocessable.
	Skipped int
}

func NewResolver(store *Store, threshold float64) *Resolver {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Resolver{store: store, threshold: threshold}
}

type memberRef struct {
	item    domain.Item
	groupID string
}

// Resolve assigns each distinct input pair to a group id. Pairs already
// present in the store keep their group; otherwise fuzzy matching against
// stored members applies (or, with an empty store, exact name/code equality
// against pairs resolved earlier in the same run); unmatched pairs seed new
// groups. Progress is reported at least every 10 pairs and ends at 100.
func (r *Resolver) Resolve(items []domain.Item, progress domain.ProgressFunc) *Resolution {
	res := &Resolution{
		Assignments: make(map[domain.Item]string),
		Groups:      make(map[string][]domain.Item),
	}

	distinct := distinctItems(items)
	total := len(distinct)
	if total == 0 {
		log.Warn().Msg("no items to resolve")
		if progress != nil {
			progress(100, "Нет элементов для обработки")
		}
		return res
	}

	members := r.storedMembers()
	storeEmpty := r.store.Len() == 0
	if storeEmpty {
		log.Info().Msg("mapping store is empty, falling back to exact name/code matching")
	}

	// Order of items resolved so far, for the empty-store fallback.
	var resolved []domain.Item

	for i, item := range distinct {
		if progress != nil && i%10 == 0 {
			progress(i*100/total, fmt.Sprintf("Обработано %d из %d элементов", i, total))
		}

		if strings.TrimSpace(item.Name) == "" && strings.TrimSpace(item.Code) == "" {
			log.Debug().Msg("skipping item with empty name and code")
			res.Skipped++
			continue
		}

		groupID, ok := r.store.FindGroupFor(item.Name, item.Code)
		if !ok && !storeEmpty {
			for _, m := range members {
				if Similarity(item, m.item) >= r.threshold {
					groupID, ok = m.groupID, true
					break
				}
			}
		}
		if !ok && storeEmpty {
			for _, prev := range resolved {
				if (item.Name != "" && item.Name == prev.Name) ||
					(item.Code != "" && item.Code == prev.Code) {
					groupID, ok = res.Assignments[prev], true
					break
				}
			}
		}
		if !ok {
			groupID = DeriveGroupID(item.Name, item.Code)
		}

		res.Assignments[item] = groupID
		res.Groups[groupID] = append(res.Groups[groupID], item)
		resolved = append(resolved, item)
	}

	log.Info().
		Int("items", total).
		Int("groups", len(res.Groups)).
		Int("skipped", res.Skipped).
		Msg("resolution finished")

	if progress != nil {
		progress(100, fmt.Sprintf("Найдено %d групп похожих элементов", len(res.Groups)))
	}
	return res
}

// storedMembers flattens the store into a deterministic scan list.
func (r *Resolver) storedMembers() []memberRef {
	var members []memberRef
	for _, group := range r.store.Groups() {
		for _, item := range group.Items {
			members = append(members, memberRef{item: item, groupID: group.ID})
		}
	}
	return members
}

// distinctItems deduplicates the input and fixes the iteration order.
func distinctItems(items []domain.Item) []domain.Item {
	seen := make(map[domain.Item]struct{}, len(items))
	out := make([]domain.Item, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Code < out[j].Code
	})
	return out
}
