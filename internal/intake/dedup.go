package intake

import (
	"log/slog"
	"sort"
)

const duplicateGroupLen = 12

// MarkDuplicates groups entries by fingerprint and marks every copy after
// the primary. The deepest path wins primary; path length breaks ties.
// Entries with the unreadable sentinel never group. Returns the number of
// duplicates marked.
func MarkDuplicates(entries []Entry, logger *slog.Logger) int {
	byHash := make(map[string][]*Entry)
	for i := range entries {
		e := &entries[i]
		if e.SHA256 == "" || e.SHA256 == HashUnreadable {
			continue
		}
		byHash[e.SHA256] = append(byHash[e.SHA256], e)
	}

	duplicates := 0
	for sha, group := range byHash {
		if len(group) < 2 {
			continue
		}

		sort.Slice(group, func(i, j int) bool {
			if group[i].Depth != group[j].Depth {
				return group[i].Depth > group[j].Depth
			}
			return len(group[i].Path) < len(group[j].Path)
		})

		groupID := sha[:duplicateGroupLen]
		primary := group[0]
		primary.DuplicateGroup = groupID

		for _, dup := range group[1:] {
			dup.Duplicate = true
			dup.DuplicateGroup = groupID
			path := primary.Path
			dup.DuplicateOf = &path
			duplicates++
		}
	}

	logger.Info("duplicate detection complete",
		"duplicates", duplicates,
		"unique_hashes", len(byHash))
	return duplicates
}
