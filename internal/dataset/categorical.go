package dataset

import "sort"

// Categorical is a column of values drawn from an ordered set of levels.
type Categorical struct {
	Levels []string `json:"levels"`
	// Codes index Levels; -1 marks a missing value.
	Codes []int `json:"codes"`
}

// Value returns the level of row i, or "" when missing.
func (c *Categorical) Value(i int) string {
	if code := c.Codes[i]; code >= 0 && code < len(c.Levels) {
		return c.Levels[code]
	}
	return ""
}

// Counts returns the number of rows per level, indexed like Levels.
func (c *Categorical) Counts() []int {
	counts := make([]int, len(c.Levels))
	for _, code := range c.Codes {
		if code >= 0 && code < len(counts) {
			counts[code]++
		}
	}
	return counts
}

func newCategorical(values, levels []string) *Categorical {
	index := make(map[string]int, len(levels))
	for i, l := range levels {
		index[l] = i
	}
	codes := make([]int, len(values))
	for i, v := range values {
		code, ok := index[v]
		if !ok {
			code = -1
		}
		codes[i] = code
	}
	return &Categorical{Levels: levels, Codes: codes}
}

// sortedLevels returns the distinct non-empty values in lexical order.
func sortedLevels(values []string) []string {
	seen := make(map[string]bool)
	var levels []string
	for _, v := range values {
		if v != "" && !seen[v] {
			seen[v] = true
			levels = append(levels, v)
		}
	}
	sort.Strings(levels)
	return levels
}

// frequencyLevels returns the distinct non-empty values by descending
// count, ties broken by first appearance.
func frequencyLevels(values []string) []string {
	counts := make(map[string]int)
	var levels []string
	for _, v := range values {
		if v == "" {
			continue
		}
		if counts[v] == 0 {
			levels = append(levels, v)
		}
		counts[v]++
	}
	sort.SliceStable(levels, func(i, j int) bool {
		return counts[levels[i]] > counts[levels[j]]
	})
	return levels
}

// TopCategories returns up to n levels of column ordered by descending
// frequency, ties broken by first appearance. It does not modify ds.
func TopCategories(ds *Dataset, column string, n int) ([]string, error) {
	values, err := ds.Strings(column)
	if err != nil {
		return nil, err
	}
	levels := frequencyLevels(values)
	if n >= 0 && len(levels) > n {
		levels = levels[:n]
	}
	return levels, nil
}
