package bagit

// A Pair is one name/value entry in a TagList.
type Pair struct {
	Key   string
	Value string
}

// A TagList is an insertion-ordered multimap of strings. It backs parsed
// tag files (tag name to value, duplicates allowed) and parsed manifests
// (relative path to digest).
type TagList struct {
	pairs []Pair
}

// NewTagList returns an empty TagList.
func NewTagList() *TagList {
	return &TagList{}
}

// Add appends a key/value pair, keeping any earlier values for key.
func (t *TagList) Add(key, value string) {
	t.pairs = append(t.pairs, Pair{Key: key, Value: value})
}

// First returns the first value stored for key, and whether one exists.
func (t *TagList) First(key string) (string, bool) {
	for _, p := range t.pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// All returns every value stored for key, in insertion order.
func (t *TagList) All(key string) []string {
	var values []string
	for _, p := range t.pairs {
		if p.Key == key {
			values = append(values, p.Value)
		}
	}
	return values
}

// Has reports whether at least one value is stored for key.
func (t *TagList) Has(key string) bool {
	_, ok := t.First(key)
	return ok
}

// Keys returns each distinct key in order of first insertion.
func (t *TagList) Keys() []string {
	var keys []string
	seen := make(map[string]bool, len(t.pairs))
	for _, p := range t.pairs {
		if !seen[p.Key] {
			seen[p.Key] = true
			keys = append(keys, p.Key)
		}
	}
	return keys
}

// Pairs returns the underlying entries in insertion order. The slice is
// shared with the TagList; callers must not modify it.
func (t *TagList) Pairs() []Pair {
	return t.pairs
}

// Len returns the number of stored pairs.
func (t *TagList) Len() int {
	return len(t.pairs)
}
