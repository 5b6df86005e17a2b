package compose

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/rmax-ai/mdstval/pkg/graph"
)

// Corpus maps group names to their test cases in configuration order.
// It is read-only once Compose returns.
type Corpus struct {
	groups *orderedmap.OrderedMap[string, []graph.TestCase]
}

// NewCorpus returns an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{groups: orderedmap.New[string, []graph.TestCase]()}
}

// Add appends cases to group, creating it at the end of the order if needed.
func (c *Corpus) Add(group string, cases ...graph.TestCase) {
	existing, _ := c.groups.Get(group)
	c.groups.Set(group, append(existing, cases...))
}

// Cases returns the cases of group.
func (c *Corpus) Cases(group string) ([]graph.TestCase, bool) {
	return c.groups.Get(group)
}

// Len is the number of groups.
func (c *Corpus) Len() int {
	return c.groups.Len()
}

// Total is the number of cases over all groups.
func (c *Corpus) Total() int {
	n := 0
	for pair := c.groups.Oldest(); pair != nil; pair = pair.Next() {
		n += len(pair.Value)
	}
	return n
}

// Names returns the group names in order.
func (c *Corpus) Names() []string {
	names := make([]string, 0, c.groups.Len())
	for pair := c.groups.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Each calls fn for every group in order and stops at the first error.
func (c *Corpus) Each(fn func(group string, cases []graph.TestCase) error) error {
	for pair := c.groups.Oldest(); pair != nil; pair = pair.Next() {
		if err := fn(pair.Key, pair.Value); err != nil {
			return err
		}
	}
	return nil
}
