package orders

import "strings"

// Class is the coarse inventory meaning of a status: active statuses hold
// stock reserved, returned statuses have released it. Transitions within a
// class are inventory-neutral.
type Class int

const (
	ClassUnknown Class = iota
	ClassActive
	ClassReturned
)

// StockEffect is what a status transition does to the stock of the order's
// line items.
type StockEffect int

const (
	EffectNone StockEffect = iota
	EffectRestore
	EffectDeduct
)

func (e StockEffect) String() string {
	switch e {
	case EffectRestore:
		return "restore"
	case EffectDeduct:
		return "deduct"
	}
	return "none"
}

// Classifier maps a deployment's status vocabulary onto the two classes.
// Statuses outside the vocabulary classify as unknown and are rejected at
// the edge rather than silently treated as inventory-neutral.
type Classifier struct {
	classes map[string]Class
}

func NewClassifier(active, returned []string) *Classifier {
	m := make(map[string]Class, len(active)+len(returned))
	for _, s := range active {
		m[strings.ToLower(strings.TrimSpace(s))] = ClassActive
	}
	for _, s := range returned {
		m[strings.ToLower(strings.TrimSpace(s))] = ClassReturned
	}
	return &Classifier{classes: m}
}

func (c *Classifier) Classify(status string) (Class, bool) {
	cl, ok := c.classes[strings.ToLower(strings.TrimSpace(status))]
	return cl, ok
}

// Plan decides the stock effect of moving an order from prev to next:
// entering the returned class restores stock, leaving it re-deducts, and
// everything else is neutral.
func (c *Classifier) Plan(prev, next string) StockEffect {
	nextClass, _ := c.Classify(next)
	prevClass, _ := c.Classify(prev)
	switch {
	case nextClass == ClassReturned && prevClass != ClassReturned:
		return EffectRestore
	case nextClass == ClassActive && prevClass == ClassReturned:
		return EffectDeduct
	}
	return EffectNone
}
