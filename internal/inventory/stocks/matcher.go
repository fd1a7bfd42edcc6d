package stocks

import (
	"encoding/json"

	"github.com/NuwanHarshanaFernando/sirti-next-sub002/pkg/models"
)

// ProductMatcher recognises one stored shape of a product reference.
type ProductMatcher interface {
	Name() string
	Match(ref models.ProductRef, productID string) bool
}

// DefaultMatchers lists the canonical shape first, then each legacy shape.
var DefaultMatchers = []ProductMatcher{
	nativeIDMatcher{},
	objectIDMatcher{},
	embeddedDocumentMatcher{},
}

// nativeIDMatcher matches the plain id: "p1".
type nativeIDMatcher struct{}

func (nativeIDMatcher) Name() string { return "native" }

func (nativeIDMatcher) Match(ref models.ProductRef, productID string) bool {
	var id string
	if err := json.Unmarshal(ref, &id); err != nil {
		return false
	}
	return id == productID
}

// objectIDMatcher matches the stringified wrapper left by the document export: {"$oid": "p1"}.
type objectIDMatcher struct{}

func (objectIDMatcher) Name() string { return "object_id" }

func (objectIDMatcher) Match(ref models.ProductRef, productID string) bool {
	var wrapped struct {
		OID *string `json:"$oid"`
	}
	if err := json.Unmarshal(ref, &wrapped); err != nil || wrapped.OID == nil {
		return false
	}
	return *wrapped.OID == productID
}

// embeddedDocumentMatcher matches a whole product sub-document carrying its own id:
// {"_id": "p1", "name": ...}, {"_id": {"$oid": "p1"}} or {"id": "p1"}.
type embeddedDocumentMatcher struct{}

func (embeddedDocumentMatcher) Name() string { return "embedded" }

func (embeddedDocumentMatcher) Match(ref models.ProductRef, productID string) bool {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(ref, &doc); err != nil {
		return false
	}
	for _, key := range []string{"_id", "id"} {
		raw, ok := doc[key]
		if !ok {
			continue
		}
		if (nativeIDMatcher{}).Match(models.ProductRef(raw), productID) ||
			(objectIDMatcher{}).Match(models.ProductRef(raw), productID) {
			return true
		}
	}
	return false
}

// FindLine returns the index of the line holding productID, trying every
// matcher across all lines before moving to the next one. It returns -1 when
// no representation matches.
func FindLine(lines []models.RackProductLine, productID string, matchers []ProductMatcher) (int, string) {
	for _, m := range matchers {
		for i := range lines {
			if m.Match(lines[i].Product, productID) {
				return i, m.Name()
			}
		}
	}
	return -1, ""
}
