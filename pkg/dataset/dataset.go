package dataset

import (
	"strings"

	"github.com/matzehuels/keygraph/pkg/errors"
)

// Keyword is one raw keyword record. It is the source of exactly one
// keyword node and one detail node in the element graph.
type Keyword struct {
	ID          string `json:"id" yaml:"id"`
	Keyword     string `json:"keyword" yaml:"keyword"`
	Description string `json:"description" yaml:"description"`
	Image       string `json:"image,omitempty" yaml:"image,omitempty"`
}

// HasImage reports whether the keyword carries a non-blank image reference.
func (k Keyword) HasImage() bool {
	return strings.TrimSpace(k.Image) != ""
}

// Connection is a labeled, directed relationship between two keywords.
type Connection struct {
	From         string `json:"from" yaml:"from"`
	To           string `json:"to" yaml:"to"`
	Relationship string `json:"relationship" yaml:"relationship"`
}

// Dataset is the raw input of one presentation session.
type Dataset struct {
	Keywords    []Keyword    `json:"keyinfo" yaml:"keyinfo"`
	Connections []Connection `json:"connections" yaml:"connections"`
}

// IsEmpty reports whether the dataset has no keywords.
func (d Dataset) IsEmpty() bool {
	return len(d.Keywords) == 0
}

// IDs returns the keyword ids in dataset order.
func (d Dataset) IDs() []string {
	ids := make([]string, len(d.Keywords))
	for i, k := range d.Keywords {
		ids[i] = k.ID
	}
	return ids
}

// Validate checks keyword ids, image names and connection endpoints.
// It returns the first problem found.
func (d Dataset) Validate() error {
	known := make(map[string]struct{}, len(d.Keywords))
	for i, k := range d.Keywords {
		if err := errors.ValidateKeywordID(k.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "keyword %d", i)
		}
		if _, dup := known[k.ID]; dup {
			return errors.New(errors.ErrCodeDuplicateID, "keyword id %q appears more than once", k.ID)
		}
		if err := errors.ValidateImageName(k.Image); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "keyword %q", k.ID)
		}
		known[k.ID] = struct{}{}
	}

	for i, c := range d.Connections {
		if _, ok := known[c.From]; !ok {
			return &errors.InvalidReferenceError{Index: i, Field: "from", ID: c.From}
		}
		if _, ok := known[c.To]; !ok {
			return &errors.InvalidReferenceError{Index: i, Field: "to", ID: c.To}
		}
	}
	return nil
}
