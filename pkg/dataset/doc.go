// Package dataset defines the raw knowledge-graph input consumed by the
// presentation engine, along with its JSON and YAML serialization.
//
// A dataset is what the assistant produces (or what a static file holds):
// a list of keywords and a list of labeled connections between them.
//
//	{
//	  "keyinfo": [
//	    {"id": "A", "keyword": "Neural networks", "description": "...", "image": "nn.png"},
//	    {"id": "B", "keyword": "Backpropagation", "description": "..."}
//	  ],
//	  "connections": [
//	    {"from": "A", "to": "B", "relationship": "trained by"}
//	  ]
//	}
//
// The same structure is accepted as YAML (files ending in .yaml or .yml).
//
// # Validation
//
// [Dataset.Validate] checks structural integrity: keyword ids must be
// non-empty and unique, images must be simple relative names and every
// connection endpoint must name a known keyword. Unknown endpoints fail with
// an [errors.InvalidReferenceError]. The element transformer runs the same
// checks, so callers only need Validate when they want to reject input
// before handing it over.
//
// # Usage
//
//	ds, err := dataset.ReadFile("mock.json")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(len(ds.Keywords), "keywords")
package dataset
