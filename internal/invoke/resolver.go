package invoke

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pinctl/pinctl/internal/api"
	"github.com/pinctl/pinctl/internal/errors"
)

// Resolver turns a dynamic reference collection name into the current list
// of choices by calling the collection's well-known listing operation.
type Resolver struct {
	invoker api.Invoker
}

// NewResolver creates a resolver backed by the given transport.
func NewResolver(invoker api.Invoker) *Resolver {
	return &Resolver{invoker: invoker}
}

// listOperation maps a reference collection to its listing operation.
// Collections follow the service's naming convention: "backends" lists
// through "list_backends", and so on.
func listOperation(collection string) string {
	return "list_" + collection
}

// Resolve fetches the member names of the reference collection.
func (r *Resolver) Resolve(ctx context.Context, collection string) ([]string, error) {
	result, err := r.invoker.Invoke(ctx, listOperation(collection), nil)
	if err != nil {
		return nil, err
	}

	names, ok := extractNames(result)
	if !ok {
		return nil, errors.New(errors.ErrInvoke,
			fmt.Sprintf("Cannot read %s list from %s", collection, listOperation(collection)),
			"The service returned an unexpected result shape")
	}
	return names, nil
}

// extractNames pulls name strings out of the listing result. The service
// returns either a bare array or an object wrapping one; array elements are
// either strings or objects carrying a "name".
func extractNames(raw json.RawMessage) ([]string, bool) {
	var arr []interface{}
	if err := json.Unmarshal(raw, &arr); err != nil {
		// Maybe wrapped: {"backends": [...]} or similar single-key object.
		var obj map[string]interface{}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, false
		}
		for _, v := range obj {
			if inner, ok := v.([]interface{}); ok {
				arr = inner
				break
			}
		}
		if arr == nil {
			return nil, false
		}
	}

	names := make([]string, 0, len(arr))
	for _, item := range arr {
		switch v := item.(type) {
		case string:
			names = append(names, v)
		case map[string]interface{}:
			if name, ok := v["name"].(string); ok {
				names = append(names, name)
			}
		}
	}
	return names, true
}
