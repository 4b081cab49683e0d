package endpoint

import (
	"sort"

	"github.com/google/go-querystring/query"
)

// QueryItemsFrom encodes opt, a struct whose fields may carry "url" tags, into
// query items sorted by name. A nil pointer yields nil.
func QueryItemsFrom(opt any) ([]QueryItem, error) {
	values, err := query.Values(opt)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]QueryItem, 0, len(values))
	for _, name := range names {
		for _, v := range values[name] {
			items = append(items, QueryItem{Name: name, Value: v})
		}
	}
	return items, nil
}
