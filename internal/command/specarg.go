package command

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/nagiek/rendr/model"
)

// ParseSpec parses one spec argument:
//
//	[name=]model:Type[/id][?k=v&k=v1,v2]
//	[name=]collection:Type[@ParentType/parentID/key][?k=v]
//
// Comma-separated values become lists. Values that read as JSON numbers,
// booleans or null are decoded; everything else stays a string. Without a
// name the argument itself names the result.
func ParseSpec(arg string) (string, model.Spec, error) {
	name, body := arg, arg
	if eq, colon := strings.IndexByte(arg, '='), strings.IndexByte(arg, ':'); eq > 0 && (colon < 0 || eq < colon) {
		name, body = arg[:eq], arg[eq+1:]
	}

	kind, rest, ok := strings.Cut(body, ":")
	if !ok {
		return "", nil, fmt.Errorf("spec %q: expected model:Type or collection:Type", arg)
	}
	path, rawQuery, _ := strings.Cut(rest, "?")
	params, err := parseParams(rawQuery)
	if err != nil {
		return "", nil, fmt.Errorf("spec %q: %w", arg, err)
	}

	switch kind {
	case "model":
		typ, id, _ := strings.Cut(path, "/")
		if typ == "" {
			return "", nil, fmt.Errorf("spec %q: missing type", arg)
		}
		return name, &model.EntitySpec{Type: typ, ID: id, Require: model.Require{Params: params}}, nil

	case "collection":
		typ, rel, hasRel := strings.Cut(path, "@")
		if typ == "" {
			return "", nil, fmt.Errorf("spec %q: missing type", arg)
		}
		s := &model.CollectionSpec{Type: typ, Require: model.Require{Params: params}}
		if hasRel {
			parts := strings.Split(rel, "/")
			if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
				return "", nil, fmt.Errorf("spec %q: relation must be ParentType/parentID/key", arg)
			}
			s.Relation = &model.Relation{ParentType: parts[0], ParentID: parts[1], Key: parts[2]}
		}
		return name, s, nil
	}
	return "", nil, fmt.Errorf("spec %q: unknown kind %q", arg, kind)
}

func parseParams(raw string) (model.Params, error) {
	if raw == "" {
		return nil, nil
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return nil, err
	}
	params := make(model.Params, len(q))
	for k, vs := range q {
		v := vs[len(vs)-1]
		if strings.Contains(v, ",") {
			parts := strings.Split(v, ",")
			list := make([]any, len(parts))
			for i, p := range parts {
				list[i] = scalar(p)
			}
			params[k] = list
			continue
		}
		params[k] = scalar(v)
	}
	return params, nil
}

func scalar(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		switch v.(type) {
		case float64, bool, nil:
			return v
		}
	}
	return s
}
