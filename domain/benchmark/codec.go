package benchmark

import (
	"fmt"

	"alignbench/domain/core"

	"github.com/tidwall/gjson"
)

// Record layouts accepted by the decoders.
//
// Canonical ground truth:  {"kind": "missing", "items": [{"key": "2.1", "files": []}]}
// Canonical report:        [{"key": "2.1", "files": []}]  or  {"kind": ..., "items": [...]}
// Combined report:         {"missing": [...], "incorrect": [...], "extraneous": [...]}
//
// Older documents use type1_missing/type2_incorrect/type3_extraneous list keys, an optional
// "ground_truth" wrapper with "misalignments", and items that are bare strings or objects
// keyed by "section", "file" or "feature". Those normalize to {key, files}.

// DecodeGroundTruth parses a ground-truth document into one set per kind it declares
func DecodeGroundTruth(data []byte, branch core.Branch) (GroundTruthBundle, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: ground truth is not valid JSON", core.ErrMalformedReport)
	}
	root := gjson.ParseBytes(data)
	if wrapped := root.Get("ground_truth"); wrapped.IsObject() {
		if tt := root.Get("test_type"); tt.Exists() {
			if kind, err := ParseKind(tt.String()); err == nil {
				if m := wrapped.Get("misalignments"); m.Exists() {
					return singleGroundTruth(branch, kind, m)
				}
			}
		}
		root = wrapped
	}

	if kindField := root.Get("kind"); kindField.Exists() {
		kind, err := ParseKind(kindField.String())
		if err != nil {
			return nil, err
		}
		return singleGroundTruth(branch, kind, root.Get("items"))
	}

	bundle := GroundTruthBundle{}
	for _, kind := range Kinds() {
		list, ok := kindList(root, kind)
		if !ok {
			continue
		}
		items, err := decodeGroundTruthItems(kind, list)
		if err != nil {
			return nil, err
		}
		bundle[kind] = GroundTruthSet{Branch: branch, Kind: kind, Items: items}
	}
	if len(bundle) == 0 {
		return nil, fmt.Errorf("%w: ground truth declares no kind", core.ErrMalformedReport)
	}
	return bundle, nil
}

func singleGroundTruth(branch core.Branch, kind Kind, list gjson.Result) (GroundTruthBundle, error) {
	items, err := decodeGroundTruthItems(kind, list)
	if err != nil {
		return nil, err
	}
	return GroundTruthBundle{kind: {Branch: branch, Kind: kind, Items: items}}, nil
}

// DecodeReport parses one run's findings for kind.
// A combined document yields the list stored under kind; an absent list is an empty report.
func DecodeReport(data []byte, kind Kind) (Report, error) {
	if !kind.Valid() {
		return Report{}, fmt.Errorf("%w: %q", core.ErrUnknownKind, kind)
	}
	if !gjson.ValidBytes(data) {
		return Report{}, fmt.Errorf("%w: report is not valid JSON", core.ErrMalformedReport)
	}
	root := gjson.ParseBytes(data)

	var list gjson.Result
	switch {
	case root.IsArray():
		list = root
	case root.Get("items").Exists():
		if declared := root.Get("kind"); declared.Exists() {
			k, err := ParseKind(declared.String())
			if err != nil {
				return Report{}, err
			}
			if k != kind {
				return Report{}, &core.MalformedReportError{Kind: kind.String(), Side: core.SideReported, Index: -1, Field: "kind", Reason: fmt.Sprintf("declares %q", k)}
			}
		}
		list = root.Get("items")
	case root.IsObject():
		list, _ = kindList(root, kind)
	default:
		return Report{}, fmt.Errorf("%w: report must be an array or object", core.ErrMalformedReport)
	}

	items, err := decodeReportedItems(kind, list)
	if err != nil {
		return Report{}, err
	}
	return Report{Kind: kind, Items: items}, nil
}

// DecodeCombinedReport parses a combined-detection document into all three per-kind reports
func DecodeCombinedReport(data []byte) (CombinedReport, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: report is not valid JSON", core.ErrMalformedReport)
	}
	if !gjson.ParseBytes(data).IsObject() {
		return nil, fmt.Errorf("%w: combined report must be an object", core.ErrMalformedReport)
	}
	combined := CombinedReport{}
	for _, kind := range Kinds() {
		r, err := DecodeReport(data, kind)
		if err != nil {
			return nil, err
		}
		combined[kind] = r
	}
	return combined, nil
}

func kindList(obj gjson.Result, kind Kind) (gjson.Result, bool) {
	for _, name := range []string{kind.String(), kind.LegacyKey()} {
		if r := obj.Get(name); r.Exists() {
			return r, true
		}
	}
	return gjson.Result{}, false
}

func decodeGroundTruthItems(kind Kind, list gjson.Result) ([]GroundTruthItem, error) {
	raw, err := decodeItems(kind, core.SideGroundTruth, list)
	if err != nil {
		return nil, err
	}
	items := make([]GroundTruthItem, len(raw))
	for i, r := range raw {
		items[i] = GroundTruthItem{Kind: kind, Key: r.key, Files: r.files}
	}
	return items, nil
}

func decodeReportedItems(kind Kind, list gjson.Result) ([]ReportedItem, error) {
	raw, err := decodeItems(kind, core.SideReported, list)
	if err != nil {
		return nil, err
	}
	items := make([]ReportedItem, len(raw))
	for i, r := range raw {
		items[i] = ReportedItem{Kind: kind, Key: r.key, Files: r.files}
	}
	return items, nil
}

type rawItem struct {
	key   string
	files []string
}

func decodeItems(kind Kind, side core.Side, list gjson.Result) ([]rawItem, error) {
	if !list.Exists() || list.Type == gjson.Null {
		return []rawItem{}, nil
	}
	if !list.IsArray() {
		return nil, &core.MalformedReportError{Kind: kind.String(), Side: side, Index: -1, Field: "items", Reason: "must be an array"}
	}

	elems := list.Array()
	out := make([]rawItem, 0, len(elems))
	for i, el := range elems {
		item, err := decodeItem(kind, side, i, el)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func decodeItem(kind Kind, side core.Side, index int, el gjson.Result) (rawItem, error) {
	malformed := func(field, reason string) error {
		return &core.MalformedReportError{Kind: kind.String(), Side: side, Index: index, Field: field, Reason: reason}
	}

	switch el.Type {
	case gjson.String:
		return rawItem{key: el.Str}, nil
	case gjson.Number:
		return rawItem{key: el.Raw}, nil
	case gjson.JSON:
		if !el.IsObject() {
			return rawItem{}, malformed("item", "must be a string or object")
		}
	default:
		return rawItem{}, malformed("item", "must be a string or object")
	}

	var item rawItem
	for _, name := range []string{"key", "section", "file", "feature"} {
		v := el.Get(name)
		if !v.Exists() {
			continue
		}
		switch v.Type {
		case gjson.String:
			item.key = v.Str
		case gjson.Number:
			item.key = v.Raw
		default:
			return rawItem{}, malformed(name, "must be a string")
		}
		break
	}

	files := el.Get("files")
	switch {
	case files.Exists() && files.Type != gjson.Null:
		if !files.IsArray() {
			return rawItem{}, malformed("files", "must be an array of strings")
		}
		item.files = []string{}
		for j, f := range files.Array() {
			if f.Type != gjson.String {
				return rawItem{}, malformed(fmt.Sprintf("files[%d]", j), "must be a string")
			}
			item.files = append(item.files, f.Str)
		}
	case kind != KindMissing && el.Get("file").Type == gjson.String:
		item.files = []string{el.Get("file").Str}
	}
	return item, nil
}
