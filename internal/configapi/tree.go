package configapi

import "encoding/json"

// toTreeJSON round-trips v through JSON into a plain map[string]any tree
// so flatten.GetPath can traverse it uniformly, mirroring
// configstore.snapshotToTree.
func toTreeJSON(v any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	_ = json.Unmarshal(b, &out)
	return out
}
