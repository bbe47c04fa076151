// Package notebook cleans Jupyter notebooks exported from Colab.
package notebook

// StripWidgets returns a copy of nb without metadata.widgets, the Colab
// widget state GitHub Gist cannot render. An emptied metadata object is
// removed too. nb is not modified.
func StripWidgets(nb map[string]any) map[string]any {
	out := make(map[string]any, len(nb))
	for k, v := range nb {
		out[k] = v
	}
	meta, ok := nb["metadata"].(map[string]any)
	if !ok {
		return out
	}
	if _, has := meta["widgets"]; !has {
		return out
	}
	cleaned := make(map[string]any, len(meta))
	for k, v := range meta {
		if k != "widgets" {
			cleaned[k] = v
		}
	}
	if len(cleaned) == 0 {
		delete(out, "metadata")
	} else {
		out["metadata"] = cleaned
	}
	return out
}
