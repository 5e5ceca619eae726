package domain

import "sort"

// Bound is one end of a key range.
type Bound struct {
	Key       string `json:"key"`
	Exclusive bool   `json:"exclusive,omitempty"`
}

// ListOptions filters list queries. Zero value lists everything.
type ListOptions struct {
	// Status restricts results to records in this status.
	Status string `json:"status,omitempty"`
	// Assets restricts results to records touching at least one of these assets.
	Assets []string `json:"assets,omitempty"`
	Start  *Bound   `json:"start,omitempty"`
	End    *Bound   `json:"end,omitempty"`
}

// InRange reports whether key falls within the start and end bounds.
func (o ListOptions) InRange(key string) bool {
	if o.Start != nil {
		if key < o.Start.Key || (o.Start.Exclusive && key == o.Start.Key) {
			return false
		}
	}
	if o.End != nil {
		if key > o.End.Key || (o.End.Exclusive && key == o.End.Key) {
			return false
		}
	}
	return true
}

// MatchesStatus reports whether status passes the status filter.
func (o ListOptions) MatchesStatus(status string) bool {
	return o.Status == "" || o.Status == status
}

// MatchesAssets reports whether assets intersects the asset filter.
func (o ListOptions) MatchesAssets(assets ...string) bool {
	if len(o.Assets) == 0 {
		return true
	}
	for _, a := range assets {
		if containsString(o.Assets, a) {
			return true
		}
	}
	return false
}

// MatchPledge applies every filter to a pledge.
func (o ListOptions) MatchPledge(p Pledge) bool {
	return o.InRange(p.ID) && o.MatchesStatus(string(p.Status)) && o.MatchesAssets(p.Assets...)
}

// MatchPaydown applies every filter to a paydown.
func (o ListOptions) MatchPaydown(p Paydown) bool {
	return o.InRange(p.ID) && o.MatchesStatus(string(p.Status)) && o.MatchesAssets(p.Assets...)
}

// MatchAsset applies every filter to an asset record.
func (o ListOptions) MatchAsset(a Asset) bool {
	return o.InRange(a.ID) && o.MatchesStatus(string(a.Status)) && o.MatchesAssets(a.ID)
}

// FilterSorted returns the items passing match, ordered by ascending key.
func FilterSorted[T any](items []T, key func(T) string, match func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if match(item) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i]) < key(out[j]) })
	return out
}
