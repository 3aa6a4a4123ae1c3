// Package subscriptioninput implements the effective set of channel names
// and channel-group names currently subscribed, as an immutable value type.
package subscriptioninput

import "sort"

// PresenceSuffix is appended to a channel name to form its synthetic
// presence-announcement channel.
const PresenceSuffix = "-pnpres"

// Input is the unordered set of channel names plus channel-group names that
// an engine should be driving right now. It is a value type: every mutating
// operation returns a new Input rather than editing in place, matching the
// teacher's clone-then-mutate style for shared bucket state.
type Input struct {
	channels []string
	groups   []string
}

// New builds an Input from two optional lists, collapsing duplicates.
// Ordering on the wire is not significant, so the stored order is whatever
// sort.Strings produces — this keeps equality checks (used to detect
// no-op SubscriptionChanged events) cheap and deterministic.
func New(channels, groups []string) Input {
	return Input{channels: dedupeSorted(channels), groups: dedupeSorted(groups)}
}

// Empty is the zero-value Input.
var Empty = Input{}

func dedupeSorted(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

// Channels returns the channel names in this input, sorted.
func (i Input) Channels() []string { return append([]string(nil), i.channels...) }

// Groups returns the channel-group names in this input, sorted.
func (i Input) Groups() []string { return append([]string(nil), i.groups...) }

// IsEmpty reports whether the input carries no channels and no groups.
func (i Input) IsEmpty() bool { return len(i.channels) == 0 && len(i.groups) == 0 }

// Equal reports whether two inputs contain the same channel and group sets.
func (i Input) Equal(other Input) bool {
	return stringSliceEqual(i.channels, other.channels) && stringSliceEqual(i.groups, other.groups)
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for idx := range a {
		if a[idx] != b[idx] {
			return false
		}
	}
	return true
}

// Union returns the set union of i and other.
func (i Input) Union(other Input) Input {
	return New(append(append([]string(nil), i.channels...), other.channels...),
		append(append([]string(nil), i.groups...), other.groups...))
}

// Difference returns i with every name present in other removed.
func (i Input) Difference(other Input) Input {
	removeChannels := toSet(other.channels)
	removeGroups := toSet(other.groups)
	return Input{
		channels: filterOut(i.channels, removeChannels),
		groups:   filterOut(i.groups, removeGroups),
	}
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

func filterOut(items []string, remove map[string]struct{}) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := remove[item]; ok {
			continue
		}
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
