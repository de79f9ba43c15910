package spread

import (
	"strings"

	"cadence/internal/content"
	"cadence/internal/routing"
	"cadence/internal/textutil"
)

const defaultMaxHashtags = 10

// topicKeys collects the comparison keys of the item's category segments and
// keywords. Hashtags matching one of them identify the item's topic.
func topicKeys(item content.Item) map[string]struct{} {
	keys := make(map[string]struct{})
	for _, segment := range item.CategorySegments() {
		if k := textutil.HashtagKey(segment); k != "" {
			keys[k] = struct{}{}
		}
	}
	for _, kw := range item.Keywords {
		if k := textutil.HashtagKey(kw); k != "" {
			keys[k] = struct{}{}
		}
	}
	return keys
}

// TailorHashtags adjusts the item's hashtags for dest. Remove-listed tags are
// dropped unless they name the item's topic, missing add-listed tags are
// prepended and the result is capped at the destination maximum by trimming
// non-topic tags from the end. Topic tags are never trimmed.
func TailorHashtags(item content.Item, dest routing.Destination) []string {
	topics := topicKeys(item)
	isTopic := func(tag string) bool {
		_, ok := topics[textutil.HashtagKey(tag)]
		return ok
	}
	remove := make(map[string]struct{}, len(dest.RemoveHashtags))
	for _, tag := range dest.RemoveHashtags {
		remove[textutil.HashtagKey(tag)] = struct{}{}
	}

	seen := make(map[string]struct{})
	base := make([]string, 0, len(item.Hashtags))
	for _, tag := range item.Hashtags {
		key := textutil.HashtagKey(tag)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		if _, drop := remove[key]; drop && !isTopic(tag) {
			continue
		}
		seen[key] = struct{}{}
		base = append(base, trimHash(tag))
	}

	out := make([]string, 0, len(dest.AddHashtags)+len(base))
	for _, tag := range dest.AddHashtags {
		key := textutil.HashtagKey(tag)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimHash(tag))
	}
	out = append(out, base...)

	limit := dest.MaxHashtags
	if limit <= 0 {
		limit = defaultMaxHashtags
	}
	for len(out) > limit {
		cut := -1
		for i := len(out) - 1; i >= 0; i-- {
			if !isTopic(out[i]) {
				cut = i
				break
			}
		}
		if cut < 0 {
			break
		}
		out = append(out[:cut], out[cut+1:]...)
	}
	return out
}

func trimHash(tag string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(tag), "#"))
}
