package page

import (
	"encoding/json"
	"regexp"
	"strings"

	"cbcgrab/internal/domain"
)

// The page embeds its render state as a single JSON object assigned to a
// global inside a script block. Unset fields are emitted as the bare token
// `undefined`, which is not JSON; substitute null before decoding.
var reState = regexp.MustCompile(`(?s)window\.__INITIAL_STATE__ = (\{.*?\});\s*</script>`)

// ExtractState pulls the embedded state object out of raw page markup.
func ExtractState(html string) (map[string]any, error) {
	m := reState.FindStringSubmatch(html)
	if m == nil {
		return nil, &domain.Error{Kind: domain.KindParse, Message: "embedded state object not found in page"}
	}
	text := strings.ReplaceAll(m[1], ":undefined", ":null")

	var state map[string]any
	if err := json.Unmarshal([]byte(text), &state); err != nil {
		return nil, &domain.Error{Kind: domain.KindParse, Message: "embedded state is not valid JSON", Err: err}
	}
	return state, nil
}

// FindAudioBlock walks every node under the state's content body and returns
// the first media wrapper whose nested content is typed "audio". First found
// wins; multiple audio blocks are not ranked.
func FindAudioBlock(state map[string]any) (map[string]any, error) {
	body := subtree(state, "detail", "content", "body")

	var found map[string]any
	walk(body, func(node map[string]any) bool {
		if str(node, "type") != "polopoly_media" {
			return false
		}
		media, ok := node["content"].(map[string]any)
		if !ok || str(media, "type") != "audio" {
			return false
		}
		found = media
		return true
	})
	if found == nil {
		return nil, &domain.Error{Kind: domain.KindNotFound, Message: "no embedded audio block in story"}
	}
	return found, nil
}

// walk visits every mapping reachable from root, depth first. The visit
// callback returns true to stop the traversal.
func walk(root any, visit func(map[string]any) bool) bool {
	switch v := root.(type) {
	case map[string]any:
		if visit(v) {
			return true
		}
		for _, child := range v {
			if walk(child, visit) {
				return true
			}
		}
	case []any:
		for _, child := range v {
			if walk(child, visit) {
				return true
			}
		}
	}
	return false
}

// timestampSources lists where a usable epoch-millisecond timestamp may live,
// in priority order. First non-null wins.
var timestampSources = []struct {
	node func(audio, state map[string]any) map[string]any
	keys []string
}{
	{
		node: func(audio, _ map[string]any) map[string]any { return audio },
		keys: []string{"publishedAt", "updatedAt", "airDate"},
	},
	{
		node: func(audio, _ map[string]any) map[string]any { m, _ := audio["media"].(map[string]any); return m },
		keys: []string{"airDate", "publishedAt", "updatedAt"},
	},
	{
		node: func(_, state map[string]any) map[string]any {
			m, _ := subtree(state, "detail", "content").(map[string]any)
			return m
		},
		keys: []string{"publishedAt", "updatedAt"},
	},
}

// TargetTimestampMS resolves the story's timestamp, 0 when no source has one.
func TargetTimestampMS(audio, state map[string]any) int64 {
	for _, src := range timestampSources {
		node := src.node(audio, state)
		if node == nil {
			continue
		}
		for _, key := range src.keys {
			if v, ok := node[key].(float64); ok {
				return int64(v)
			}
		}
	}
	return 0
}

// imageSizes in decreasing resolution; the largest available wins.
var imageSizes = []string{"square_620", "square_460", "square_380", "square_300"}

// ImageURL picks cover art from the audio block: a flat image URL first,
// then the largest entry of the size-keyed image map.
func ImageURL(audio map[string]any) string {
	if image, ok := audio["image"].(map[string]any); ok {
		if u := str(image, "url"); u != "" {
			return u
		}
	}
	if images, ok := audio["images"].(map[string]any); ok {
		for _, key := range imageSizes {
			if u := str(images, key); u != "" {
				return u
			}
		}
	}
	return ""
}

// Target builds the matching query from the located audio block. Title falls
// back to the raw title string and is never empty-for-missing; timestamp and
// image are optional and simply absent when the page has none.
func Target(audio, state map[string]any) domain.TargetDescriptor {
	return domain.TargetDescriptor{
		Title:       str(audio, "title"),
		Description: str(audio, "description"),
		ShowSlug:    str(audio, "showSlug"),
		TimestampMS: TargetTimestampMS(audio, state),
		ImageURL:    ImageURL(audio),
	}
}

func str(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// subtree follows keys through nested mappings; the final hop may be any
// shape (the content body is a list).
func subtree(m map[string]any, keys ...string) any {
	var cur any = m
	for _, key := range keys {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = mm[key]
	}
	return cur
}
