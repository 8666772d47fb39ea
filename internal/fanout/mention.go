package fanout

import "regexp"

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// ExtractMentions はコメント本文から @ハンドル を抽出する。
// 大文字小文字は区別し、重複は初出順で1つにまとめる。
func ExtractMentions(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	handles := make([]string, 0, len(matches))
	for _, m := range matches {
		h := m[1]
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		handles = append(handles, h)
	}
	return handles
}
