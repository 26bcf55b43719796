// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package artifact

import "strings"

// BuildTXT assembles the header-free TXT composite: chapters concatenated
// in order, each preceded by its title, with a volume separator line
// whenever a chapter names a volume other than the last one printed.
// Chapters without a volume name get no separator.
func BuildTXT(chapters []ChapterBody) []byte {
	var sb strings.Builder

	var currentVolume string
	hasVolume := false
	for i, ch := range chapters {
		volume := ""
		if ch.Chapter.VolumeName != nil {
			volume = *ch.Chapter.VolumeName
		}
		if volume != "" && (!hasVolume || volume != currentVolume) {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(volume)
			sb.WriteString("\n\n")
			currentVolume = volume
			hasVolume = true
		}

		sb.WriteString(ch.Chapter.Title)
		sb.WriteString("\n\n")
		sb.WriteString(strings.ReplaceAll(ch.Text, "\r\n", "\n"))
		sb.WriteString("\n\n")
	}

	return []byte(sb.String())
}
