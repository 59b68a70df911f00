package database

import "strings"

// LikeEscape is appended to every LIKE clause built with ContainsPattern.
const LikeEscape = ` ESCAPE '!'`

var likeReplacer = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ContainsPattern turns s into a case-folded LIKE pattern that matches s
// literally anywhere in the column.
func ContainsPattern(s string) string {
	return "%" + likeReplacer.Replace(strings.ToLower(s)) + "%"
}
