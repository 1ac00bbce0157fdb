package models

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// UnselectedLabel is the label of the sentinel entry at index 0 of every category list.
const UnselectedLabel = "선택하세요"

// CategoryNode is a main or middle variety category.
type CategoryNode struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Unselected returns the sentinel entry.
func Unselected() CategoryNode {
	return CategoryNode{Code: "", Label: UnselectedLabel}
}

func (n CategoryNode) IsSelected() bool {
	return n.Code != ""
}

var (
	labelDigits      = regexp.MustCompile(`\p{Nd}+`)
	labelParenthesis = regexp.MustCompile(`[\s\p{Zs}]*\(.*\)[\s\p{Zs}]*`)
	labelPunctuation = regexp.MustCompile(`[^\p{L}\p{N}\p{M}_\s\p{Zs}]`)
	labelSpaces      = regexp.MustCompile(`[\s\p{Zs}]+`)
)

// NormalizeLabel strips digits, then parenthetical clauses, then any remaining
// non-word characters, and finally collapses whitespace. The order matters:
// punctuation stripping would otherwise remove the parentheses before their
// content could be dropped.
func NormalizeLabel(label string) string {
	s := norm.NFC.String(label)
	s = labelDigits.ReplaceAllString(s, "")
	s = labelParenthesis.ReplaceAllString(s, "")
	s = labelPunctuation.ReplaceAllString(s, "")
	s = labelSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NewCategoryList builds a list with the sentinel at index 0, dropping entries
// whose code or normalized label is empty.
func NewCategoryList(nodes []CategoryNode) []CategoryNode {
	list := make([]CategoryNode, 0, len(nodes)+1)
	list = append(list, Unselected())
	for _, n := range nodes {
		label := NormalizeLabel(n.Label)
		code := strings.TrimSpace(n.Code)
		if label == "" || code == "" {
			continue
		}
		list = append(list, CategoryNode{Code: code, Label: label})
	}
	return list
}
