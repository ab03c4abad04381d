package registry

import (
	"regexp"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// maxRuleHits caps how many matches of a guarded rule are inspected before giving up.
const maxRuleHits = 256

// Rule is one piece of textual evidence. It matches when Pattern occurs somewhere in the
// text and that occurrence is not immediately followed by NotFollowedBy.
type Rule struct {
	Pattern       string `yaml:"pattern"`
	NotFollowedBy string `yaml:"not_followed_by,omitempty"`

	re    *regexp.Regexp
	guard *regexp.Regexp
}

// NewRule compiles a rule. When fold is set the pattern and its guard are matched
// case-insensitively.
func NewRule(pattern, notFollowedBy string, fold bool) (Rule, error) {
	r := Rule{Pattern: pattern, NotFollowedBy: notFollowedBy}
	if err := r.compile(fold); err != nil {
		return Rule{}, err
	}
	return r, nil
}

func (r *Rule) compile(fold bool) error {
	flags := ""
	if fold {
		flags = "(?i)"
	}
	re, err := regexp.Compile(flags + r.Pattern)
	if err != nil {
		return errors.Wrapf(err, "compile pattern %q", r.Pattern)
	}
	r.re = re
	r.guard = nil
	if r.NotFollowedBy != "" {
		guard, err := regexp.Compile(flags + `\A(?:` + r.NotFollowedBy + `)`)
		if err != nil {
			return errors.Wrapf(err, "compile guard %q", r.NotFollowedBy)
		}
		r.guard = guard
	}
	return nil
}

// Found reports whether the rule has evidence in text.
func (r Rule) Found(text string) bool {
	if r.re == nil {
		return false
	}
	if r.guard == nil {
		return r.re.MatchString(text)
	}
	for _, loc := range r.re.FindAllStringIndex(text, maxRuleHits) {
		if !r.guard.MatchString(text[loc[1]:]) {
			return true
		}
	}
	return false
}

// String renders the rule in lookahead notation, which is how violations name it.
func (r Rule) String() string {
	if r.NotFollowedBy == "" {
		return r.Pattern
	}
	return r.Pattern + "(?!" + r.NotFollowedBy + ")"
}

// UnmarshalYAML accepts either a bare pattern string or a {pattern, not_followed_by} mapping.
func (r *Rule) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		r.Pattern = node.Value
		return nil
	}
	type plain Rule
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	r.Pattern = p.Pattern
	r.NotFollowedBy = p.NotFollowedBy
	return nil
}
