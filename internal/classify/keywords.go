package classify

import (
	"regexp"
	"strings"

	"github.com/amishk599/jobmerge/internal/model"
)

// Rule maps a job function to the keywords that select it. A keyword matches
// when it occurs anywhere in the normalized title.
type Rule struct {
	Function string
	Keywords []string
}

// Rules is evaluated in order; the first matching rule wins. "Data Product
// Manager" is therefore Data and Analytics, not Engineering.
var Rules = []Rule{
	{
		Function: model.FunctionData,
		Keywords: []string{
			"data", "analytics", "data scientist", "data engineer", "data analyst",
			"analytics engineer", "quantitative researcher", "business intelligence",
		},
	},
	{
		Function: model.FunctionEngineering,
		Keywords: []string{
			"engineer", "developer", "devops", "software", "frontend", "backend",
			"full stack", "blockchain", "smart contract", "solidity", "rust",
			"blockchain developer", "blockchain engineer", "product", "product manager",
			"product owner", "product manager/owner", "research engineer", "qa engineer",
			"project manager", "technical lead", "dev", "cryptograph", "qa", "system",
		},
	},
	{
		Function: model.FunctionBusiness,
		Keywords: []string{
			"strategy", "operations", "sales", "marketing", "partnership", "community",
			"content", "social media", "customer success", "account management", "legal",
			"compliance", "hr", "people operations", "finance", "accounting",
			"administrative", "support", "officer", "solutions", "copywriter", "account",
			"general", "executive", "financial", "tax", "treasury", "payroll", "writer",
			"event", "recruit", "representative", "customer", "auditor",
			"business development",
		},
	},
	{
		Function: model.FunctionDesign,
		Keywords: []string{
			"designer", "art", "creative", "ui/ux", "graphic", "motion", "visual",
			"animation", "3d", "video",
		},
	},
}

var parenthesized = regexp.MustCompile(`\s*\(.*?\)`)

// NormalizeTitle lower-cases a title and strips the decorations that confuse
// keyword matching: parenthesized segments, stray parentheses, slashes, and
// anything after the first comma or hyphen.
func NormalizeTitle(title string) string {
	t := strings.ToLower(title)
	t = parenthesized.ReplaceAllString(t, "")
	t = strings.TrimSpace(t)
	t = strings.NewReplacer("(", "", ")", "").Replace(t)
	t = strings.TrimSpace(t)
	t = strings.ReplaceAll(t, "/", "")
	t = strings.TrimSpace(t)
	if i := strings.Index(t, ","); i >= 0 {
		t = t[:i]
	}
	if i := strings.Index(t, "-"); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

// MatchKeywords returns the first rule's function whose keyword occurs in the
// normalized title, or model.FunctionUnknown.
func MatchKeywords(normalized string) string {
	for _, rule := range Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(normalized, kw) {
				return rule.Function
			}
		}
	}
	return model.FunctionUnknown
}
