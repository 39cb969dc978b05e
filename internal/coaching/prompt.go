package coaching

import (
	"embed"
	"strings"

	"github.com/samber/lo"

	"callcoach-backend/internal/llm"
)

//go:embed prompts
var promptFS embed.FS

var (
	coachIdentity = mustPrompt("prompts/identity.txt")
	userTemplate  = mustPrompt("prompts/user.txt")
	jsonFormat    = mustPrompt("prompts/json_format.txt")
)

var coachingPhilosophy = []string{
	"One big change beats ten small ones",
	"Actions must be applicable TOMORROW",
	"No vague advice, be specific and direct",
	"Use exact quotes as evidence",
	"Be honest, even when it is uncomfortable",
	"Focus on behaviour, not personality",
}

var outputRulesBase = []string{
	"Quotes must come from the transcript EXACTLY",
	"Start every action with a verb",
	"No coaching jargon or vague language",
	"If something is unclear, say so honestly",
}

var outputRulesByExperience = map[string][]string{
	ExperienceStarter: append([]string{
		"At most 2 actionPoints, keep them basic",
		"At most 3 observations",
		"Explain why each action works in plain words",
	}, outputRulesBase...),
	ExperienceIntermediate: append([]string{
		"At most 3 actionPoints",
		"At most 3 observations",
		"Every action must be applicable TOMORROW",
	}, outputRulesBase...),
	ExperienceExpert: append([]string{
		"At most 3 actionPoints, only non-obvious ones",
		"At most 3 observations",
		"Skip fundamentals unless they are clearly broken",
	}, outputRulesBase...),
}

type framework struct {
	Name        string
	Description string
	Criteria    []string
	// AppliesTo lists focus areas; empty means every focus.
	AppliesTo []string
}

var frameworks = []framework{
	{
		Name:        "Doctor Frame",
		Description: "Position yourself as the expert who diagnoses, not the seller who pushes",
		Criteria: []string{
			"Does the closer ask diagnostic questions before prescribing?",
			"Does the closer keep authority when the prospect pushes back?",
		},
	},
	{
		Name:        "NEPQ",
		Description: "Question-led selling that combines emotion and logic",
		Criteria: []string{
			"Are there connecting, situation and problem awareness questions?",
			"Are consequence questions used to create urgency?",
		},
		AppliesTo: []string{FocusRapport, FocusGeneral, FocusClosing},
	},
	{
		Name:        "Sandler Pain Funnel",
		Description: "Keep asking until the real pain surfaces",
		Criteria: []string{
			"Does the closer go beyond the surface problem?",
			"Is the cost of the problem quantified?",
		},
		AppliesTo: []string{FocusGeneral, FocusObjections},
	},
	{
		Name:        "Isolate & Overcome",
		Description: "Acknowledge, isolate, clarify, overcome and confirm objections",
		Criteria: []string{
			"Is the objection acknowledged before it is answered?",
			"Is it confirmed that the objection is resolved?",
		},
		AppliesTo: []string{FocusObjections},
	},
	{
		Name:        "Commitment Ladder",
		Description: "Small yeses build towards the big yes",
		Criteria: []string{
			"Are trial closes used during the call?",
			"Is commitment measured before the final close?",
		},
		AppliesTo: []string{FocusClosing},
	},
}

func mustPrompt(name string) string {
	data, err := promptFS.ReadFile(name)
	if err != nil {
		panic("coaching: missing embedded prompt " + name)
	}
	return strings.TrimSpace(string(data))
}

func optionalPrompt(dir, option string) string {
	if option == "" {
		return ""
	}
	data, err := promptFS.ReadFile("prompts/" + dir + "/" + option + ".txt")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func activeFrameworks(focus string) []framework {
	return lo.Filter(frameworks, func(f framework, _ int) bool {
		return len(f.AppliesTo) == 0 || (focus != "" && lo.Contains(f.AppliesTo, focus))
	})
}

func bullets(items []string) []string {
	return lo.Map(items, func(item string, _ int) string {
		return "- " + item
	})
}

// BuildSystemPrompt renders the system prompt for the given context.
// Unrecognised or empty options contribute nothing.
func BuildSystemPrompt(c AnalysisContext) string {
	parts := []string{coachIdentity, "", "COACHING PHILOSOPHY:"}
	parts = append(parts, bullets(coachingPhilosophy)...)
	parts = append(parts, "")

	for _, section := range []string{
		optionalPrompt("experience", c.Experience),
		optionalPrompt("focus", c.Focus),
		optionalPrompt("goal", c.Goal),
	} {
		if section != "" {
			parts = append(parts, section, "")
		}
	}

	if active := activeFrameworks(c.Focus); len(active) > 0 {
		parts = append(parts, "ANALYSIS FRAMEWORKS:", "Use the following frameworks to analyse the call:", "")
		for _, f := range active {
			parts = append(parts, "### "+f.Name, f.Description, "Check specifically:")
			parts = append(parts, bullets(f.Criteria)...)
			parts = append(parts, "")
		}
	}

	rules, ok := outputRulesByExperience[c.Experience]
	if !ok {
		rules = outputRulesByExperience[ExperienceIntermediate]
	}
	parts = append(parts, "OUTPUT RULES:")
	parts = append(parts, bullets(rules)...)
	parts = append(parts, "", "Answer ONLY with valid JSON in the specified format, no other text.")

	return strings.Join(parts, "\n")
}

// BuildUserPrompt embeds the (already truncated) transcript and the JSON shape.
func BuildUserPrompt(transcript string) string {
	return strings.NewReplacer(
		"{{JSON_FORMAT}}", jsonFormat,
		"{{TRANSCRIPT}}", transcript,
	).Replace(userTemplate)
}

// Composer returns an llm.Composer bound to c. The system prompt is rendered
// once; only the transcript portion changes between provider attempts.
func Composer(c AnalysisContext) llm.Composer {
	system := BuildSystemPrompt(c)
	return func(transcript string) llm.Prompt {
		return llm.Prompt{System: system, User: BuildUserPrompt(transcript)}
	}
}
