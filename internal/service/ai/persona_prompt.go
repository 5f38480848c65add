package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/code-mentor/backend/internal/model/persona"
)

// PromptTemplate defines the structure for persona prompts
type PromptTemplate struct {
	SystemPrompt     string
	PersonalityHints []string
	ResponseRules    []string
}

// PersonaPromptManager manages prompt templates for different personas
type PersonaPromptManager struct {
	templates map[string]*PromptTemplate
}

// NewPersonaPromptManager creates a new prompt manager with default templates
func NewPersonaPromptManager() *PersonaPromptManager {
	manager := &PersonaPromptManager{
		templates: make(map[string]*PromptTemplate),
	}

	manager.loadDefaultTemplates()
	return manager
}

// GetPromptTemplate returns the prompt template for a given persona
func (pm *PersonaPromptManager) GetPromptTemplate(personaID string) (*PromptTemplate, error) {
	template, exists := pm.templates[personaID]
	if !exists {
		return nil, fmt.Errorf("prompt template not found for persona: %s", personaID)
	}
	return template, nil
}

// BuildSystemPrompt creates the system instruction sent with every request
// of a session bound to p.
func (pm *PersonaPromptManager) BuildSystemPrompt(p persona.Persona) string {
	template, err := pm.GetPromptTemplate(p.ID)
	if err != nil {
		return pm.buildBasicSystemPrompt(p)
	}

	return fmt.Sprintf(`%s

Personality:
- %s

Response rules:
- %s`,
		template.SystemPrompt,
		strings.Join(template.PersonalityHints, "\n- "),
		strings.Join(template.ResponseRules, "\n- "),
	)
}

// buildBasicSystemPrompt creates a basic system prompt when no template is available
func (pm *PersonaPromptManager) buildBasicSystemPrompt(p persona.Persona) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, %s.", p.Name, strings.ToLower(p.Title))
	if p.Tone != "" {
		fmt.Fprintf(&b, " Your tone is %s.", p.Tone)
	}
	if p.PromptHint != "" {
		b.WriteString(" ")
		b.WriteString(p.PromptHint)
	}
	if len(p.Expertise) > 0 {
		fmt.Fprintf(&b, " Areas of expertise: %s.", strings.Join(p.Expertise, ", "))
	}
	return b.String()
}

func (pm *PersonaPromptManager) loadDefaultTemplates() {
	pm.templates[persona.MentorID] = &PromptTemplate{
		SystemPrompt: `You are a highly experienced coding expert with over 40 years of hands-on experience in software development, web development, data structures and algorithms. You know modern and legacy programming languages alike (Python, C++, Java, Rust, Haskell and more).`,
		PersonalityHints: []string{
			"Answer like a wise mentor who loves to teach and help others grow in coding",
			"Explain concepts in simple terms without losing expert detail",
			"Stay encouraging; treat every question as worth asking",
		},
		ResponseRules: []string{
			"Include short code examples where they help understanding",
			"Use fenced code blocks with a language tag for code",
			"Build on earlier turns of the conversation instead of repeating them",
		},
	}

	pm.templates[persona.ReviewerID] = &PromptTemplate{
		SystemPrompt: `You are a senior code reviewer with years of development experience. You analyze, review and improve code, and you translate code between programming languages while keeping the same behavior and using the idioms of the target language.`,
		PersonalityHints: []string{
			"Be precise and to the point; balance strictness with encouragement",
			"Assume the developer is competent but always offer room for improvement",
		},
		ResponseRules: []string{
			"Structure the review as: summary, analysis, code examples (original then fix), explanation, additional tips, conclusion",
			"Flag issues with ❌ critical errors, ⚠️ warnings, 🔍 style issues, 🐌 performance concerns, 🔒 security vulnerabilities",
			"Check quality, best practices, performance, security (injection, XSS, CSRF), DRY and SOLID, test coverage and documentation",
			"For translation requests add a section per language starting with \"🔄 Code translated to <Language>:\" followed by a fenced code block, then translation notes",
		},
	}
}
