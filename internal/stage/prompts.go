package stage

import (
	"fmt"
	"strings"
)

// Content tells the prompts whether the block carries markup.
type Content int

const (
	ContentHTML Content = iota
	ContentText
)

// Format is the short name stored with cached translations.
func (c Content) Format() string {
	if c == ContentText {
		return "text"
	}
	return "html"
}

func (c Content) label() string {
	if c == ContentText {
		return "plain text"
	}
	return "HTML"
}

// Prompt is the system/user template pair bound to a stage. Templates use
// {placeholder} markers filled by Render.
type Prompt struct {
	System string
	User   string
}

// Vars are the values substituted into a prompt template.
type Vars struct {
	SourceLanguage string
	TargetLanguage string
	Text           string
	OriginalText   string
	TranslatedText string
	Criticism      string
	Glossary       string
	Domain         string
	Style          string
}

// Render fills the placeholders of p. Unknown markers are left as they are.
func (p Prompt) Render(v Vars) (system, user string) {
	r := strings.NewReplacer(
		"{sourceLanguage}", v.SourceLanguage,
		"{targetLanguage}", v.TargetLanguage,
		"{text}", v.Text,
		"{originalText}", v.OriginalText,
		"{translatedText}", v.TranslatedText,
		"{criticism}", v.Criticism,
		"{glossary}", glossaryBlock(v.Glossary),
		"{context}", contextBlock(v.Domain, v.Style),
	)
	return r.Replace(p.System), r.Replace(p.User)
}

type promptKey struct {
	stage   Stage
	content Content
}

var registry = buildRegistry()

// PromptFor returns the prompt bound to s for the given content kind.
// Combiner has no prompt.
func PromptFor(s Stage, c Content) (Prompt, bool) {
	p, ok := registry[promptKey{s, c}]
	return p, ok
}

func buildRegistry() map[promptKey]Prompt {
	reg := make(map[promptKey]Prompt)
	for _, c := range []Content{ContentHTML, ContentText} {
		reg[promptKey{Translator, c}] = translatorPrompt(c)
		for _, d := range Dimensions() {
			reg[promptKey{d.Reviewer(), c}] = reviewerPrompt(d, c)
			reg[promptKey{d.Refiner(), c}] = refinerPrompt(d, c)
		}
		reg[promptKey{UserRefiner, c}] = userRefinerPrompt(c)
	}
	return reg
}

func translatorPrompt(c Content) Prompt {
	var rules string
	if c == ContentHTML {
		rules = `- Keep every HTML tag and attribute exactly as it appears; never add new ones.
- Translate only the visible text.
- Leave entities, placeholders and variables untouched.
`
	}
	return Prompt{
		System: fmt.Sprintf(`You are a professional translator working from {sourceLanguage} into {targetLanguage}.
You translate %[1]s content in a formal, technical register and adapt it so it reads naturally to a native reader.
{context}Rules:
%[2]s- Preserve the original formatting and line breaks.
- Get grammatical gender and number right in {targetLanguage}; when the source is ambiguous use the standard form.
- Reply with the translated %[1]s only, without explanations.`, c.label(), rules),
		User: fmt.Sprintf(`Translate the following %[1]s from {sourceLanguage} to {targetLanguage}.

%[1]s content:
{text}`, c.label()),
	}
}

func reviewerPrompt(d Dimension, c Content) Prompt {
	return Prompt{
		System: fmt.Sprintf(`You are an editorial reviewer checking the %[1]s of a translation from {sourceLanguage} to {targetLanguage}.
Check that %[2]s.
{context}Do not correct the translation yourself and do not comment on anything other than %[1]s.
Markup and placeholders must stay intact; only flag them when they were altered.`, d, d.Focus()),
		User: fmt.Sprintf(`Review the %[1]s of the translation below.

Answer with a "## %[1]s" heading followed by one bullet per issue.
If there is nothing to fix, answer with the single word NONE.
{glossary}
Original %[2]s:
{originalText}

Translated %[2]s:
{translatedText}`, d, c.label()),
	}
}

func refinerPrompt(d Dimension, c Content) Prompt {
	return Prompt{
		System: fmt.Sprintf(`You are an editor refining the %[1]s of a translation from {sourceLanguage} to {targetLanguage}.
Address only the %[1]s feedback you are given, so that %[2]s.
{context}Keep markup, placeholders and meaning unchanged. Reply with the refined %[3]s only.`, d, d.Focus(), c.label()),
		User: fmt.Sprintf(`Refine the translated %[2]s for %[1]s, addressing every feedback item.
Where an item cannot be addressed keep the existing wording.
{glossary}
Original %[2]s:
{originalText}

Translated %[2]s:
{translatedText}

%[1]s feedback:
{criticism}`, d, c.label()),
	}
}

func userRefinerPrompt(c Content) Prompt {
	return Prompt{
		System: fmt.Sprintf(`You are an editor applying feedback that language experts gave on past translations from {sourceLanguage} to {targetLanguage}.
The translation has already been reviewed for every quality dimension.
Apply only the feedback that is relevant to this text and leave everything else as it is.
{context}Keep markup and placeholders unchanged. Reply with the refined %s only.`, c.label()),
		User: fmt.Sprintf(`Refine the translated %[1]s using the past feedback below.

Original %[1]s:
{originalText}

Translated %[1]s:
{translatedText}

Past feedback:
{criticism}`, c.label()),
	}
}

func glossaryBlock(glossary string) string {
	if strings.TrimSpace(glossary) == "" {
		return ""
	}
	return "\nUse these exact term translations:\n" + glossary + "\n"
}

func contextBlock(domain, style string) string {
	var sb strings.Builder
	if domain != "" {
		fmt.Fprintf(&sb, "The text belongs to the %s domain.\n", domain)
	}
	if style != "" {
		fmt.Fprintf(&sb, "Write in a %s style.\n", style)
	}
	return sb.String()
}
