package summarizer

import (
	"fmt"
	"papersum/internal/domain"
)

const promptTemplate = `You are an expert research paper summarizer. Create a coherent, single-paragraph summary of the following research paper in approximately %d words.

Style Guide: %s

Focus on creating a flowing narrative that covers:
- The main research question and objectives
- Key methodology used
- Important findings and results
- Significant conclusions and implications

Write the summary as a cohesive paragraph that reads naturally and maintains logical flow between ideas.

Research paper:
%s

Summary:`

var fluencyGuide = map[domain.Fluency]string{
	domain.FluencyBasic:        "Use simple and clear language, avoiding technical terms where possible.",
	domain.FluencyStandard:     "Use a balanced mix of technical and accessible language.",
	domain.FluencyProfessional: "Use academic language and technical terminology appropriate for scholarly writing.",
}

// StyleGuide returns the style sentence for f, falling back to the standard one.
func StyleGuide(f domain.Fluency) string {
	if guide, ok := fluencyGuide[f]; ok {
		return guide
	}

	return fluencyGuide[domain.FluencyStandard]
}

// BuildPrompt embeds the source text verbatim.
func BuildPrompt(text string, prefs domain.Preferences) string {
	return fmt.Sprintf(promptTemplate, int(prefs.Length), StyleGuide(prefs.Fluency), text)
}
