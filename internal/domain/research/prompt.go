package research

import (
	"fmt"
	"strings"
	"time"
)

var styleInstructions = map[Style]string{
	StyleComprehensive:    "Provide a thorough, well-structured answer with extensive details, examples, and explanations.",
	StyleConcise:          "Provide a clear, focused answer that covers the key points without unnecessary detail.",
	StyleTechnical:        "Provide a detailed, technical answer with specific terminology and in-depth explanations.",
	StyleBeginnerFriendly: "Provide a clear, easy-to-understand answer with simple explanations and examples.",
}

const (
	citeSources   = "Include source references and citations where appropriate."
	skipCitations = "Focus on the content without extensive source citations."
)

// BuildPrompt assembles the synthesis prompt from the combined context and the
// task parameters. retrieved is rendered as the retrieval date.
func BuildPrompt(contextText, topic string, style Style, includeSources bool, retrieved time.Time) string {
	instruction, ok := styleInstructions[style]
	if !ok {
		style = StyleComprehensive
		instruction = styleInstructions[style]
	}
	sourceInstruction := skipCitations
	if includeSources {
		sourceInstruction = citeSources
	}
	tone := strings.ToLower(string(style))

	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful research assistant. Based on the following context information (retrieved on %s), please provide a %s answer to the user's question.\n\n",
		retrieved.Format("2006-01-02"), tone)
	b.WriteString("CONTEXT INFORMATION:\n")
	b.WriteString(contextText)
	b.WriteString("\n\nINSTRUCTIONS:\n")
	for _, line := range []string{
		instruction,
		"Base your answer ONLY on the context provided above",
		"If the context contains multiple sources or perspectives, synthesize them coherently",
		"Use clear headings and formatting to organize your response",
		sourceInstruction,
		"Do not make up information that is not present in the context",
		"If the context is insufficient to fully answer the question, explain what information is available and what might be missing",
	} {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nQUESTION: %s\n\nPlease provide a %s answer:", topic, tone)
	return b.String()
}
