package agent

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Prompt names. Each may be overridden by <name>.md in the prompts directory.
const (
	PromptPlanner          = "planner"
	PromptQueries          = "queries"
	PromptSearchAnalysis   = "search_analysis"
	PromptDocumentAnalysis = "document_analysis"
	PromptSynthesis        = "synthesis"
	PromptReflection       = "reflection"
	PromptReport           = "report"
)

var defaultPrompts = map[string]string{
	PromptPlanner: `You are a research planning assistant. Create a detailed step-by-step research plan.
Return your response as a JSON object with this structure:
{
    "steps": [
        {
            "step_id": 1,
            "description": "Clear description of what to do",
            "tools_needed": ["web_search"]
        }
    ]
}

Available tools: "web_search" (search the web and read pages), "pdf_reader" (read the configured documents).
Steps that only combine earlier findings need no tools.
Make sure each step is specific and actionable. Include 5-8 steps typically.`,

	PromptQueries: "Generate 1-3 specific search queries for this research step. Return only the queries, one per line.",

	PromptSearchAnalysis: "Analyze the search results and provide a clear, structured summary of key findings relevant to the research step.",

	PromptDocumentAnalysis: "Summarize the document excerpts below, keeping only what is relevant to the research step. Cite the document name for each finding.",

	PromptSynthesis: "Synthesize and analyze the research findings. Provide insights, connections, and conclusions.",

	PromptReflection: `You are reflecting on research progress. Analyze what has been accomplished,
identify gaps, and suggest next steps or adjustments to the research plan.`,

	PromptReport: `Create a comprehensive research report. Include:
1. Executive Summary
2. Key Findings
3. Analysis and Insights
4. Conclusions
5. Areas for Further Research

Make it well-structured and professional.`,
}

// preambleOrder lists optional files prepended to every prompt, in order.
var preambleOrder = []string{"identity.md", "soul.md", "user.md"}

type PromptManager struct {
	Directory string
}

func NewPromptManager(dir string) *PromptManager {
	return &PromptManager{Directory: dir}
}

// Get returns the system prompt for name: the preamble files, then either
// <name>.md from the directory or the built-in default.
func (pm *PromptManager) Get(name string) string {
	body := defaultPrompts[name]
	if override, ok := pm.read(name + ".md"); ok {
		body = override
	}

	var parts []string
	for _, f := range preambleOrder {
		if content, ok := pm.read(f); ok {
			parts = append(parts, content)
		}
	}
	if len(parts) == 0 {
		return body
	}
	return strings.Join(append(parts, body), "\n\n---\n\n")
}

func (pm *PromptManager) read(file string) (string, bool) {
	if pm == nil || pm.Directory == "" {
		return "", false
	}
	path := filepath.Join(pm.Directory, file)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("Warning: Failed to read prompt file %s: %v", path, err)
		}
		return "", false
	}
	content := strings.TrimSpace(string(data))
	return content, content != ""
}
