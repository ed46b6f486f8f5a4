package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrUnknownAction     = errors.New("unknown assistant action")
	ErrUnknownAdviceType = errors.New("unknown advice type")
)

const (
	ActionFix     = "fix"
	ActionExplain = "explain"
	ActionScore   = "score"

	AdviceInvestment = "investment"
	AdviceBudget     = "budget"
)

type CodeAssistRequest struct {
	Action   string
	Language string
	Code     string
	Error    string
	Output   string
}

func CodeAssistPrompt(req CodeAssistRequest, model string) (Prompt, error) {
	codeBlock := fmt.Sprintf("Language: %s\n\nCode:\n```%s\n%s\n```\n", req.Language, req.Language, req.Code)

	var system, user string
	switch req.Action {
	case ActionFix:
		system = `You are an expert code debugger. Analyze the code and error, then provide:
1. The corrected code
2. Explanation of what was wrong
3. Step-by-step fix explanation

Format your response as JSON with keys: correctedCode, explanation, steps (array of strings)`
		errText := req.Error
		if errText == "" {
			errText = "No error provided"
		}
		user = codeBlock + "\nError:\n" + errText + "\n\nFix this code and explain the issue."
	case ActionExplain:
		system = `You are a programming teacher. Explain the code in simple terms:
1. What the code does overall
2. Break down each important section
3. Explain the logic flow
4. Describe the expected output

Format your response as JSON with keys: overview, breakdown (array of {line, explanation}), logic, expectedOutput`
		user = codeBlock + "\n"
		if req.Output != "" {
			user += "Output:\n" + req.Output + "\n\n"
		}
		user += "Explain this code in detail."
	case ActionScore:
		system = `You are a code quality reviewer. Evaluate the code on:
- Readability (0-100)
- Best practices (0-100)
- Efficiency (0-100)
- Error handling (0-100)
- Overall score (0-100)

Also provide: level (Excellent/Good/Needs Improvement/Poor), suggestions (array of strings), complexity analysis.

Format as JSON with keys: readability, bestPractices, efficiency, errorHandling, overall, level, suggestions, complexity`
		user = codeBlock + "\nScore this code and provide improvement suggestions."
	default:
		return Prompt{}, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}

	return Prompt{Model: model, System: system, User: user, JSONMode: true}, nil
}

type AdviceRequest struct {
	Type        string
	Amount      float64
	Period      int
	RiskProfile string
	Income      float64
	Expenses    float64
}

func AdvicePrompt(req AdviceRequest, model string) (Prompt, error) {
	p := Prompt{Model: model, Temperature: 0.7}

	switch req.Type {
	case AdviceInvestment:
		p.System = "You are an expert financial advisor specializing in investment planning. Provide clear, actionable advice in simple language."
		p.User = fmt.Sprintf(`Create an investment recommendation for:
- Investment Amount: ₹%.2f
- Investment Period: %d years
- Risk Profile: %s

Provide:
1. Expected annual return percentage
2. Projected value after %d years
3. Detailed portfolio allocation (JSON array with type, allocation%%, description)
4. Investment advice in 2-3 sentences

Format response as JSON:
{
  "expectedReturn": "10-12%%",
  "projectedValue": 150000,
  "portfolio": [
    {"type": "Equity Mutual Funds", "allocation": 40, "description": "Growth-oriented equity funds"},
    {"type": "Fixed Deposits", "allocation": 30, "description": "Stable returns with capital protection"},
    {"type": "Gold/Bonds", "allocation": 30, "description": "Hedge against inflation"}
  ],
  "advice": "Your personalized advice here"
}`, req.Amount, req.Period, req.RiskProfile, req.Period)
	case AdviceBudget:
		p.System = "You are a personal finance expert helping users optimize their budgets. Be encouraging and practical."
		p.User = fmt.Sprintf(`Analyze this financial situation:
- Monthly Income: ₹%.2f
- Monthly Expenses: ₹%.2f
- Savings: ₹%.2f

Provide:
1. Budget health assessment
2. Savings recommendations
3. Expense optimization tips
4. Emergency fund guidance

Keep response under 200 words, friendly tone.`, req.Income, req.Expenses, req.Income-req.Expenses)
	default:
		return Prompt{}, fmt.Errorf("%w: %q", ErrUnknownAdviceType, req.Type)
	}

	return p, nil
}

func ResumePrompt(fileName, model string) Prompt {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	kind := "document"
	switch ext {
	case "pdf":
		kind = "PDF"
	case "doc", "docx":
		kind = "Word document"
	}

	user := fmt.Sprintf(`Analyze this %[1]s resume (filename: "%[2]s") and provide expert feedback.

Provide a detailed evaluation in this format:

**OVERALL SCORE**: [Score out of 100 based on filename conventions and best practices]

**FILE FORMAT ASSESSMENT**:
- Evaluate if %[3]s is ATS-friendly (PDF is best, DOC/DOCX acceptable)
- Comment on filename professionalism (should be: FirstName_LastName_Resume.%[4]s)

**ATS COMPATIBILITY** (Score: X/25):
- Standard section headings, no tables or graphics, standard fonts, simple bullet points

**CONTENT STRUCTURE** (Score: X/25):
- Short summary, reverse chronological experience, quantified achievements, action verbs, 1-2 pages

**TECHNICAL SKILLS PRESENTATION** (Score: X/25):
- Grouped by category, specific versions/proficiency, job keywords, certifications

**PROFESSIONAL FORMATTING** (Score: X/25):
- Consistent dates, no unnecessary personal info, no spelling errors, clean white space

**TOP 5 ACTION ITEMS**:
1. [Specific actionable improvement]
2. [Specific actionable improvement]
3. [Specific actionable improvement]
4. [Specific actionable improvement]
5. [Specific actionable improvement]

**RED FLAGS TO AVOID** and **TECH INDUSTRY SPECIFIC TIPS** (GitHub/portfolio links, side projects, open source, tech stack per role).

Provide practical, encouraging feedback that will improve their job search success.`,
		kind, fileName, strings.ToUpper(ext), ext)

	return Prompt{
		Model:  model,
		System: "You are an expert resume reviewer specializing in tech industry applications. Provide comprehensive, actionable feedback based on industry best practices for ATS compatibility, technical skills presentation, and professional formatting.",
		User:   user,
	}
}

// ParseJSONReply decodes a JSON object reply. Anything else is wrapped as
// {fallbackKey: content}.
func ParseJSONReply(content, fallbackKey string) map[string]any {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &parsed); err == nil && parsed != nil {
		return parsed
	}
	return map[string]any{fallbackKey: content}
}
