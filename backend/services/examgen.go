package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"mentor/backend/models"

	"github.com/tidwall/gjson"
)

var (
	ErrInvalidQuestionsJSON = errors.New("AI returned invalid JSON for questions")
	ErrQuestionsNotArray    = errors.New("AI did not return an array of questions")
	ErrNoUsableQuestions    = errors.New("AI returned no usable questions")
)

type ExamSpec struct {
	Technology      string
	ExperienceLevel string
	Difficulty      string
	QuestionCount   int
}

// GeneratedQuestion is the shape the model is asked to return.
type GeneratedQuestion struct {
	QuestionNumber int    `json:"question_number"`
	QuestionText   string `json:"question_text"`
	OptionA        string `json:"option_a"`
	OptionB        string `json:"option_b"`
	OptionC        string `json:"option_c"`
	OptionD        string `json:"option_d"`
	CorrectAnswer  string `json:"correct_answer"`
	Explanation    string `json:"explanation"`
	Topic          string `json:"topic"`
}

var questionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"question_number": map[string]any{"type": "integer"},
		"question_text":   map[string]any{"type": "string"},
		"option_a":        map[string]any{"type": "string"},
		"option_b":        map[string]any{"type": "string"},
		"option_c":        map[string]any{"type": "string"},
		"option_d":        map[string]any{"type": "string"},
		"correct_answer": map[string]any{
			"type": "string",
			"enum": []string{"A", "B", "C", "D", "a", "b", "c", "d"},
		},
		"explanation": map[string]any{"type": "string"},
		"topic":       map[string]any{"type": "string"},
	},
	"required": []string{
		"question_number", "question_text", "option_a", "option_b",
		"option_c", "option_d", "correct_answer", "explanation", "topic",
	},
	"additionalProperties": false,
}

func ExamPrompt(spec ExamSpec, model string) Prompt {
	system := fmt.Sprintf(`You are an expert technical exam creator specializing in %[1]s.
Generate %[2]d multiple-choice questions for a %[3]s level candidate.
Difficulty: %[4]s

Follow these rules:
- Questions should match %[4]s difficulty (like Microsoft/SAP certification exams)
- Each question must have exactly 4 options (A, B, C, D)
- Only ONE correct answer per question
- Include detailed explanations for the correct answer
- Cover diverse topics within %[1]s
- Questions should test practical knowledge, not just theory

Return ONLY a valid JSON array with this exact structure:
[
  {
    "question_number": 1,
    "question_text": "Question here?",
    "option_a": "Option A text",
    "option_b": "Option B text",
    "option_c": "Option C text",
    "option_d": "Option D text",
    "correct_answer": "A",
    "explanation": "Detailed explanation why this is correct",
    "topic": "Specific topic area"
  }
]`, spec.Technology, spec.QuestionCount, spec.ExperienceLevel, spec.Difficulty)

	return Prompt{
		Model:  model,
		System: system,
		User: fmt.Sprintf("Generate %d exam questions for %s at %s level.",
			spec.QuestionCount, spec.Technology, spec.ExperienceLevel),
		Tool: &Tool{
			Name:        "create_questions",
			Description: "Return exam questions in structured format",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"questions": map[string]any{
						"type":  "array",
						"items": questionSchema,
					},
				},
				"required":             []string{"questions"},
				"additionalProperties": false,
			},
		},
	}
}

// ParseGeneratedQuestions prefers the structured tool-call arguments and
// falls back to scraping a JSON array out of the message content.
func ParseGeneratedQuestions(c *Completion) ([]GeneratedQuestion, error) {
	var raw string

	if c.ToolArguments != "" && gjson.Valid(c.ToolArguments) {
		if q := gjson.Get(c.ToolArguments, "questions"); q.IsArray() {
			raw = q.Raw
		}
	}

	if raw == "" {
		raw = SanitizeJSONArray(c.Content)
		if !gjson.Valid(raw) {
			return nil, ErrInvalidQuestionsJSON
		}
	}

	parsed := gjson.Parse(raw)
	if !parsed.IsArray() {
		return nil, ErrQuestionsNotArray
	}

	elements := parsed.Array()
	questions := make([]GeneratedQuestion, 0, len(elements))
	for _, el := range elements {
		q := generatedQuestion(el)
		if strings.TrimSpace(q.QuestionText) == "" || !validOption(q.CorrectAnswer) {
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, ErrNoUsableQuestions
	}

	for i := range questions {
		if questions[i].QuestionNumber <= 0 {
			questions[i].QuestionNumber = i + 1
		}
	}
	return questions, nil
}

// generatedQuestion reads one array element leniently: numbers may arrive as
// strings and missing fields are left empty.
func generatedQuestion(el gjson.Result) GeneratedQuestion {
	return GeneratedQuestion{
		QuestionNumber: int(el.Get("question_number").Int()),
		QuestionText:   el.Get("question_text").String(),
		OptionA:        el.Get("option_a").String(),
		OptionB:        el.Get("option_b").String(),
		OptionC:        el.Get("option_c").String(),
		OptionD:        el.Get("option_d").String(),
		CorrectAnswer:  strings.ToUpper(strings.TrimSpace(el.Get("correct_answer").String())),
		Explanation:    el.Get("explanation").String(),
		Topic:          el.Get("topic").String(),
	}
}

var (
	fencePattern         = regexp.MustCompile("```json|```")
	smartQuotePattern    = regexp.MustCompile("[\u2018\u2019\u201C\u201D]")
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
	arrayPattern         = regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`)
)

// SanitizeJSONArray cleans up the usual model formatting noise around a JSON
// array: markdown fences, smart quotes, trailing commas and surrounding prose.
func SanitizeJSONArray(input string) string {
	s := strings.TrimSpace(input)
	s = fencePattern.ReplaceAllString(s, "")
	s = smartQuotePattern.ReplaceAllString(s, `"`)
	s = trailingCommaPattern.ReplaceAllString(s, "$1")
	if match := arrayPattern.FindString(s); match != "" {
		s = match
	}
	return strings.TrimSpace(s)
}

// ToModels converts generated questions into rows for the given exam.
func ToModels(examID uint, generated []GeneratedQuestion) []models.Question {
	questions := make([]models.Question, 0, len(generated))
	for _, q := range generated {
		questions = append(questions, models.Question{
			ExamID:         examID,
			QuestionNumber: q.QuestionNumber,
			QuestionText:   q.QuestionText,
			OptionA:        q.OptionA,
			OptionB:        q.OptionB,
			OptionC:        q.OptionC,
			OptionD:        q.OptionD,
			CorrectAnswer:  q.CorrectAnswer,
			Explanation:    q.Explanation,
			Topic:          q.Topic,
		})
	}
	return questions
}

func validOption(answer string) bool {
	switch answer {
	case "A", "B", "C", "D":
		return true
	}
	return false
}
