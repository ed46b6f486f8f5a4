package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoQuestions = `[
  {"question_number": 1, "question_text": "What does defer do?", "option_a": "a", "option_b": "b", "option_c": "c", "option_d": "d", "correct_answer": "b", "explanation": "e", "topic": "Basics"},
  {"question_number": 2, "question_text": "What is a goroutine?", "option_a": "a", "option_b": "b", "option_c": "c", "option_d": "d", "correct_answer": "A", "explanation": "e", "topic": "Concurrency"}
]`

func TestExamPrompt(t *testing.T) {
	p := ExamPrompt(ExamSpec{Technology: "Go", ExperienceLevel: "Junior", Difficulty: "easy", QuestionCount: 5}, "exam-model")

	assert.Equal(t, "exam-model", p.Model)
	assert.Contains(t, p.System, "Generate 5 multiple-choice questions")
	assert.Contains(t, p.System, "Go")
	require.NotNil(t, p.Tool)
	assert.Equal(t, "create_questions", p.Tool.Name)
}

func TestParseGeneratedQuestionsFromToolCall(t *testing.T) {
	questions, err := ParseGeneratedQuestions(&Completion{
		ToolArguments: `{"questions": ` + twoQuestions + `}`,
		Content:       "ignored",
	})
	require.NoError(t, err)
	require.Len(t, questions, 2)

	assert.Equal(t, "B", questions[0].CorrectAnswer)
	assert.Equal(t, "What is a goroutine?", questions[1].QuestionText)
	assert.Equal(t, "Concurrency", questions[1].Topic)
}

func TestParseGeneratedQuestionsFromContent(t *testing.T) {
	content := "Here are your questions:\n```json\n" +
		`[{"question_number": 1, "question_text": “Pick one”, "option_a": "a", "option_b": "b", "option_c": "c", "option_d": "d", "correct_answer": "d", "explanation": "e", "topic": "T",},]` +
		"\n```\nGood luck!"

	questions, err := ParseGeneratedQuestions(&Completion{Content: content})
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Pick one", questions[0].QuestionText)
	assert.Equal(t, "D", questions[0].CorrectAnswer)
}

func TestParseGeneratedQuestionsAcceptsLooseTypes(t *testing.T) {
	content := "```json\n" +
		`[{"question_number": "1", "question_text": "Which keyword starts a goroutine?", "option_a": "go", "option_b": "async", "option_c": "spawn", "option_d": "run", "correct_answer": "a", "explanation": "go", "topic": 7},
		  {"question_number": "x", "question_text": "Second", "option_a": "a", "option_b": "b", "option_c": "c", "option_d": "d", "correct_answer": "B"}]` +
		"\n```"

	questions, err := ParseGeneratedQuestions(&Completion{Content: content})
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, 1, questions[0].QuestionNumber)
	assert.Equal(t, "A", questions[0].CorrectAnswer)
	assert.Equal(t, "7", questions[0].Topic)
	assert.Equal(t, 2, questions[1].QuestionNumber)
	assert.Empty(t, questions[1].Explanation)
}

func TestParseGeneratedQuestionsFallsBackWhenToolArgsEmpty(t *testing.T) {
	for _, args := range []string{`{"questions": null}`, `{"questions": false}`, `{}`} {
		questions, err := ParseGeneratedQuestions(&Completion{ToolArguments: args, Content: twoQuestions})
		require.NoError(t, err, args)
		assert.Len(t, questions, 2, args)
	}
}

func TestParseGeneratedQuestionsDropsInvalid(t *testing.T) {
	raw := `[
	  {"question_number": 0, "question_text": "", "correct_answer": "A"},
	  {"question_number": 0, "question_text": "Valid", "correct_answer": "c"},
	  {"question_number": 0, "question_text": "Bad answer", "correct_answer": "E"}
	]`
	questions, err := ParseGeneratedQuestions(&Completion{Content: raw})
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Valid", questions[0].QuestionText)
	assert.Equal(t, 1, questions[0].QuestionNumber)
}

func TestParseGeneratedQuestionsErrors(t *testing.T) {
	_, err := ParseGeneratedQuestions(&Completion{Content: "no json here"})
	assert.ErrorIs(t, err, ErrInvalidQuestionsJSON)

	_, err = ParseGeneratedQuestions(&Completion{Content: `{"question": "not an array"}`})
	assert.ErrorIs(t, err, ErrQuestionsNotArray)

	_, err = ParseGeneratedQuestions(&Completion{ToolArguments: `{"questions": "oops"}`})
	assert.ErrorIs(t, err, ErrInvalidQuestionsJSON)

	_, err = ParseGeneratedQuestions(&Completion{Content: `[{"question_text": "x", "correct_answer": "Z"}]`})
	assert.ErrorIs(t, err, ErrNoUsableQuestions)
}

func TestSanitizeJSONArray(t *testing.T) {
	cases := map[string]string{
		"```json\n[{\"a\": 1}]\n```":  `[{"a": 1}]`,
		"prefix [{\"a\": 1},] suffix": `[{"a": 1}]`,
		"[{“a”: ‘b’}]":                `[{"a": "b"}]`,
		"  [ ]  ":                     "[ ]",
	}
	for input, want := range cases {
		assert.Equal(t, want, SanitizeJSONArray(input), input)
	}
}

func TestToModels(t *testing.T) {
	generated, err := ParseGeneratedQuestions(&Completion{Content: twoQuestions})
	require.NoError(t, err)

	rows := ToModels(42, generated)
	require.Len(t, rows, 2)
	assert.Equal(t, uint(42), rows[0].ExamID)
	assert.Equal(t, 1, rows[0].QuestionNumber)
	assert.Equal(t, "B", rows[0].CorrectAnswer)
	assert.Equal(t, "Concurrency", rows[1].Topic)
}
