// Package content holds the read-only article catalog.
//
// Records are authored as YAML lists or as markdown files with YAML
// frontmatter, loaded once and never mutated afterwards. Category grouping
// follows the order in which categories first appear, never alphabetical.
package content

// Record is one article in the catalog. Every enrichment field is optional.
type Record struct {
	ID          string `yaml:"id" json:"id"`
	Category    string `yaml:"category" json:"category"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`

	Overview    string `yaml:"overview,omitempty" json:"overview,omitempty"`
	Explanation string `yaml:"explanation,omitempty" json:"explanation,omitempty"`

	CodeExamples       []CodeExample `yaml:"code_examples,omitempty" json:"code_examples,omitempty"`
	WorkflowSteps      []string      `yaml:"workflow_steps,omitempty" json:"workflow_steps,omitempty"`
	KeyTakeaways       []string      `yaml:"key_takeaways,omitempty" json:"key_takeaways,omitempty"`
	CommonMistakes     []string      `yaml:"common_mistakes,omitempty" json:"common_mistakes,omitempty"`
	Warnings           []string      `yaml:"warnings,omitempty" json:"warnings,omitempty"`
	Tips               []string      `yaml:"tips,omitempty" json:"tips,omitempty"`
	InterviewQuestions []Question    `yaml:"interview_questions,omitempty" json:"interview_questions,omitempty"`

	LastUpdated string `yaml:"last_updated,omitempty" json:"last_updated,omitempty"`

	// Source is the file the record was loaded from.
	Source string `yaml:"-" json:"-"`
}

// CodeExample is a titled code sample.
type CodeExample struct {
	Title       string `yaml:"title" json:"title"`
	Language    string `yaml:"language,omitempty" json:"language,omitempty"`
	Code        string `yaml:"code" json:"code"`
	Explanation string `yaml:"explanation,omitempty" json:"explanation,omitempty"`
}

// Question is an interview question with its model answer.
type Question struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

// Category is a group of records sharing a category key.
type Category struct {
	Name    string
	Records []*Record
}
