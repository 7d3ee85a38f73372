package types

import "time"

// DocumentType selects which sections survive into the generated content
type DocumentType string

const (
	DocumentResume DocumentType = "Resume"
	DocumentCV     DocumentType = "CV"
)

// ExperienceEntry represents one position in the candidate's work history
type ExperienceEntry struct {
	JobTitle     string   `json:"jobTitle"`
	Company      string   `json:"company"`
	Location     string   `json:"location,omitempty"`
	StartDate    string   `json:"startDate,omitempty"`
	EndDate      string   `json:"endDate,omitempty"` // "Present" for a current role
	Achievements []string `json:"achievements"`
}

// ProjectEntry represents a project listed by the candidate
type ProjectEntry struct {
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Technologies string `json:"technologies,omitempty"`
	Link         string `json:"link,omitempty"`
}

// ReferenceEntry represents a professional reference
type ReferenceEntry struct {
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Company string `json:"company,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// CandidateProfile is the completed form data for one generation request.
// Identity and education fields are opaque to the tailoring logic.
type CandidateProfile struct {
	FullName        string `json:"fullName" validate:"max=200"`
	Email           string `json:"email,omitempty" validate:"omitempty,email"`
	Phone           string `json:"phone,omitempty"`
	Location        string `json:"location,omitempty"`
	LinkedIn        string `json:"linkedin,omitempty"`
	GitHub          string `json:"github,omitempty"`
	Department      string `json:"department,omitempty"`
	University      string `json:"university,omitempty"`
	Degree          string `json:"degree,omitempty"`
	GraduationMonth string `json:"graduationMonth,omitempty"`
	GraduationYear  string `json:"graduationYear,omitempty"`
	CGPA            string `json:"cgpa,omitempty"`
	KeyCourses      string `json:"keyCourses,omitempty"`

	DocumentType   DocumentType `json:"documentType" validate:"required,oneof=Resume CV"`
	TargetJobTitle string       `json:"targetJobTitle,omitempty"`
	JobDescription string       `json:"jobDescription,omitempty"`

	Skills         []string          `json:"skills"`
	WorkExperience []ExperienceEntry `json:"workExperience" validate:"dive"`
	Projects       []ProjectEntry    `json:"projects"`
	Certifications []string          `json:"certifications"`
	Languages      []string          `json:"languages"`
	Hobbies        []string          `json:"hobbies"`
	References     []ReferenceEntry  `json:"references"`

	// AutoGenerateSummary defaults to true when absent from the JSON input.
	AutoGenerateSummary *bool  `json:"autoGenerateSummary,omitempty"`
	ProfessionalSummary string `json:"professionalSummary,omitempty"`
}

// WantsGeneratedSummary reports whether the summary generator should run
func (p *CandidateProfile) WantsGeneratedSummary() bool {
	return p.AutoGenerateSummary == nil || *p.AutoGenerateSummary
}

// IsResume reports whether the profile targets a tailored Resume
func (p *CandidateProfile) IsResume() bool {
	return p.DocumentType == DocumentResume
}

// SkillBuckets partitions skills into technical and soft lists
type SkillBuckets struct {
	Technical []string `json:"technical"`
	Soft      []string `json:"soft"`
}

// Len returns the total number of skills across both buckets
func (b SkillBuckets) Len() int {
	return len(b.Technical) + len(b.Soft)
}

// TailoredContent is the structured document content handed to a renderer
type TailoredContent struct {
	Summary        string            `json:"summary"`
	Skills         SkillBuckets      `json:"skills"`
	WorkExperience []ExperienceEntry `json:"workExperience"`
	Projects       []ProjectEntry    `json:"projects"`
	Certifications []string          `json:"certifications"`
	Languages      []string          `json:"languages"`
	Hobbies        []string          `json:"hobbies"`
	References     []ReferenceEntry  `json:"references"`
}

// SummarySource records which path produced a summary
type SummarySource string

const (
	SourceAI       SummarySource = "ai"
	SourceTemplate SummarySource = "template"
	SourceManual   SummarySource = "manual"
)

// TokenUsage is the token accounting reported by the text-generation endpoint
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// SummaryResult is the outcome of one summary generation
type SummaryResult struct {
	Summary  string        `json:"summary"`
	Source   SummarySource `json:"source"`
	Model    string        `json:"model,omitempty"`
	Usage    *TokenUsage   `json:"usage,omitempty"`
	Fallback bool          `json:"fallback,omitempty"`
	// FallbackReason carries the AI error message when the template path was
	// taken after a failed AI call.
	FallbackReason string `json:"fallbackReason,omitempty"`
}

// ProgressStage names a transition of the summary generator
type ProgressStage string

const (
	StageStarting           ProgressStage = "starting"
	StageAIGeneration       ProgressStage = "ai_generation"
	StageFallback           ProgressStage = "fallback"
	StageTemplateGeneration ProgressStage = "template_generation"
	StageCompleted          ProgressStage = "completed"
	StageError              ProgressStage = "error"
)

// ProgressEvent is emitted at each summary stage transition
type ProgressEvent struct {
	Stage   ProgressStage `json:"stage"`
	Message string        `json:"message"`
}

// GeneratedContent is the final assembly returned by the pipeline
type GeneratedContent struct {
	TailoredContent
	DocumentType  DocumentType   `json:"documentType"`
	SummaryResult *SummaryResult `json:"summaryResult"`
	FileName      string         `json:"fileName"`
	GeneratedAt   time.Time      `json:"generatedAt"`
}

// KeywordReport describes what the tailoring logic found in a job description
type KeywordReport struct {
	Keywords     []string `json:"keywords"`
	Requirements []string `json:"requirements"`
}
