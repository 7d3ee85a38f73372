package tailoring

// jobVocabulary is the curated set of terms looked for in job descriptions.
var jobVocabulary = []string{
	// core technical
	"javascript", "typescript", "python", "java", "react", "angular", "vue", "node.js", "express",
	"sql", "nosql", "mongodb", "postgresql", "mysql", "html5", "css3", "sass", "bootstrap",
	"git", "github", "docker", "kubernetes", "aws", "azure", "gcp", "ci/cd", "devops",

	// data and analytics
	"data analysis", "data science", "machine learning", "ai", "tableau", "power bi", "excel",
	"r", "pandas", "numpy", "tensorflow", "pytorch", "statistics", "visualization",

	// business and management
	"project management", "agile", "scrum", "kanban", "pmp", "six sigma", "lean",
	"stakeholder management", "budget management", "risk management", "change management",
	"strategic planning", "business analysis", "process improvement", "kpi", "roi",

	// marketing and sales
	"digital marketing", "seo", "sem", "social media", "content marketing", "email marketing",
	"google analytics", "facebook ads", "linkedin", "crm", "salesforce", "hubspot",
	"lead generation", "conversion optimization", "a/b testing", "market research",

	// design
	"ui/ux", "user experience", "user interface", "figma", "sketch", "adobe creative suite",
	"photoshop", "illustrator", "indesign", "wireframing", "prototyping", "design thinking",

	// soft skills
	"communication", "leadership", "teamwork", "problem solving", "critical thinking",
	"time management", "organization", "adaptability", "creativity", "collaboration",
	"presentation", "public speaking", "writing", "editing", "research", "analytical thinking",

	// industry
	"healthcare", "finance", "education", "retail", "manufacturing", "logistics",
	"customer service", "quality assurance", "compliance", "regulatory", "audit",
	"accounting", "bookkeeping", "financial analysis", "budgeting", "forecasting",

	// modern work
	"remote work", "virtual collaboration", "cross-functional", "multicultural",
	"innovation", "digital transformation", "automation", "process optimization",
	"customer experience", "user-centered", "data-driven", "results-oriented",
}

var technicalSkillTerms = []string{
	"javascript", "python", "java", "react", "node", "sql", "html", "css", "php", "c++", "c#",
	"excel", "powerpoint", "word", "office", "photoshop", "illustrator", "autocad", "solidworks",
	"salesforce", "sap", "quickbooks", "tableau", "power bi", "google analytics", "adobe",
	"microsoft", "aws", "azure", "docker", "kubernetes", "git", "github", "linux", "windows",
	"database", "mysql", "postgresql", "mongodb", "api", "rest", "json", "xml", "agile", "scrum",
	"project management", "data analysis", "machine learning", "ai", "blockchain", "cybersecurity",
}

var softSkillTerms = []string{
	"communication", "leadership", "teamwork", "problem solving", "critical thinking",
	"time management", "organization", "adaptability", "creativity", "collaboration",
	"customer service", "presentation", "negotiation", "conflict resolution", "mentoring",
	"training", "public speaking", "writing", "research", "analytical thinking",
}

var stopWords = toSet([]string{
	"the", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by", "is", "are", "was", "were",
	"be", "been", "have", "has", "had", "do", "does", "did", "will", "would", "could", "should", "may", "might",
	"can", "must", "shall", "this", "that", "these", "those", "a", "an", "as", "if", "then", "than", "when",
	"where", "why", "how", "what", "who", "which", "whose", "whom", "we", "you", "they", "them", "their",
	"our", "your", "his", "her", "its", "my", "me", "i", "he", "she", "it", "us", "him",
})

var actionVerbs = toSet([]string{
	"led", "developed", "improved", "created", "managed", "designed", "implemented",
	"coordinated", "supervised", "analyzed", "optimized", "streamlined", "established",
	"executed", "delivered", "achieved", "increased", "reduced", "enhanced", "built",
	"launched", "maintained", "collaborated", "facilitated", "trained", "mentored",
	"negotiated", "resolved", "automated", "standardized", "monitored", "evaluated",
})

type verbSignal struct {
	verb    string
	signals []string
}

// verbSignals is checked in order; the first matching category wins.
var verbSignals = []verbSignal{
	{"Increased", []string{"increase", "improve", "boost"}},
	{"Developed", []string{"develop", "create", "build"}},
	{"Managed", []string{"manage", "oversee", "supervise"}},
	{"Led", []string{"lead", "direct", "head"}},
	{"Designed", []string{"design", "plan", "architect"}},
	{"Implemented", []string{"implement", "execute", "deploy"}},
	{"Analyzed", []string{"analyze", "research", "evaluate"}},
	{"Coordinated", []string{"coordinate", "organize", "arrange"}},
	{"Trained", []string{"train", "teach", "educate"}},
	{"Collaborated", []string{"collaborate", "work with", "partner"}},
}

const defaultLeadVerb = "Contributed to"

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
