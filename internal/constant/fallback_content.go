package constant

// Demo content served by the fallback path when the extraction backend
// is unreachable and there is no prior result to keep on screen. Keyed
// by file kind so the degraded answer still matches what was uploaded.

const FallbackPdfText = `Chapter 3: Research Methods in Psychology

Key Points:
• Experimental research manipulates variables to establish causation
• Correlational research measures relationships between variables
• Observational research studies behavior in natural settings
• Survey research collects self-reported data from participants

Important Notes:
- Random assignment strengthens causal claims
- Correlation does not imply causation
- Ethical guidelines require informed consent
- Descriptive and inferential statistics summarize findings

Remember: choosing the right method depends on the research question!`

const FallbackImageText = `Chapter 5: Photosynthesis

Key Points:
• Photosynthesis occurs in chloroplasts
• Light-dependent reactions happen in thylakoids
• Calvin cycle occurs in the stroma
• Overall equation: 6CO₂ + 6H₂O + light energy → C₆H₁₂O₆ + 6O₂

Important Notes:
- Chlorophyll absorbs red and blue light
- Green light is reflected (why plants appear green)
- Two main stages: light reactions and dark reactions
- ATP and NADPH are produced in light reactions

Remember: This process is essential for life on Earth as it produces oxygen and glucose!`

var FallbackPdfKeywords = []string{
	"Research Methods",
	"Psychology",
	"Experimental Research",
	"Correlational Research",
	"Observational Research",
	"Survey Research",
	"Variables",
	"Random Assignment",
	"Causation",
	"Statistical Analysis",
	"Ethical Guidelines",
	"Informed Consent",
	"Descriptive Statistics",
	"Inferential Statistics",
	"Effect Size",
}

var FallbackImageKeywords = []string{
	"Photosynthesis",
	"Chloroplasts",
	"Thylakoids",
	"Calvin cycle",
	"Chlorophyll",
	"ATP",
	"NADPH",
	"Light reactions",
	"Dark reactions",
	"Glucose",
	"Oxygen",
	"Carbon dioxide",
	"Water",
	"Light energy",
	"Stroma",
}

// PlaceholderImageURL fills in for sessions the backend stored without
// a page image.
const PlaceholderImageURL = "/placeholder.svg?height=200&width=300"
