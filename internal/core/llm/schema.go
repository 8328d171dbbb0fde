package llm

import "github.com/google/generative-ai-go/genai"

// Function names the model is forced to call on each pass.
const (
	firstPassFunction  = "record_page_faqs"
	secondPassFunction = "record_additional_faqs"
)

func faqItemSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"subheader": {
				Type:        genai.TypeString,
				Description: "Section heading the question belongs under, if any.",
			},
			"question": {
				Type:        genai.TypeString,
				Description: "A question a reader of the page would plausibly ask.",
			},
			"answer": {
				Type:        genai.TypeString,
				Description: "A self-contained answer of at least three sentences.",
			},
			"cross_links": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Titles of other encyclopedia pages referenced by the answer.",
			},
			"media_links": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Absolute image URLs from the page that illustrate the answer.",
			},
		},
		Required: []string{"question", "answer"},
	}
}

func firstPassTool() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        firstPassFunction,
			Description: "Record the full set of FAQs generated for an encyclopedia page.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"human_readable_name": {
						Type:        genai.TypeString,
						Description: "Natural-language name of the page subject.",
					},
					"last_updated": {
						Type:        genai.TypeString,
						Description: "Last-updated timestamp of the source page, echoed back.",
					},
					"faqs": {
						Type:  genai.TypeArray,
						Items: faqItemSchema(),
					},
				},
				Required: []string{"human_readable_name", "faqs"},
			},
		}},
	}
}

func secondPassTool() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        secondPassFunction,
			Description: "Record additional FAQs that cover page material the first pass missed.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"additional_faqs": {
						Type:  genai.TypeArray,
						Items: faqItemSchema(),
					},
				},
				Required: []string{"additional_faqs"},
			},
		}},
	}
}
