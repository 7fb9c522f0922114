package research

import "fmt"

// systemPrompt instructs the model to return a structured company profile.
const systemPrompt = `You are researching a company as a potential conference sponsor. Using your knowledge of the company, fill in the profile fields. Leave any field you are unsure about empty rather than guessing.

Respond with ONLY valid JSON, no other text:
{
  "website": "https://example.com",
  "industry": "short industry label",
  "size": "employee range, e.g. 1000-5000",
  "market_cap": 0,
  "funding_raised": 0,
  "description": "one paragraph summary",
  "decision_makers": [
    {"name": "Full Name", "title": "Role", "email": "", "linkedin_url": ""}
  ]
}

market_cap and funding_raised are integers in USD, 0 if unknown or not applicable.`

// userPrompt builds the per-company research request.
func userPrompt(name, notes string) string {
	if notes == "" {
		return fmt.Sprintf("Company name: %s", name)
	}
	return fmt.Sprintf("Company name: %s\n\nTeam notes so far:\n%s", name, notes)
}
