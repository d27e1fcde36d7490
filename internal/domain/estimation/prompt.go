package estimation

import (
	"fmt"

	"messease/internal/domain/menu"
)

const outputShape = `{
  "estimates": [
    { "item": "string", "quantity": "string", "unit": "string", "wastageBuffer": "string" }
  ],
  "totalWastageEstimation": "string",
  "notes": "string"
}`

// BuildPrompt renders the estimation request. Identical inputs yield identical prompts.
func BuildPrompt(slot menu.MealSlot, attendance int, menuText string) string {
	return fmt.Sprintf(
		"Suggest quantity for %d students for a %s meal consisting of: %s.\n"+
			"Provide results in a JSON format with this structure:\n%s\n"+
			"IMPORTANT: Return ONLY the raw JSON string, no markdown formatting.",
		attendance, slot, menuText, outputShape,
	)
}
