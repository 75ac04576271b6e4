package provider

import "strings"

const instructions = `You are an expert etymologist and linguistic historian.
Trace the journey of a word from its ancient roots to its modern English form.
Return a STRICT JSON object. No markdown formatting, just raw JSON.

Structure:
{
  "word": "target word",
  "currentMeaning": "Brief modern definition",
  "origin": {
    "word": "Original root word",
    "language": "Source Language",
    "meaning": "Original meaning",
    "location": {
      "name": "City/Region, Country",
      "coordinates": [longitude, latitude],
      "countryCode": "ISO 2-letter code"
    },
    "century": "e.g. 9th Century"
  },
  "journey": [
    {
      "word": "Intermediate form",
      "language": "Language",
      "century": "Century",
      "location": {
        "name": "City/Region, Country",
        "coordinates": [longitude, latitude],
        "countryCode": "ISO 2-letter code"
      },
      "routeType": "land" | "sea",
      "notes": "How it changed form/meaning here",
      "narrative": "A sentence about this step."
    }
  ],
  "narrative": "A cohesive 2-3 sentence story about the word's entire history.",
  "funFact": "A surprising or obscure fact about this word.",
  "routeSummary": "silk_road" | "maritime" | "colonial" | "scholarly" | "european"
}

Rules:
1. Coordinates MUST be [longitude, latitude].
2. Journey steps must be chronological.
3. Include at least 4-6 intermediate steps. Do not skip centuries.
4. If a word doesn't exist or is too obscure, return { "error": "Word not found" }.
5. Be precise with geography.`

// BuildPrompt returns the fixed instruction template followed by the literal word
func BuildPrompt(word string) string {
	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\nTrace the etymology of the word: \"")
	sb.WriteString(word)
	sb.WriteString("\"")
	return sb.String()
}
