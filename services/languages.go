package services

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/language"
)

// LanguageNames maps the supported typing languages to display names.
var LanguageNames = map[string]string{
	"am":  "Amharic",
	"bax": "Bamun",
	"ewo": "Ewondo",
	"fmp": "Nufi",
	"gez": "Geez",
}

// DefaultLanguage is used when a client has not picked one yet.
const DefaultLanguage = "gez"

// ResolveLanguage normalizes code (via BCP 47 parsing where possible) and
// returns the canonical code and display name of a supported language.
func ResolveLanguage(code string) (string, string, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if tag, err := language.Parse(code); err == nil {
		if base, conf := tag.Base(); conf != language.No {
			code = base.String()
		}
	}
	name, ok := LanguageNames[code]
	return code, name, ok
}

// ListLanguages serves the language catalog.
func ListLanguages(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"languages": LanguageNames,
		"default":   DefaultLanguage,
	})
}
