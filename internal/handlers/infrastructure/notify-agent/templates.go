package notifyagent

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"huusy-marketplace/internal/models"
)

type template struct {
	Subject string
	Body    string
	SMS     string
}

var templates = map[string]template{
	TypeListingPublished: {
		Subject: "Your listing {{propertyName}} is live",
		Body:    "Hello {{agentName}},\n\nYour listing \"{{propertyName}}\" ({{price}}) is now published on Huusy.\nView it at {{url}}.",
	},
	TypeListingFavorited: {
		Subject: "Someone saved {{propertyName}}",
		Body:    "Hello {{agentName}},\n\nA customer added \"{{propertyName}}\" ({{price}}) to their favorites.\nView it at {{url}}.",
		SMS:     "Huusy: a customer saved {{propertyName}}. {{url}}",
	},
}

func templateData(l *models.Listing, siteURL string) map[string]interface{} {
	data := map[string]interface{}{
		"propertyName": l.PropertyName,
		"url":          strings.TrimRight(siteURL, "/") + "/properties/" + l.Path,
		"price":        "price on request",
	}
	if l.Price != nil {
		data["price"] = "$" + humanize.Commaf(*l.Price)
	}
	if l.Agent != nil {
		data["agentName"] = l.Agent.FullName
	}
	return data
}

// renderTemplate fills {{key}} placeholders from data in a single left to
// right pass. Unknown keys render empty. Substituted values are never
// rescanned, so braces inside a listing name come through verbatim.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	var b strings.Builder
	b.Grow(len(tmpl))

	rest := tmpl
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(rest[start+2:], "}}")
		if end == -1 {
			break
		}
		b.WriteString(rest[:start])
		b.WriteString(templateValue(data[rest[start+2:start+2+end]]))
		rest = rest[start+2+end+2:]
	}
	b.WriteString(rest)
	return b.String()
}

func templateValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
