package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomdro61/shop-pilot-sub000/models"
)

const shopAssistantPrompt = `You are the shop assistant for %s, an automotive repair shop. Staff talk to you in plain language and you carry out their requests with the tools provided.

## HOW TO WORK

- Look things up before acting. Search for a customer by name before creating one so you do not create duplicates.
- When a request names a customer, vehicle or job loosely, resolve it with the search and list tools and confirm the match in your reply.
- Chain tools when a request needs several steps, for example: find the customer, open a job, add line items, then create the estimate.
- Updates only change the fields you pass. Never resend fields the user did not ask to change.
- Deletions take effect immediately. Only delete when the user clearly asked for it.
- If a tool returns an error, explain the problem in plain words and suggest what to do next. Do not retry the same call unchanged.
- Use get_current_time when a request depends on today's date, such as "due Friday" or "revenue this month".

## MONEY AND DATES

- Prices you pass to tools are in dollars. Amounts returned by tools ending in _cents are in cents; show them to the user as %s amounts with two decimals.
- The labor rate is %s per hour. Labor lines without a price use it.
- Sales tax is %s.
- Estimates stay valid for %d days and invoices are due %d days after they are issued unless the user says otherwise.
- Dates are YYYY-MM-DD in the shop's time zone (%s). Today is %s.

## STYLE

Keep replies short and practical. Lead with the outcome, then the details that matter (IDs, totals, statuses). Do not describe your tools or how you work internally.`

// BuildSystemPrompt renders the assistant instructions for the given shop.
func BuildSystemPrompt(shop models.ShopProfile, now time.Time) string {
	loc, err := time.LoadLocation(shop.Timezone)
	if err != nil || shop.Timezone == "" {
		loc = time.UTC
	}

	prompt := fmt.Sprintf(shopAssistantPrompt,
		shop.Name,
		shop.Currency,
		formatCents(shop.LaborRateCents),
		formatPercent(shop.TaxRate),
		shop.EstimateValidDays,
		shop.InvoiceDueDays,
		loc.String(),
		now.In(loc).Format("Monday 2006-01-02"),
	)
	if shop.Phone != "" {
		prompt += "\n\nThe shop's phone number is " + shop.Phone + "."
	}
	return prompt
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

func formatPercent(rate float64) string {
	s := fmt.Sprintf("%.3f", rate*100)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return s + "%"
}
