package dataprocessing

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"ledgerpulse/pkg/contracts/domain"
)

const rupeeSign = "₹"

var inrPrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatINR renders an amount with Indian digit grouping and the rupee sign,
// e.g. 150000 → "₹1,50,000". At most two fraction digits are shown.
func FormatINR(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}

	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	return sign + rupeeSign + inrPrinter.Sprintf("%v", number.Decimal(amount, number.MaxFractionDigits(2)))
}

// View decorates a summary with display strings for the dashboard cards
func View(s domain.Summary) domain.SummaryView {
	return domain.SummaryView{
		Summary:               s,
		TotalRevenueDisplay:   FormatINR(s.TotalRevenue),
		TotalCreditDisplay:    FormatINR(s.TotalCredit),
		CurrentBalanceDisplay: FormatINR(s.CurrentBalance),
	}
}
