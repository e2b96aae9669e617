// Package report assembles the statement table, key metrics and ratio rows.
package report

import "strings"

// Category is the cosmetic class of a balance sheet row.
type Category string

const (
	Asset     Category = "asset"
	Liability Category = "liability"
	Neutral   Category = "neutral"
)

var assetKeywords = []string{
	"Total Assets",
	"Total Non Current Assets",
	"Other Non Current Assets",
	"Investments And Advances",
	"Long Term Equity Investment",
	"Goodwill And Other Intangible Assets",
	"Other Intangible Assets",
	"Goodwill",
	"Net PPE",
	"Accumulated Depreciation",
	"Gross PPE",
	"Leases",
	"Other Properties",
	"Machinery Furniture Equipment",
	"Buildings And Improvements",
	"Land And Improvements",
	"Properties",
	"Current Assets",
	"Other Current Assets",
	"Hedging Assets Current",
	"Inventory",
	"Finished Goods",
	"Work In Process",
	"Raw Materials",
	"Receivables",
	"Accounts Receivable",
	"Allowance For Doubtful Accounts Receivable",
	"Gross Accounts Receivable",
	"Cash Cash Equivalents And Short Term Investments",
	"Other Short Term Investments",
	"Cash And Cash Equivalents",
	"Cash Equivalents",
	"Cash Financial",
}

var liabilityKeywords = []string{
	"Ordinary Shares Number",
	"Share Issued",
	"Net Debt",
	"Total Debt",
	"Tangible Book Value",
	"Invested Capital",
	"Working Capital",
	"Net Tangible Assets",
	"Capital Lease Obligations",
	"Common Stock Equity",
	"Total Capitalization",
	"Total Equity Gross Minority Interest",
	"Stockholders Equity",
	"Gains Losses Not Affecting Retained Earnings",
	"Other Equity Adjustments",
	"Retained Earnings",
	"Capital Stock",
	"Common Stock",
	"Total Liabilities Net Minority Interest",
	"Total Non Current Liabilities Net Minority Interest",
	"Other Non Current Liabilities",
	"Tradeand Other Payables Non Current",
	"Non Current Deferred Liabilities",
	"Non Current Deferred Revenue",
	"Non Current Deferred Taxes Liabilities",
	"Long Term Debt And Capital Lease Obligation",
	"Long Term Capital Lease Obligation",
	"Long Term Debt",
	"Current Liabilities",
	"Other Current Liabilities",
	"Current Deferred Liabilities",
	"Current Deferred Revenue",
	"Current Debt And Capital Lease Obligation",
	"Current Debt",
	"Pensionand Other Post Retirement Benefit Plans Current",
	"Payables And Accrued Expenses",
	"Payables",
	"Total Tax Payable",
	"Income Tax Payable",
	"Accounts Payable",
}

// AssetKeywords returns a copy of the asset keyword list.
func AssetKeywords() []string { return append([]string(nil), assetKeywords...) }

// LiabilityKeywords returns a copy of the liability keyword list.
func LiabilityKeywords() []string { return append([]string(nil), liabilityKeywords...) }

// Classify matches label against the asset keywords first, then the liability keywords.
// Matching is case-sensitive substring containment.
func Classify(label string) Category {
	for _, kw := range assetKeywords {
		if strings.Contains(label, kw) {
			return Asset
		}
	}
	for _, kw := range liabilityKeywords {
		if strings.Contains(label, kw) {
			return Liability
		}
	}
	return Neutral
}
