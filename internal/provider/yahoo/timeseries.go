package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode"

	"github.com/bobmcallan/stockdash/internal/format"
	"github.com/bobmcallan/stockdash/internal/models"
)

// statementStart is the earliest period requested (2016-12-31 UTC).
const statementStart = 1483142400

var balanceSheetKeys = []string{
	"TreasurySharesNumber", "PreferredSharesNumber", "OrdinarySharesNumber", "ShareIssued",
	"NetDebt", "TotalDebt", "TangibleBookValue", "InvestedCapital", "WorkingCapital",
	"NetTangibleAssets", "CapitalLeaseObligations", "CommonStockEquity", "TotalCapitalization",
	"TotalEquityGrossMinorityInterest", "MinorityInterest", "StockholdersEquity",
	"GainsLossesNotAffectingRetainedEarnings", "OtherEquityAdjustments", "RetainedEarnings",
	"CapitalStock", "CommonStock", "TotalLiabilitiesNetMinorityInterest",
	"TotalNonCurrentLiabilitiesNetMinorityInterest", "OtherNonCurrentLiabilities",
	"TradeandOtherPayablesNonCurrent", "NonCurrentDeferredLiabilities", "NonCurrentDeferredRevenue",
	"NonCurrentDeferredTaxesLiabilities", "LongTermDebtAndCapitalLeaseObligation",
	"LongTermCapitalLeaseObligation", "LongTermDebt", "CurrentLiabilities", "OtherCurrentLiabilities",
	"CurrentDeferredLiabilities", "CurrentDeferredRevenue", "CurrentDebtAndCapitalLeaseObligation",
	"CurrentDebt", "PensionandOtherPostRetirementBenefitPlansCurrent", "PayablesAndAccruedExpenses",
	"Payables", "TotalTaxPayable", "IncomeTaxPayable", "AccountsPayable", "TotalAssets",
	"TotalNonCurrentAssets", "OtherNonCurrentAssets", "InvestmentsAndAdvances",
	"LongTermEquityInvestment", "GoodwillAndOtherIntangibleAssets", "OtherIntangibleAssets",
	"Goodwill", "NetPPE", "AccumulatedDepreciation", "GrossPPE", "Leases", "OtherProperties",
	"MachineryFurnitureEquipment", "BuildingsAndImprovements", "LandAndImprovements", "Properties",
	"CurrentAssets", "OtherCurrentAssets", "HedgingAssetsCurrent", "Inventory", "FinishedGoods",
	"WorkInProcess", "RawMaterials", "Receivables", "AccountsReceivable",
	"AllowanceForDoubtfulAccountsReceivable", "GrossAccountsReceivable",
	"CashCashEquivalentsAndShortTermInvestments", "OtherShortTermInvestments",
	"CashAndCashEquivalents", "CashEquivalents", "CashFinancial",
}

var incomeStatementKeys = []string{
	"TotalRevenue", "OperatingRevenue", "CostOfRevenue", "GrossProfit", "OperatingExpense",
	"SellingGeneralAndAdministration", "ResearchAndDevelopment", "OperatingIncome",
	"NetNonOperatingInterestIncomeExpense", "InterestIncomeNonOperating",
	"InterestExpenseNonOperating", "OtherIncomeExpense", "PretaxIncome", "TaxProvision",
	"NetIncomeCommonStockholders", "NetIncome", "DilutedNIAvailtoComStockholders", "BasicEPS",
	"DilutedEPS", "BasicAverageShares", "DilutedAverageShares", "TotalExpenses",
	"NormalizedIncome", "InterestIncome", "InterestExpense", "NetInterestIncome", "EBIT", "EBITDA",
	"ReconciledCostOfRevenue", "ReconciledDepreciation", "NormalizedEBITDA", "TaxRateForCalcs",
}

var cashFlowKeys = []string{
	"FreeCashFlow", "RepurchaseOfCapitalStock", "RepaymentOfDebt", "IssuanceOfDebt",
	"CapitalExpenditure", "IncomeTaxPaidSupplementalData", "EndCashPosition",
	"BeginningCashPosition", "ChangesInCash", "FinancingCashFlow", "CashDividendsPaid",
	"CommonStockIssuance", "NetLongTermDebtIssuance", "InvestingCashFlow",
	"NetInvestmentPurchaseAndSale", "PurchaseOfInvestment", "SaleOfInvestment",
	"NetBusinessPurchaseAndSale", "NetPPEPurchaseAndSale", "PurchaseOfPPE", "OperatingCashFlow",
	"ChangeInWorkingCapital", "ChangeInReceivables", "ChangeInInventory",
	"ChangeInPayablesAndAccruedExpense", "StockBasedCompensation", "DeferredIncomeTax",
	"DepreciationAndAmortization", "NetIncomeFromContinuingOperations",
}

// BalanceSheet returns the annual balance sheet.
func (c *Client) BalanceSheet(ctx context.Context, h models.TickerHandle) (models.RawTable, error) {
	return c.statement(ctx, h.Symbol, balanceSheetKeys)
}

// IncomeStatement returns the annual income statement.
func (c *Client) IncomeStatement(ctx context.Context, h models.TickerHandle) (models.RawTable, error) {
	return c.statement(ctx, h.Symbol, incomeStatementKeys)
}

// CashFlow returns the annual cash flow statement.
func (c *Client) CashFlow(ctx context.Context, h models.TickerHandle) (models.RawTable, error) {
	return c.statement(ctx, h.Symbol, cashFlowKeys)
}

type timeseriesResponse struct {
	Timeseries struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *apiError                    `json:"error"`
	} `json:"timeseries"`
}

type timeseriesMeta struct {
	Type []string `json:"type"`
}

type timeseriesPoint struct {
	AsOfDate      string `json:"asOfDate"`
	ReportedValue rawNum `json:"reportedValue"`
}

func (c *Client) statement(ctx context.Context, symbol string, keys []string) (models.RawTable, error) {
	types := make([]string, len(keys))
	for i, k := range keys {
		types[i] = "annual" + k
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("type", strings.Join(types, ","))
	q.Set("period1", fmt.Sprint(statementStart))
	q.Set("period2", fmt.Sprint(c.now().Unix()))

	u := fmt.Sprintf("%s/ws/fundamentals-timeseries/v1/finance/timeseries/%s?%s",
		c.cfg.TimeseriesURL, url.PathEscape(symbol), q.Encode())

	var resp timeseriesResponse
	if err := c.get(ctx, request{url: u}, &resp); err != nil {
		return models.RawTable{}, err
	}
	if resp.Timeseries.Error != nil {
		return models.RawTable{}, resp.Timeseries.Error
	}

	series, err := decodeTimeseries(resp.Timeseries.Result)
	if err != nil {
		return models.RawTable{}, fmt.Errorf("timeseries %s: %w", symbol, err)
	}
	return buildTable(keys, series), nil
}

// decodeTimeseries maps each field name (without the "annual" prefix) to its values by period.
func decodeTimeseries(results []map[string]json.RawMessage) (map[string]map[string]float64, error) {
	out := make(map[string]map[string]float64)
	for _, r := range results {
		var meta timeseriesMeta
		if raw, ok := r["meta"]; ok {
			if err := json.Unmarshal(raw, &meta); err != nil {
				return nil, err
			}
		}
		if len(meta.Type) == 0 {
			continue
		}
		typ := meta.Type[0]
		raw, ok := r[typ]
		if !ok {
			continue
		}

		var points []*timeseriesPoint
		if err := json.Unmarshal(raw, &points); err != nil {
			return nil, fmt.Errorf("field %s: %w", typ, err)
		}

		values := make(map[string]float64)
		for _, p := range points {
			if p == nil || p.AsOfDate == "" || p.ReportedValue.Raw == nil {
				continue
			}
			values[p.AsOfDate] = *p.ReportedValue.Raw
		}
		if len(values) > 0 {
			out[strings.TrimPrefix(typ, "annual")] = values
		}
	}
	return out, nil
}

// buildTable lays rows out in key order with periods newest first.
func buildTable(keys []string, series map[string]map[string]float64) models.RawTable {
	seen := make(map[string]bool)
	for _, values := range series {
		for d := range values {
			seen[d] = true
		}
	}
	periods := make([]string, 0, len(seen))
	for d := range seen {
		periods = append(periods, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(periods)))

	t := models.RawTable{Periods: periods}
	for _, k := range keys {
		values, ok := series[k]
		if !ok {
			continue
		}
		row := models.RawRow{Label: CamelToTitle(k), Values: make([]format.Value, len(periods))}
		for i, d := range periods {
			if v, ok := values[d]; ok {
				row.Values[i] = format.Float(v)
			} else {
				row.Values[i] = format.Missing()
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// CamelToTitle splits a camel case field name into words, keeping acronyms together:
// "NetPPE" becomes "Net PPE" and "TradeandOtherPayables" becomes "Tradeand Other Payables".
func CamelToTitle(s string) string {
	rs := []rune(s)
	var b strings.Builder
	for i, r := range rs {
		if i > 0 && unicode.IsUpper(r) {
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
