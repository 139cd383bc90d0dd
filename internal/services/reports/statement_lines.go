package reports

// statementLine is one rendered statement row. Keys are tried in order so
// Yahoo and EODHD line names map onto the same label.
type statementLine struct {
	label    string
	keys     []string
	perShare bool
}

func (l statementLine) value(values map[string]float64) (float64, bool) {
	for _, key := range l.keys {
		if v, ok := values[key]; ok {
			return v, true
		}
	}
	return 0, false
}

var incomeLines = []statementLine{
	{label: "Total Revenue", keys: []string{"totalRevenue"}},
	{label: "Cost Of Revenue", keys: []string{"costOfRevenue"}},
	{label: "Gross Profit", keys: []string{"grossProfit"}},
	{label: "Operating Income", keys: []string{"operatingIncome"}},
	{label: "Net Income", keys: []string{"netIncome", "netIncomeApplicableToCommonShares"}},
	{label: "Diluted EPS", keys: []string{"dilutedEPS", "epsDiluted"}, perShare: true},
}

var balanceLines = []statementLine{
	{label: "Cash", keys: []string{"cash", "cashAndEquivalents", "cashAndShortTermInvestments"}},
	{label: "Current Assets", keys: []string{"totalCurrentAssets"}},
	{label: "Total Assets", keys: []string{"totalAssets"}},
	{label: "Current Liabilities", keys: []string{"totalCurrentLiabilities"}},
	{label: "Total Liabilities", keys: []string{"totalLiab", "totalLiabilities"}},
	{label: "Stockholder Equity", keys: []string{"totalStockholderEquity"}},
}

var cashFlowLines = []statementLine{
	{label: "Net Income", keys: []string{"netIncome"}},
	{label: "Depreciation", keys: []string{"depreciation"}},
	{label: "Change In Working Capital", keys: []string{"changeInWorkingCapital"}},
	{label: "Operating Cash Flow", keys: []string{"totalCashFromOperatingActivities"}},
	{label: "Capital Expenditures", keys: []string{"capitalExpenditures"}},
	{label: "Financing Cash Flow", keys: []string{"totalCashFromFinancingActivities"}},
}
