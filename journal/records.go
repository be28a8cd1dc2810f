package journal

import (
	"strings"
	"time"

	"github.com/rustyeddy/creditsim/loan"
	"github.com/rustyeddy/creditsim/pnl"
	"github.com/rustyeddy/creditsim/risk"
)

// Date is a calendar day written as YYYY-MM-DD.
type Date time.Time

func (d Date) MarshalCSV() (string, error) {
	return time.Time(d).Format(loan.DateLayout), nil
}

func (d *Date) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	if len(s) > len(loan.DateLayout) {
		s = s[:len(loan.DateLayout)]
	}
	t, err := time.Parse(loan.DateLayout, s)
	if err != nil {
		return err
	}
	*d = Date(t)
	return nil
}

type transactionRecord struct {
	LoanID       int64       `csv:"loan_id"`
	Date         Date        `csv:"date"`
	Type         loan.TxType `csv:"type"`
	FacilitySize float64     `csv:"facility_size"`
	PD           float64     `csv:"pd"`
	LGD          float64     `csv:"lgd"`
	TermYears    float64     `csv:"term_years"`
	SpreadBps    float64     `csv:"spread_bps"`
	TotalRate    float64     `csv:"total_rate"`
	Recovery     float64     `csv:"recovery"`
	Loss         float64     `csv:"loss"`
}

func toTransactionRecord(tx loan.Transaction) transactionRecord {
	return transactionRecord{
		LoanID:       tx.LoanID,
		Date:         Date(tx.Date),
		Type:         tx.Type,
		FacilitySize: tx.FacilitySize,
		PD:           tx.PD,
		LGD:          tx.LGD,
		TermYears:    tx.TermYears,
		SpreadBps:    tx.SpreadBps,
		TotalRate:    tx.TotalRate,
		Recovery:     tx.Recovery,
		Loss:         tx.Loss,
	}
}

func (r transactionRecord) transaction() loan.Transaction {
	return loan.Transaction{
		LoanID:       r.LoanID,
		Date:         time.Time(r.Date),
		Type:         r.Type,
		FacilitySize: r.FacilitySize,
		PD:           r.PD,
		LGD:          r.LGD,
		TermYears:    r.TermYears,
		SpreadBps:    r.SpreadBps,
		TotalRate:    r.TotalRate,
		Recovery:     r.Recovery,
		Loss:         r.Loss,
	}
}

type positionRecord struct {
	LoanID       int64   `csv:"loan_id"`
	DateFunded   Date    `csv:"date_funded"`
	MaturityDate Date    `csv:"maturity_date"`
	FacilitySize float64 `csv:"facility_size"`
	PD           float64 `csv:"pd"`
	LGD          float64 `csv:"lgd"`
	TermYears    float64 `csv:"term_years"`
	SpreadBps    float64 `csv:"spread_bps"`
	TotalRate    float64 `csv:"total_rate"`
}

func toPositionRecords(ps []loan.Position) []positionRecord {
	out := make([]positionRecord, len(ps))
	for i, p := range ps {
		out[i] = positionRecord{
			LoanID:       p.LoanID,
			DateFunded:   Date(p.DateFunded),
			MaturityDate: Date(p.MaturityDate),
			FacilitySize: p.FacilitySize,
			PD:           p.PD,
			LGD:          p.LGD,
			TermYears:    p.TermYears,
			SpreadBps:    p.SpreadBps,
			TotalRate:    p.TotalRate,
		}
	}
	return out
}

type cashRecord struct {
	Week          int     `csv:"week_index"`
	Date          Date    `csv:"date"`
	IndexRate     float64 `csv:"index_rate"`
	Cash          float64 `csv:"cash"`
	Outstanding   float64 `csv:"outstanding"`
	OpenPositions int     `csv:"open_positions"`
	Interest      float64 `csv:"interest"`
	Recoveries    float64 `csv:"recoveries"`
	Principal     float64 `csv:"principal_returned"`
	Loss          float64 `csv:"loss"`
	FundedAmount  float64 `csv:"funded_amount"`
	Funded        int     `csv:"funded"`
	Defaulted     int     `csv:"defaulted"`
	Matured       int     `csv:"matured"`
}

func toCashRecord(s CashSnapshot) cashRecord {
	return cashRecord{
		Week:          s.Week,
		Date:          Date(s.Date),
		IndexRate:     s.IndexRate,
		Cash:          s.Cash,
		Outstanding:   s.Outstanding,
		OpenPositions: s.OpenPositions,
		Interest:      s.Interest,
		Recoveries:    s.Recoveries,
		Principal:     s.Principal,
		Loss:          s.Loss,
		FundedAmount:  s.FundedAmount,
		Funded:        s.Funded,
		Defaulted:     s.Defaulted,
		Matured:       s.Matured,
	}
}

type pnlRecord struct {
	Week          Date        `csv:"week"`
	LoanID        int64       `csv:"loan_id"`
	Exposure      float64     `csv:"exposure"`
	Interest      float64     `csv:"interest"`
	DefaultLoss   float64     `csv:"default_loss"`
	PnL           float64     `csv:"pnl"`
	EndedThisWeek bool        `csv:"ended_this_week"`
	EndType       loan.TxType `csv:"end_type"`
}

func toPnLRecords(rows []pnl.Row) []pnlRecord {
	out := make([]pnlRecord, len(rows))
	for i, r := range rows {
		out[i] = pnlRecord{
			Week:          Date(r.Week),
			LoanID:        r.LoanID,
			Exposure:      r.Exposure,
			Interest:      r.Interest,
			DefaultLoss:   r.DefaultLoss,
			PnL:           r.PnL,
			EndedThisWeek: r.EndedThisWeek,
			EndType:       r.EndType,
		}
	}
	return out
}

type totalRecord struct {
	Week        Date           `csv:"week"`
	Interest    float64        `csv:"interest"`
	DefaultLoss float64        `csv:"default_loss"`
	PnL         float64        `csv:"pnl"`
	Exposure    float64        `csv:"exposure"`
	CumPnL      float64        `csv:"cum_pnl"`
	RollMax     float64        `csv:"roll_max"`
	DrawdownAmt float64        `csv:"drawdown_amt"`
	DrawdownPct risk.NullFloat `csv:"drawdown_pct"`
}

type wideRecord struct {
	Week     Date    `csv:"week"`
	TotalPnL float64 `csv:"total_pnl"`
}

type drawdownRecord struct {
	Week        Date           `csv:"week"`
	CumPnL      float64        `csv:"cum_pnl"`
	RollMax     float64        `csv:"roll_max"`
	DrawdownAmt float64        `csv:"drawdown_amt"`
	DrawdownPct risk.NullFloat `csv:"drawdown_pct"`
}

func toTotalRecords(totals []risk.WeekTotal) ([]totalRecord, []wideRecord, []drawdownRecord) {
	tr := make([]totalRecord, len(totals))
	wr := make([]wideRecord, len(totals))
	dr := make([]drawdownRecord, len(totals))
	for i, t := range totals {
		week := Date(t.Week)
		tr[i] = totalRecord{
			Week:        week,
			Interest:    t.Interest,
			DefaultLoss: t.DefaultLoss,
			PnL:         t.PnL,
			Exposure:    t.Exposure,
			CumPnL:      t.CumPnL,
			RollMax:     t.RollMax,
			DrawdownAmt: t.DrawdownAmt,
			DrawdownPct: t.DrawdownPct,
		}
		wr[i] = wideRecord{Week: week, TotalPnL: t.PnL}
		dr[i] = drawdownRecord{
			Week:        week,
			CumPnL:      t.CumPnL,
			RollMax:     t.RollMax,
			DrawdownAmt: t.DrawdownAmt,
			DrawdownPct: t.DrawdownPct,
		}
	}
	return tr, wr, dr
}

type yearRecord struct {
	Year                int            `csv:"year"`
	TotalInterest       float64        `csv:"total_interest"`
	TotalDefaultLoss    float64        `csv:"total_default_loss"`
	TotalPnL            float64        `csv:"total_pnl"`
	AvgExposure         float64        `csv:"avg_exposure"`
	Weeks               int            `csv:"weeks"`
	WeeklyVolatilityPnL risk.NullFloat `csv:"weekly_volatility_pnl"`
	ReturnPct           risk.NullFloat `csv:"return_pct"`
	LoansFunded         int            `csv:"loans_funded"`
	FundedAmount        float64        `csv:"funded_amount"`
	WATotalRate         risk.NullFloat `csv:"wa_total_rate"`
	WASpreadBps         risk.NullFloat `csv:"wa_spread_bps"`
	WAPD                risk.NullFloat `csv:"wa_pd"`
	WATermYears         risk.NullFloat `csv:"wa_term_years"`
	LoansDefaulted      int            `csv:"loans_defaulted"`
	AvgLGDOnDefaults    risk.NullFloat `csv:"avg_lgd_on_defaults"`
	DefaultedAmount     float64        `csv:"defaulted_amount"`
	DefaultRateByCount  risk.NullFloat `csv:"default_rate_by_count"`
}

func toYearRecords(years []risk.YearStats) []yearRecord {
	out := make([]yearRecord, len(years))
	for i, y := range years {
		s := y.Summary
		out[i] = yearRecord{
			Year:                y.Year,
			TotalInterest:       s.TotalInterest,
			TotalDefaultLoss:    s.TotalDefaultLoss,
			TotalPnL:            s.TotalPnL,
			AvgExposure:         s.AvgExposure,
			Weeks:               s.Weeks,
			WeeklyVolatilityPnL: s.WeeklyVolatilityPnL,
			ReturnPct:           s.ReturnPct,
			LoansFunded:         s.LoansFunded,
			FundedAmount:        s.FundedAmount,
			WATotalRate:         s.WATotalRate,
			WASpreadBps:         s.WASpreadBps,
			WAPD:                s.WAPD,
			WATermYears:         s.WATermYears,
			LoansDefaulted:      s.LoansDefaulted,
			AvgLGDOnDefaults:    s.AvgLGDOnDefaults,
			DefaultedAmount:     s.DefaultedAmount,
			DefaultRateByCount:  s.DefaultRateByCount,
		}
	}
	return out
}

type overallRecord struct {
	TotalInterest       float64        `csv:"total_interest"`
	TotalDefaultLoss    float64        `csv:"total_default_loss"`
	TotalPnL            float64        `csv:"total_pnl"`
	AvgWeeklyExposure   float64        `csv:"avg_weekly_exposure"`
	OverallReturnPct    risk.NullFloat `csv:"overall_return_pct"`
	Weeks               int            `csv:"weeks"`
	WeeklyVolatilityPnL risk.NullFloat `csv:"weekly_volatility_pnl"`
	LoansFunded         int            `csv:"loans_funded_total"`
	LoansDefaulted      int            `csv:"loans_defaulted_total"`
	FundedAmount        float64        `csv:"funded_amount_total"`
	DefaultedAmount     float64        `csv:"defaulted_amount_total"`
	WATotalRate         risk.NullFloat `csv:"wa_total_rate"`
	WASpreadBps         risk.NullFloat `csv:"wa_spread_bps"`
	WAPD                risk.NullFloat `csv:"wa_pd"`
	WATermYears         risk.NullFloat `csv:"wa_term_years"`
	AvgLGDOnDefaults    risk.NullFloat `csv:"avg_lgd_on_defaults"`
	DefaultRateByCount  risk.NullFloat `csv:"default_rate_by_count"`
	MaxDrawdownAmt      float64        `csv:"max_drawdown_amt"`
	MaxDrawdownPct      risk.NullFloat `csv:"max_drawdown_pct"`
}

func toOverallRecord(o risk.Overall) overallRecord {
	return overallRecord{
		TotalInterest:       o.TotalInterest,
		TotalDefaultLoss:    o.TotalDefaultLoss,
		TotalPnL:            o.TotalPnL,
		AvgWeeklyExposure:   o.AvgExposure,
		OverallReturnPct:    o.ReturnPct,
		Weeks:               o.Weeks,
		WeeklyVolatilityPnL: o.WeeklyVolatilityPnL,
		LoansFunded:         o.LoansFunded,
		LoansDefaulted:      o.LoansDefaulted,
		FundedAmount:        o.FundedAmount,
		DefaultedAmount:     o.DefaultedAmount,
		WATotalRate:         o.WATotalRate,
		WASpreadBps:         o.WASpreadBps,
		WAPD:                o.WAPD,
		WATermYears:         o.WATermYears,
		AvgLGDOnDefaults:    o.AvgLGDOnDefaults,
		DefaultRateByCount:  o.DefaultRateByCount,
		MaxDrawdownAmt:      o.MaxDrawdownAmt,
		MaxDrawdownPct:      o.MaxDrawdownPct,
	}
}
