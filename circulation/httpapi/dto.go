package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/library-circulation-go/circulation/analytics/forecast"
	"github.com/AntonStoeckl/library-circulation-go/circulation/analytics/recommend"
	"github.com/AntonStoeckl/library-circulation-go/circulation/analytics/risk"
	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/circulation/desk"
	"github.com/AntonStoeckl/library-circulation-go/circulation/features/query/dashboardstats"
	"github.com/AntonStoeckl/library-circulation-go/circulation/features/query/overduereport"
)

const moneyPlaces = 2

type borrowRequest struct {
	TitleID        string `json:"title_id" validate:"required"`
	LoanPeriodDays int    `json:"loan_period_days" validate:"gte=0"`
}

type returnRequest struct {
	LoanID string `json:"loan_id" validate:"required"`
}

type borrowResponse struct {
	LoanID  string `json:"loan_id"`
	TitleID string `json:"title_id"`
	DueAt   string `json:"due_at"`
}

type returnResponse struct {
	LoanID     string `json:"loan_id"`
	TitleID    string `json:"title_id"`
	ReturnedAt string `json:"returned_at"`
	FineAmount string `json:"fine_amount"`
}

type loanResponse struct {
	LoanID         string  `json:"loan_id"`
	TitleID        string  `json:"title_id"`
	PatronID       string  `json:"patron_id"`
	BorrowedAt     string  `json:"borrowed_at"`
	DueAt          string  `json:"due_at"`
	LoanPeriodDays int     `json:"loan_period_days"`
	ReturnedAt     *string `json:"returned_at"`
	FineAmount     *string `json:"fine_amount"`
	Status         string  `json:"status"`
}

type overdueEntryResponse struct {
	LoanID         string `json:"loan_id"`
	TitleID        string `json:"title_id"`
	Title          string `json:"title"`
	PatronID       string `json:"patron_id"`
	BorrowedAt     string `json:"borrowed_at"`
	DueAt          string `json:"due_at"`
	OverdueDays    int    `json:"overdue_days"`
	CalculatedFine string `json:"calculated_fine"`
}

type overdueReportResponse struct {
	Entries    []overdueEntryResponse `json:"entries"`
	Count      int                    `json:"count"`
	TotalFines string                 `json:"total_fines"`
	AsOf       string                 `json:"as_of"`
}

type statsResponse struct {
	TotalBooks     int            `json:"total_books"`
	TotalUsers     int            `json:"total_users"`
	ActiveBorrows  int            `json:"active_borrows"`
	OverdueBooks   int            `json:"overdue_books"`
	RecentActivity []loanResponse `json:"recent_activity"`
}

type recommendationResponse struct {
	TitleID         string  `json:"title_id"`
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Genre           string  `json:"genre"`
	SimilarityScore float64 `json:"similarity_score"`
	Reason          string  `json:"reason"`
}

type forecastResponse struct {
	TitleID         string  `json:"title_id"`
	Title           string  `json:"title"`
	PredictedDemand int64   `json:"predicted_demand"`
	Confidence      float64 `json:"confidence"`
	SampleCount     int     `json:"sample_count"`
	Trend           float64 `json:"trend"`
}

type predictionResponse struct {
	LoanID        string  `json:"loan_id"`
	TitleID       string  `json:"title_id"`
	PatronID      string  `json:"patron_id"`
	DueAt         string  `json:"due_at"`
	DaysRemaining float64 `json:"days_remaining"`
	Probability   float64 `json:"probability"`
	RiskLevel     string  `json:"risk_level"`
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func money(amount decimal.Decimal) string {
	return amount.StringFixed(moneyPlaces)
}

func toBorrowResponse(receipt desk.BorrowReceipt) borrowResponse {
	return borrowResponse{
		LoanID:  receipt.LoanID,
		TitleID: receipt.TitleID,
		DueAt:   timestamp(receipt.DueAt),
	}
}

func toReturnResponse(receipt desk.ReturnReceipt) returnResponse {
	return returnResponse{
		LoanID:     receipt.LoanID,
		TitleID:    receipt.TitleID,
		ReturnedAt: timestamp(receipt.ReturnedAt),
		FineAmount: money(receipt.FineAmount),
	}
}

func toLoanResponse(view core.LoanView) loanResponse {
	response := loanResponse{
		LoanID:         view.LoanID,
		TitleID:        view.TitleID,
		PatronID:       view.PatronID,
		BorrowedAt:     timestamp(view.BorrowedAt),
		DueAt:          timestamp(view.DueAt),
		LoanPeriodDays: view.LoanPeriodDays,
		Status:         string(view.Status),
	}

	if !view.IsActive() {
		returnedAt := timestamp(view.ReturnedAt)
		response.ReturnedAt = &returnedAt
	}

	if view.FineAmount.Valid {
		fine := money(view.FineAmount.Decimal)
		response.FineAmount = &fine
	}

	return response
}

func toLoanResponses(views []core.LoanView) []loanResponse {
	responses := make([]loanResponse, 0, len(views))
	for _, view := range views {
		responses = append(responses, toLoanResponse(view))
	}

	return responses
}

func toOverdueReportResponse(report overduereport.Report) overdueReportResponse {
	entries := make([]overdueEntryResponse, 0, len(report.Entries))
	for _, entry := range report.Entries {
		entries = append(entries, overdueEntryResponse{
			LoanID:         entry.LoanID,
			TitleID:        entry.TitleID,
			Title:          entry.TitleName,
			PatronID:       entry.PatronID,
			BorrowedAt:     timestamp(entry.BorrowedAt),
			DueAt:          timestamp(entry.DueAt),
			OverdueDays:    entry.OverdueDays,
			CalculatedFine: money(entry.CalculatedFine),
		})
	}

	return overdueReportResponse{
		Entries:    entries,
		Count:      report.Count,
		TotalFines: money(report.TotalFines),
		AsOf:       timestamp(report.AsOf),
	}
}

func toStatsResponse(stats dashboardstats.Stats) statsResponse {
	return statsResponse{
		TotalBooks:     stats.TotalBooks,
		TotalUsers:     stats.TotalUsers,
		ActiveBorrows:  stats.ActiveBorrows,
		OverdueBooks:   stats.OverdueBooks,
		RecentActivity: toLoanResponses(stats.RecentActivity),
	}
}

func toRecommendationResponses(items []recommend.Recommendation) []recommendationResponse {
	responses := make([]recommendationResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, recommendationResponse{
			TitleID:         item.TitleID,
			Title:           item.TitleName,
			Author:          item.Author,
			Genre:           item.Genre,
			SimilarityScore: item.SimilarityScore,
			Reason:          item.Reason,
		})
	}

	return responses
}

func toForecastResponses(forecasts []forecast.TitleForecast) []forecastResponse {
	responses := make([]forecastResponse, 0, len(forecasts))
	for _, f := range forecasts {
		responses = append(responses, forecastResponse{
			TitleID:         f.TitleID,
			Title:           f.TitleName,
			PredictedDemand: f.Rounded(),
			Confidence:      f.Confidence,
			SampleCount:     f.SampleCount,
			Trend:           f.Trend,
		})
	}

	return responses
}

func toPredictionResponses(predictions []risk.Prediction) []predictionResponse {
	responses := make([]predictionResponse, 0, len(predictions))
	for _, p := range predictions {
		responses = append(responses, predictionResponse{
			LoanID:        p.LoanID,
			TitleID:       p.TitleID,
			PatronID:      p.PatronID,
			DueAt:         timestamp(p.DueAt),
			DaysRemaining: p.DaysRemaining,
			Probability:   p.Probability,
			RiskLevel:     string(p.Level),
		})
	}

	return responses
}
