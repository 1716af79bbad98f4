package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func (s *server) borrow(c *fiber.Ctx) error {
	var req borrowRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	receipt, err := s.desk.Borrow(c.UserContext(), callerOf(c), req.TitleID, req.LoanPeriodDays)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(toBorrowResponse(receipt))
}

func (s *server) returnLoan(c *fiber.Ctx) error {
	var req returnRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	receipt, err := s.desk.Return(c.UserContext(), callerOf(c), req.LoanID)
	if err != nil {
		return err
	}

	return c.JSON(toReturnResponse(receipt))
}

func (s *server) myLoans(c *fiber.Ctx) error {
	loans, err := s.desk.MyLoans(c.UserContext(), callerOf(c))
	if err != nil {
		return err
	}

	return c.JSON(toLoanResponses(loans))
}

func (s *server) loanHistory(c *fiber.Ctx) error {
	loans, err := s.desk.LoanHistory(c.UserContext(), callerOf(c))
	if err != nil {
		return err
	}

	return c.JSON(toLoanResponses(loans))
}

func (s *server) allLoans(c *fiber.Ctx) error {
	loans, err := s.desk.AllLoans(c.UserContext(), callerOf(c))
	if err != nil {
		return err
	}

	return c.JSON(toLoanResponses(loans))
}

func (s *server) overdueReport(c *fiber.Ctx) error {
	report, err := s.desk.OverdueReport(c.UserContext(), callerOf(c))
	if err != nil {
		return err
	}

	return c.JSON(toOverdueReportResponse(report))
}

func (s *server) dashboardStats(c *fiber.Ctx) error {
	stats, err := s.desk.DashboardStats(c.UserContext(), callerOf(c))
	if err != nil {
		return err
	}

	return c.JSON(toStatsResponse(stats))
}

func (s *server) recommendations(c *fiber.Ctx) error {
	patronID, err := uuid.Parse(c.Params("patron_id"))
	if err != nil {
		return invalidRequest(err)
	}

	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return invalidRequest(errors.New("limit must not be negative"))
	}

	items, err := s.desk.Recommendations(c.UserContext(), callerOf(c), patronID, limit)
	if err != nil {
		return err
	}

	return c.JSON(toRecommendationResponses(items))
}

func (s *server) demandForecast(c *fiber.Ctx) error {
	result, err := s.desk.DemandForecast(c.UserContext(), callerOf(c))
	if err != nil {
		return err
	}

	return c.JSON(toForecastResponses(result.Forecasts))
}

func (s *server) overduePredictions(c *fiber.Ctx) error {
	result, err := s.desk.OverdueRisk(c.UserContext(), callerOf(c))
	if err != nil {
		return err
	}

	return c.JSON(toPredictionResponses(result.Predictions))
}
