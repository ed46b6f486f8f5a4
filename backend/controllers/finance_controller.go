package controllers

import (
	"errors"
	"mentor/backend/config"
	"mentor/backend/models"
	"mentor/backend/services"
	"mentor/backend/utils"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	expenseListLimit   = 50
	dashboardGoalLimit = 3
	dateLayout         = "2006-01-02"
)

type FinanceController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Gateway services.Gateway
	Logger  *zap.Logger
}

func NewFinanceController(db *gorm.DB, cfg *config.Config, gateway services.Gateway, logger *zap.Logger) *FinanceController {
	return &FinanceController{DB: db, Cfg: cfg, Gateway: gateway, Logger: logger}
}

type FinancialProfileRequest struct {
	Age            *int           `json:"age" validate:"omitempty,min=0,max=150"`
	MonthlyIncome  float64        `json:"monthly_income" validate:"min=0"`
	RiskProfile    string         `json:"risk_profile" validate:"omitempty,oneof=conservative moderate aggressive"`
	FinancialGoals map[string]any `json:"financial_goals"`
}

type CreateExpenseRequest struct {
	Amount      float64 `json:"amount" validate:"gt=0"`
	Category    string  `json:"category" validate:"required,max=50"`
	Description string  `json:"description" validate:"max=500"`
	Date        string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type BudgetRequest struct {
	Month         int                `json:"month" validate:"required,min=1,max=12"`
	Year          int                `json:"year" validate:"required,min=2000,max=2100"`
	TotalIncome   float64            `json:"total_income" validate:"min=0"`
	TotalExpenses float64            `json:"total_expenses" validate:"min=0"`
	Categories    map[string]float64 `json:"categories"`
}

type CreateGoalRequest struct {
	GoalType            string   `json:"goal_type" validate:"required,max=100"`
	TargetAmount        float64  `json:"target_amount" validate:"gt=0"`
	Deadline            string   `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
	MonthlyContribution *float64 `json:"monthly_contribution" validate:"omitempty,min=0"`
}

type ContributeRequest struct {
	Amount float64 `json:"amount" validate:"gt=0"`
}

type CreateInvestmentRequest struct {
	InvestmentType string   `json:"investment_type" validate:"required,max=100"`
	Amount         float64  `json:"amount" validate:"gt=0"`
	ExpectedReturn *float64 `json:"expected_return"`
	RiskLevel      string   `json:"risk_level" validate:"omitempty,oneof=low medium high"`
	StartDate      string   `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	Notes          string   `json:"notes" validate:"max=1000"`
}

type AdviceRequest struct {
	Type        string  `json:"type" validate:"required,oneof=investment budget"`
	Amount      float64 `json:"amount" validate:"min=0"`
	Period      int     `json:"period" validate:"min=0"`
	RiskProfile string  `json:"risk_profile"`
	Income      float64 `json:"income" validate:"min=0"`
	Expenses    float64 `json:"expenses" validate:"min=0"`
}

type goalView struct {
	models.FinancialGoal
	services.GoalProjection
}

func (fc *FinanceController) GetProfile(c *fiber.Ctx) error {
	profile, err := fc.loadProfile(currentUserID(c))
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return utils.Success(c, fiber.StatusOK, profile)
}

func (fc *FinanceController) UpsertProfile(c *fiber.Ctx) error {
	var input FinancialProfileRequest
	if ok, err := utils.ParseAndValidate(c, &input); !ok {
		return err
	}

	profile := models.FinancialProfile{
		UserID:         currentUserID(c),
		Age:            input.Age,
		MonthlyIncome:  input.MonthlyIncome,
		RiskProfile:    input.RiskProfile,
		FinancialGoals: input.FinancialGoals,
	}
	if err := fc.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"age", "monthly_income", "risk_profile", "financial_goals", "updated_at"}),
	}).Create(&profile).Error; err != nil {
		return utils.InternalServerError(c, "Could not save financial profile")
	}

	saved, err := fc.loadProfile(profile.UserID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return utils.Success(c, fiber.StatusOK, saved)
}

// ListExpenses godoc
// @Summary List expenses
// @Description Newest expenses with category totals and a savings summary
// @Tags finance
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /finance/expenses [get]
func (fc *FinanceController) ListExpenses(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var expenses []models.Expense
	if err := fc.DB.Where("user_id = ?", userID).
		Order("date DESC").Order("id DESC").
		Limit(expenseListLimit).
		Find(&expenses).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	var income float64
	if profile, err := fc.loadProfile(userID); err == nil && profile != nil {
		income = profile.MonthlyIncome
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"expenses": expenses,
		"summary":  services.SummarizeExpenses(expenses, income),
	})
}

func (fc *FinanceController) CreateExpense(c *fiber.Ctx) error {
	var input CreateExpenseRequest
	if ok, err := utils.ParseAndValidate(c, &input); !ok {
		return err
	}

	userID := currentUserID(c)
	if input.Date == "" {
		input.Date = time.Now().UTC().Format(dateLayout)
	}
	date, _ := time.Parse(dateLayout, input.Date)

	expense := models.Expense{
		UserID:      userID,
		Amount:      input.Amount,
		Category:    input.Category,
		Description: input.Description,
		Date:        input.Date,
	}

	var budget models.Budget
	if err := fc.DB.Where("user_id = ? AND month = ? AND year = ?", userID, int(date.Month()), date.Year()).
		First(&budget).Error; err == nil {
		expense.BudgetID = &budget.ID
	}

	if err := fc.DB.Create(&expense).Error; err != nil {
		return utils.InternalServerError(c, "Could not save expense")
	}
	return utils.Created(c, expense)
}

func (fc *FinanceController) DeleteExpense(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid expense ID")
	}
	return fc.deleteOwned(c, &models.Expense{}, id, "Expense not found")
}

func (fc *FinanceController) GetBudget(c *fiber.Ctx) error {
	now := time.Now().UTC()
	month := c.QueryInt("month", int(now.Month()))
	year := c.QueryInt("year", now.Year())
	if month < 1 || month > 12 {
		return utils.BadRequest(c, "Invalid month")
	}

	var budget models.Budget
	err := fc.DB.Where("user_id = ? AND month = ? AND year = ?", currentUserID(c), month, year).First(&budget).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.Success(c, fiber.StatusOK, nil)
	}
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return utils.Success(c, fiber.StatusOK, budget)
}

func (fc *FinanceController) UpsertBudget(c *fiber.Ctx) error {
	var input BudgetRequest
	if ok, err := utils.ParseAndValidate(c, &input); !ok {
		return err
	}

	budget := models.Budget{
		UserID:        currentUserID(c),
		Month:         input.Month,
		Year:          input.Year,
		TotalIncome:   input.TotalIncome,
		TotalExpenses: input.TotalExpenses,
		Savings:       input.TotalIncome - input.TotalExpenses,
		Categories:    input.Categories,
	}
	if err := fc.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "month"}, {Name: "year"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_income", "total_expenses", "savings", "categories", "updated_at"}),
	}).Create(&budget).Error; err != nil {
		return utils.InternalServerError(c, "Could not save budget")
	}

	var saved models.Budget
	if err := fc.DB.Where("user_id = ? AND month = ? AND year = ?", budget.UserID, budget.Month, budget.Year).
		First(&saved).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	return utils.Success(c, fiber.StatusOK, saved)
}

func (fc *FinanceController) ListGoals(c *fiber.Ctx) error {
	var goals []models.FinancialGoal
	if err := fc.DB.Where("user_id = ?", currentUserID(c)).
		Order("created_at DESC").
		Find(&goals).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	now := time.Now().UTC()
	views := make([]goalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, goalView{FinancialGoal: g, GoalProjection: services.ProjectGoal(g, now)})
	}
	return utils.Success(c, fiber.StatusOK, views)
}

func (fc *FinanceController) CreateGoal(c *fiber.Ctx) error {
	var input CreateGoalRequest
	if ok, err := utils.ParseAndValidate(c, &input); !ok {
		return err
	}

	goal := models.FinancialGoal{
		UserID:              currentUserID(c),
		GoalType:            input.GoalType,
		TargetAmount:        input.TargetAmount,
		MonthlyContribution: input.MonthlyContribution,
		Status:              models.GoalStatusActive,
	}
	if input.Deadline != "" {
		deadline, _ := time.Parse(dateLayout, input.Deadline)
		goal.Deadline = &deadline
	}

	if err := fc.DB.Create(&goal).Error; err != nil {
		return utils.InternalServerError(c, "Could not save goal")
	}
	return utils.Created(c, goalView{FinancialGoal: goal, GoalProjection: services.ProjectGoal(goal, time.Now().UTC())})
}

// Contribute godoc
// @Summary Contribute to a goal
// @Description Adds to the goal's current amount and completes it once the target is reached
// @Tags finance
// @Accept json
// @Produce json
// @Param id path int true "Goal ID"
// @Param request body ContributeRequest true "Contribution"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /finance/goals/{id}/contribute [post]
func (fc *FinanceController) Contribute(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid goal ID")
	}

	var input ContributeRequest
	if ok, err := utils.ParseAndValidate(c, &input); !ok {
		return err
	}

	goal, err := services.ContributeToGoal(c.UserContext(), fc.DB, id, currentUserID(c), input.Amount)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.NotFound(c, "Goal not found")
	}
	if err != nil {
		return utils.InternalServerError(c, "Could not update goal")
	}

	return utils.Success(c, fiber.StatusOK, goalView{FinancialGoal: goal, GoalProjection: services.ProjectGoal(goal, time.Now().UTC())})
}

func (fc *FinanceController) ListInvestments(c *fiber.Ctx) error {
	var investments []models.Investment
	if err := fc.DB.Where("user_id = ?", currentUserID(c)).
		Order("created_at DESC").
		Find(&investments).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	var total float64
	for _, inv := range investments {
		total += inv.Amount
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"investments":  investments,
		"total_amount": total,
	})
}

func (fc *FinanceController) CreateInvestment(c *fiber.Ctx) error {
	var input CreateInvestmentRequest
	if ok, err := utils.ParseAndValidate(c, &input); !ok {
		return err
	}

	investment := models.Investment{
		UserID:         currentUserID(c),
		InvestmentType: input.InvestmentType,
		Amount:         input.Amount,
		ExpectedReturn: input.ExpectedReturn,
		RiskLevel:      input.RiskLevel,
		Notes:          input.Notes,
	}
	if input.StartDate != "" {
		start, _ := time.Parse(dateLayout, input.StartDate)
		investment.StartDate = &start
	}

	if err := fc.DB.Create(&investment).Error; err != nil {
		return utils.InternalServerError(c, "Could not save investment")
	}
	return utils.Created(c, investment)
}

func (fc *FinanceController) DeleteInvestment(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid investment ID")
	}
	return fc.deleteOwned(c, &models.Investment{}, id, "Investment not found")
}

// Dashboard godoc
// @Summary Finance dashboard
// @Description Profile, current budget, active goals and a financial health score
// @Tags finance
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /finance/dashboard [get]
func (fc *FinanceController) Dashboard(c *fiber.Ctx) error {
	userID := currentUserID(c)
	now := time.Now().UTC()

	profile, err := fc.loadProfile(userID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	var budget *models.Budget
	var current models.Budget
	err = fc.DB.Where("user_id = ? AND month = ? AND year = ?", userID, int(now.Month()), now.Year()).
		First(&current).Error
	switch {
	case err == nil:
		budget = &current
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return utils.InternalServerError(c, "Could not query database")
	}

	var goals []models.FinancialGoal
	if err := fc.DB.Where("user_id = ? AND status = ?", userID, models.GoalStatusActive).
		Order("created_at DESC").
		Limit(dashboardGoalLimit).
		Find(&goals).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	score := services.HealthScore(profile, budget, goals)
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"profile": profile,
		"budget":  budget,
		"goals":   goals,
		"health": fiber.Map{
			"score":  score,
			"status": services.HealthStatus(score),
		},
	})
}

func (fc *FinanceController) Advice(c *fiber.Ctx) error {
	var input AdviceRequest
	if ok, err := utils.ParseAndValidate(c, &input); !ok {
		return err
	}
	if fc.Gateway == nil {
		return gatewayNotConfigured(c)
	}

	prompt, err := services.AdvicePrompt(services.AdviceRequest{
		Type:        input.Type,
		Amount:      input.Amount,
		Period:      input.Period,
		RiskProfile: input.RiskProfile,
		Income:      input.Income,
		Expenses:    input.Expenses,
	}, fc.Cfg.AIModel)
	if err != nil {
		return utils.BadRequest(c, err.Error())
	}

	completion, err := fc.Gateway.Complete(c.UserContext(), prompt)
	if err != nil {
		fc.Logger.Error("Financial advice failed", zap.String("type", input.Type), zap.Error(err))
		return gatewayError(c, err)
	}

	return c.JSON(services.ParseJSONReply(completion.Content, "advice"))
}

// loadProfile returns nil without error when the user has no financial profile.
func (fc *FinanceController) loadProfile(userID uint) (*models.FinancialProfile, error) {
	var profile models.FinancialProfile
	err := fc.DB.Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (fc *FinanceController) deleteOwned(c *fiber.Ctx, model interface{}, id uint, notFound string) error {
	res := fc.DB.Where("id = ? AND user_id = ?", id, currentUserID(c)).Delete(model)
	if res.Error != nil {
		return utils.InternalServerError(c, "Could not delete record")
	}
	if res.RowsAffected == 0 {
		return utils.NotFound(c, notFound)
	}
	return utils.NoContent(c)
}
