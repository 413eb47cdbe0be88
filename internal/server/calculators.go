package server

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/iwvelando/hardscape-estimator/internal/config"
	"github.com/iwvelando/hardscape-estimator/pkg/estimate"
	"github.com/iwvelando/hardscape-estimator/pkg/labor"
	"github.com/iwvelando/hardscape-estimator/pkg/overhead"
	"github.com/iwvelando/hardscape-estimator/pkg/rates"
)

type priceRequest struct {
	Costs    config.CostsConfig    `json:"costs"`
	Overhead config.OverheadConfig `json:"overhead"`
	Pricing  config.PricingConfig  `json:"pricing"`
	Tax      config.TaxConfig      `json:"tax"`
}

type laborRateRequest struct {
	Worker              config.Worker `json:"worker"`
	GlobalBurdenPercent float64       `json:"globalBurdenPercent"`
	SalaryHoursPerYear  float64       `json:"salaryHoursPerYear"`
}

type laborRateResponse struct {
	BaseRate               float64 `json:"baseRate"`
	LoadedRate             float64 `json:"loadedRate"`
	EffectiveBurdenPercent float64 `json:"effectiveBurdenPercent"`
}

type overheadRateResponse struct {
	Rate           float64 `json:"rate"`
	FixedTotal     float64 `json:"fixedTotal"`
	EffectiveHours float64 `json:"effectiveHours"`
}

type roundingRequest struct {
	Amount float64              `json:"amount"`
	Rule   config.RoundingToken `json:"rule"`
}

type roundingResponse struct {
	Amount float64 `json:"amount"`
	Rule   string  `json:"rule"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage turns validator errors into "costs.materials must be >= 0".
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		switch fe.Tag() {
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be >= %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func (h *handler) handlePrice(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePrice"

	var req priceRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondDecodeError(w, err, "request", op)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, validationMessage(err), op)
		return
	}

	strategy, err := req.Pricing.ToPricingStrategy()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	result := estimate.NewEngine(h.logger).Price(
		req.Costs.ToCostBreakdown(),
		req.Overhead.ToOverheadConfig(),
		strategy,
		req.Tax.ToTaxRules(),
	)
	h.metrics.ObserveQuote(string(result.Breakdown.Mode), result.Total)

	h.writeJSON(w, http.StatusOK, result)
}

func (h *handler) handleLaborRate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleLaborRate"

	var req laborRateRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondDecodeError(w, err, "request", op)
		return
	}

	profile := req.Worker.ToProfile()
	hours := config.Company{SalaryHoursPerYear: req.SalaryHoursPerYear}.SalaryHours()

	h.writeJSON(w, http.StatusOK, laborRateResponse{
		BaseRate:               profile.BaseRate(hours),
		LoadedRate:             labor.ComputeLoadedRateWithHours(profile, req.GlobalBurdenPercent, hours),
		EffectiveBurdenPercent: labor.EffectiveBurden(profile, req.GlobalBurdenPercent),
	})
}

func (h *handler) handleOverheadRate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleOverheadRate"

	var req config.OverheadConfig
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondDecodeError(w, err, "request", op)
		return
	}

	cfg := req.ToOverheadConfig()
	h.writeJSON(w, http.StatusOK, overheadRateResponse{
		Rate:           overhead.ComputeOverheadRate(cfg),
		FixedTotal:     cfg.FixedTotal(),
		EffectiveHours: cfg.EffectiveHours(),
	})
}

func (h *handler) handleRounding(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRounding"

	var req roundingRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondDecodeError(w, err, "request", op)
		return
	}

	rule := rates.ParseRoundingRule(string(req.Rule))
	h.writeJSON(w, http.StatusOK, roundingResponse{
		Amount: rule.Apply(req.Amount),
		Rule:   rule.String(),
	})
}
