package api

import (
	"strings"
	"time"

	"fahrerexpress/pkg/apperrors"
	"fahrerexpress/pkg/models"
	"fahrerexpress/service"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

type assignDriverRequest struct {
	JobID     string  `json:"jobId"`
	DriverID  string  `json:"driverId"`
	RateType  string  `json:"rateType"`
	RateValue float64 `json:"rateValue"`
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
	Note      string  `json:"note"`
}

func (r assignDriverRequest) toService() (service.AssignRequest, error) {
	start, err := parseDate(r.StartDate)
	if err != nil {
		return service.AssignRequest{}, apperrors.Validation("invalid startDate")
	}
	end, err := parseDate(r.EndDate)
	if err != nil {
		return service.AssignRequest{}, apperrors.Validation("invalid endDate")
	}
	return service.AssignRequest{
		JobID:     r.JobID,
		DriverID:  r.DriverID,
		RateType:  r.RateType,
		RateValue: r.RateValue,
		StartDate: start,
		EndDate:   end,
		Note:      strings.TrimSpace(r.Note),
	}, nil
}

type jobIDRequest struct {
	JobID string `json:"jobId"`
}

type sendInviteRequest struct {
	JobID    string `json:"jobId"`
	DriverID string `json:"driverId"`
}

type createJobRequest struct {
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone"`
	Company       string `json:"company"`
	Einsatzort    string `json:"einsatzort"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	TimeWindow    string `json:"timeWindow"`
	VehicleType   string `json:"vehicleType"`
	LicenseClass  string `json:"licenseClass"`
	Notes         string `json:"notes"`
}

func (r createJobRequest) toModel() (*models.JobRequest, error) {
	start, err := parseDate(r.StartDate)
	if err != nil {
		return nil, apperrors.Validation("invalid startDate")
	}
	end, err := parseDate(r.EndDate)
	if err != nil {
		return nil, apperrors.Validation("invalid endDate")
	}
	return &models.JobRequest{
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		CustomerPhone: strings.TrimSpace(r.CustomerPhone),
		Company:       strings.TrimSpace(r.Company),
		Einsatzort:    r.Einsatzort,
		StartDate:     start,
		EndDate:       end,
		TimeWindow:    strings.TrimSpace(r.TimeWindow),
		VehicleType:   strings.TrimSpace(r.VehicleType),
		LicenseClass:  strings.TrimSpace(r.LicenseClass),
		Notes:         strings.TrimSpace(r.Notes),
	}, nil
}

// parseDate accepts a plain date from the admin UI or a full RFC 3339 timestamp.
func parseDate(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
