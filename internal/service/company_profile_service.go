package service

import (
	"context"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/pkg/apperror"
)

// --- DTOs ---

type UpsertCompanyProfileRequest struct {
	CompanyRUT   string `json:"rut_empresa" binding:"required"`
	CompanyName  string `json:"nombre_empresa" binding:"required"`
	BusinessLine string `json:"giro_empresa" binding:"required"`
	ActivityCode string `json:"actividad_economica"`
	Address      string `json:"direccion"`
	Commune      string `json:"comuna"`
	City         string `json:"ciudad"`
	Phone        string `json:"telefono"`
	Email        string `json:"email"`
	Environment  string `json:"ambiente"`
}

// --- Interface ---

// CompanyProfileService manages the issuer configuration used by the renderer.
type CompanyProfileService interface {
	GetActive(ctx context.Context) (*model.CompanyProfile, error)
	Upsert(ctx context.Context, req UpsertCompanyProfileRequest) (*model.CompanyProfile, error)
}

type companyProfileService struct {
	profileRepo repository.CompanyProfileRepository
}

func NewCompanyProfileService(profileRepo repository.CompanyProfileRepository) CompanyProfileService {
	return &companyProfileService{profileRepo: profileRepo}
}

// --- Implementation ---

// GetActive returns the active profile, or nil when none has been configured
// yet (the pipeline then runs on the process defaults).
func (s *companyProfileService) GetActive(ctx context.Context) (*model.CompanyProfile, error) {
	profile, err := s.profileRepo.FindActive(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "failed to read company profile")
	}
	return profile, nil
}

func (s *companyProfileService) Upsert(ctx context.Context, req UpsertCompanyProfileRequest) (*model.CompanyProfile, error) {
	if req.CompanyRUT == "" || req.CompanyName == "" || req.BusinessLine == "" {
		return nil, apperror.Validation("company RUT, name and business line are required")
	}

	environment := req.Environment
	switch environment {
	case "":
		environment = model.EnvironmentCertification
	case model.EnvironmentCertification, model.EnvironmentProduction:
		// valid
	default:
		return nil, apperror.Validation("invalid environment: must be %s or %s",
			model.EnvironmentCertification, model.EnvironmentProduction)
	}

	profile := &model.CompanyProfile{
		CompanyRUT:   req.CompanyRUT,
		CompanyName:  req.CompanyName,
		BusinessLine: req.BusinessLine,
		ActivityCode: req.ActivityCode,
		Address:      req.Address,
		Commune:      req.Commune,
		City:         req.City,
		Phone:        req.Phone,
		Email:        req.Email,
		Environment:  environment,
	}

	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, apperror.Internal(err, "failed to save company profile")
	}

	return profile, nil
}
