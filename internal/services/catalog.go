package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/apperr"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
)

// CatalogService covers the small lookup entities: categories and retail
// customers.
type CatalogService struct {
	DB    *gorm.DB
	Log   *logrus.Logger
	Audit *AuditService
}

func NewCatalogService(db *gorm.DB, log *logrus.Logger, audit *AuditService) *CatalogService {
	return &CatalogService{DB: db, Log: log, Audit: audit}
}

func (s *CatalogService) AddCategory(ctx context.Context, business models.BusinessType, name string) (*models.Category, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	if !business.Valid() {
		return nil, apperr.Validationf("unknown business type %q", business)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validationf("category name is required")
	}
	var existing models.Category
	err := s.DB.WithContext(ctx).
		Where("business_type = ? AND name = ?", business, name).
		First(&existing).Error
	if err == nil {
		return nil, apperr.Conflictf("category %q already exists", name)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Internal("check category", err)
	}
	cat := models.Category{BusinessType: business, Name: name}
	if err := s.DB.WithContext(ctx).Create(&cat).Error; err != nil {
		return nil, apperr.Internal("create category", err)
	}
	s.Audit.Record(ctx, string(business), models.ActionCreate, "category", cat.ID,
		map[string]any{"name": name})
	return &cat, nil
}

func (s *CatalogService) ListCategories(ctx context.Context, business models.BusinessType) ([]models.Category, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	var cats []models.Category
	if err := s.DB.WithContext(ctx).
		Where("business_type = ?", business).
		Order("name").Find(&cats).Error; err != nil {
		return nil, apperr.Internal("list categories", err)
	}
	return cats, nil
}

type AddCustomerInput struct {
	Name         string
	Phone        string
	Address      string
	NIN          string
	BusinessType models.BusinessType
}

func (s *CatalogService) AddCustomer(ctx context.Context, in AddCustomerInput) (*models.Customer, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	phone := strings.TrimSpace(in.Phone)
	if name == "" || phone == "" {
		return nil, apperr.Validationf("customer name and phone are required")
	}
	if !in.BusinessType.Valid() {
		return nil, apperr.Validationf("unknown business type %q", in.BusinessType)
	}
	c := models.Customer{
		Name:         name,
		Phone:        phone,
		Address:      strings.TrimSpace(in.Address),
		NIN:          strings.TrimSpace(in.NIN),
		BusinessType: in.BusinessType,
	}
	if err := s.DB.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, apperr.Internal("create customer", err)
	}
	s.Audit.Record(ctx, string(in.BusinessType), models.ActionCreate, "customer", c.ID,
		map[string]any{"name": name, "phone": phone})
	return &c, nil
}

func (s *CatalogService) ListCustomers(ctx context.Context, business models.BusinessType) ([]models.Customer, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	q := s.DB.WithContext(ctx).Model(&models.Customer{})
	if business != "" {
		q = q.Where("business_type = ?", business)
	}
	var customers []models.Customer
	if err := q.Order("name").Find(&customers).Error; err != nil {
		return nil, apperr.Internal("list customers", err)
	}
	return customers, nil
}
