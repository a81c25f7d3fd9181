package services

import (
	"errors"
	"fmt"

	"github.com/uniqdata/backend/internal/models"
	"gorm.io/gorm"
)

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

type ProjectListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=draft recruiting collecting analyzing completed"`
	Title    string `form:"title"`
}

type ProjectListResponse struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Items    []models.Project `json:"items"`
}

type CreateProjectRequest struct {
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description"`
	EscrowAmountXRP int64  `json:"escrow_amount_xrp" binding:"omitempty,min=0"`
}

type UpdateProjectRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Status          string `json:"status" binding:"omitempty,oneof=draft recruiting collecting analyzing completed"`
	EscrowAmountXRP *int64 `json:"escrow_amount_xrp"`
}

// List returns paginated projects
func (s *ProjectService) List(req *ProjectListRequest) (*ProjectListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 10
	}

	var projects []models.Project
	var total int64

	query := s.db.Model(&models.Project{})

	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.Title != "" {
		query = query.Where("title LIKE ?", "%"+req.Title+"%")
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}

	return &ProjectListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    projects,
	}, nil
}

// GetByID returns a project by ID
func (s *ProjectService) GetByID(id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError(fmt.Sprintf("project not found: %d", id))
		}
		return nil, err
	}
	return &project, nil
}

// Create creates a new project in draft status
func (s *ProjectService) Create(req *CreateProjectRequest) (*models.Project, error) {
	project := models.Project{
		Title:           req.Title,
		Description:     req.Description,
		Status:          models.ProjectStatusDraft,
		EscrowAmountXRP: req.EscrowAmountXRP,
	}

	if err := s.db.Create(&project).Error; err != nil {
		return nil, err
	}

	return &project, nil
}

// Update updates a project
func (s *ProjectService) Update(id uint, req *UpdateProjectRequest) (*models.Project, error) {
	project, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if req.EscrowAmountXRP != nil {
		updates["escrow_amount_xrp"] = *req.EscrowAmountXRP
	}

	if err := s.db.Model(project).Updates(updates).Error; err != nil {
		return nil, err
	}

	return project, nil
}

// Delete deletes a project
func (s *ProjectService) Delete(id uint) error {
	result := s.db.Delete(&models.Project{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return NotFoundError(fmt.Sprintf("project not found: %d", id))
	}
	return nil
}
